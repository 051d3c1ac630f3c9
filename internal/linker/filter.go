package linker

import (
	"path/filepath"
	"strings"

	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/versionscript"
)

// exportFilter decides which entities of a dump belong to the library's
// exported surface. A nil filter keeps everything.
type exportFilter struct {
	// symbols is the version script surface; nil when no script was given.
	symbols *versionscript.SymbolSet

	// headerDirs are cleaned exported include directories.
	headerDirs []string

	// keepAll disables filtering of types, functions and variables. The
	// version script still supplies the ELF tables.
	keepAll bool
}

func newExportFilter(symbols *versionscript.SymbolSet, headerDirs []string, keepAll bool) *exportFilter {
	f := &exportFilter{symbols: symbols, keepAll: keepAll}
	for _, d := range headerDirs {
		f.headerDirs = append(f.headerDirs, filepath.Clean(d))
	}
	return f
}

// exportedHeader reports whether source lies under an exported include
// directory. Entities without a source file, such as builtins, always pass.
func (f *exportFilter) exportedHeader(source string) bool {
	if f == nil || f.keepAll || len(f.headerDirs) == 0 || source == "" {
		return true
	}
	source = filepath.Clean(source)
	for _, dir := range f.headerDirs {
		if source == dir || strings.HasPrefix(source, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (f *exportFilter) exportedSymbol(key, demangled string) bool {
	if f == nil || f.keepAll || f.symbols == nil {
		return true
	}
	return f.symbols.HasSymbol(key) || f.symbols.HasDemangled(demangled)
}

func (f *exportFilter) keepType(info *ir.TypeInfo) bool {
	return f.exportedHeader(info.SourceFile)
}

func (f *exportFilter) keepFunction(fn *ir.Function) bool {
	return f.exportedHeader(fn.SourceFile) && f.exportedSymbol(fn.LinkerSetKey, fn.Name)
}

func (f *exportFilter) keepGlobalVar(v *ir.GlobalVar) bool {
	return f.exportedHeader(v.SourceFile) && f.exportedSymbol(v.LinkerSetKey, v.Name)
}

// useInputElf reports whether the output ELF tables are the union of the
// inputs' tables.
func (f *exportFilter) useInputElf() bool {
	return f == nil || f.symbols == nil
}
