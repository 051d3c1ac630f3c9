package versionscript

import (
	"maps"
	"slices"

	"github.com/roach88/headercheck/internal/ir"
)

// Filter selects the symbols exported for one build configuration.
type Filter struct {
	Arch string
	API  APILevel

	// ExcludedVersions are patterns matched against version block names.
	ExcludedVersions []string

	// ExcludedTags drop any symbol or block carrying one of them.
	ExcludedTags []string
}

// Exported reports whether a line with tags is part of the ABI surface.
func (f Filter) Exported(tags Tags) (bool, error) {
	for _, tag := range f.ExcludedTags {
		if tags.Has(tag) {
			return false, nil
		}
	}
	if !tags.SatisfiesArch(f.Arch) {
		return false, nil
	}
	if tags.Has("future") && f.API != FutureAPILevel {
		return false, nil
	}
	level, ok, err := tags.Introduced(f.Arch)
	if err != nil {
		return false, err
	}
	if ok && level > f.API {
		return false, nil
	}
	return true, nil
}

// excludesVersion reports whether a version block is dropped wholesale.
func (f Filter) excludesVersion(name string) bool {
	return matchAny(f.ExcludedVersions, name)
}

// SymbolSet is the result of parsing a version script.
type SymbolSet struct {
	functions map[string]*ir.ElfSymbol
	vars      map[string]*ir.ElfSymbol

	// Wildcard entries from global scope.
	globFunctions []string
	globVars      []string

	// Demangled-name patterns from extern "C++" blocks.
	cppPatterns []string
}

func newSymbolSet() *SymbolSet {
	return &SymbolSet{
		functions: make(map[string]*ir.ElfSymbol),
		vars:      make(map[string]*ir.ElfSymbol),
	}
}

func (s *SymbolSet) add(name string, tags Tags) {
	binding := ir.BindingGlobal
	if tags.IsWeak() {
		binding = ir.BindingWeak
	}
	if tags.IsVar() {
		if _, dup := s.vars[name]; !dup {
			s.vars[name] = &ir.ElfSymbol{Name: name, Kind: ir.ElfObjectKind, Binding: binding}
		}
		return
	}
	if _, dup := s.functions[name]; !dup {
		s.functions[name] = &ir.ElfSymbol{Name: name, Kind: ir.ElfFunctionKind, Binding: binding}
	}
}

func (s *SymbolSet) addGlob(pattern string, tags Tags) {
	if tags.IsVar() {
		s.globVars = append(s.globVars, pattern)
		return
	}
	s.globFunctions = append(s.globFunctions, pattern)
}

// Functions returns the exported function symbols sorted by name.
func (s *SymbolSet) Functions() []*ir.ElfSymbol {
	return sortedSymbols(s.functions)
}

// Vars returns the exported object symbols sorted by name.
func (s *SymbolSet) Vars() []*ir.ElfSymbol {
	return sortedSymbols(s.vars)
}

// Patterns returns the wildcard and extern "C++" patterns.
func (s *SymbolSet) Patterns() []string {
	return slices.Concat(s.globFunctions, s.globVars, s.cppPatterns)
}

// Len is the number of named (non-pattern) symbols.
func (s *SymbolSet) Len() int {
	return len(s.functions) + len(s.vars)
}

// HasSymbol reports whether a mangled or C symbol name is exported, either
// by name or through a global wildcard.
func (s *SymbolSet) HasSymbol(name string) bool {
	if _, ok := s.functions[name]; ok {
		return true
	}
	if _, ok := s.vars[name]; ok {
		return true
	}
	return matchAny(s.globFunctions, name) || matchAny(s.globVars, name)
}

// HasDemangled reports whether a demangled C++ name matches an
// extern "C++" pattern.
func (s *SymbolSet) HasDemangled(name string) bool {
	return name != "" && matchAny(s.cppPatterns, name)
}

func sortedSymbols(m map[string]*ir.ElfSymbol) []*ir.ElfSymbol {
	out := make([]*ir.ElfSymbol, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}
