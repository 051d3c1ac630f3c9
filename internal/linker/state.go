package linker

import (
	"fmt"
	"log/slog"

	"github.com/roach88/headercheck/internal/engine"
	"github.com/roach88/headercheck/internal/ir"
)

// ODRWarning records a key defined differently by two dumps.
type ODRWarning struct {
	Category  string `json:"category"`
	Key       string `json:"key"`
	First     string `json:"first"`
	Duplicate string `json:"duplicate"`
}

func (w ODRWarning) String() string {
	return fmt.Sprintf("%s %q defined differently in %s and %s", w.Category, w.Key, w.First, w.Duplicate)
}

// origin is the dump a kept entity came from.
type origin struct {
	path   string
	module *ir.Module
}

// LinkerState accumulates the merged module. Each category tracks the keys
// already written and where they came from.
type LinkerState struct {
	out *ir.Module

	types        map[string]origin
	functions    map[string]origin
	globalVars   map[string]origin
	elfFunctions map[string]origin
	elfObjects   map[string]origin

	warnings []ODRWarning
}

func NewLinkerState() *LinkerState {
	return &LinkerState{
		out:          ir.NewModule(),
		types:        make(map[string]origin),
		functions:    make(map[string]origin),
		globalVars:   make(map[string]origin),
		elfFunctions: make(map[string]origin),
		elfObjects:   make(map[string]origin),
	}
}

// Module returns the merged module.
func (s *LinkerState) Module() *ir.Module {
	return s.out
}

// Warnings returns the ODR warnings in the order they were found.
func (s *LinkerState) Warnings() []ODRWarning {
	return s.warnings
}

// AddModule folds one dump into the state. Entities rejected by f are
// skipped; f may be nil to keep everything.
func (s *LinkerState) AddModule(path string, m *ir.Module, f *exportFilter) error {
	src := origin{path: path, module: m}

	for _, t := range m.Types() {
		info := t.Info()
		if !f.keepType(info) {
			continue
		}
		if first, dup := s.types[info.LinkerSetKey]; dup {
			s.checkType(first, src, info.LinkerSetKey)
			continue
		}
		if err := s.out.AddType(t); err != nil {
			return err
		}
		s.types[info.LinkerSetKey] = src
	}

	for _, fn := range m.Functions() {
		if !f.keepFunction(fn) {
			continue
		}
		if first, dup := s.functions[fn.LinkerSetKey]; dup {
			s.checkFunction(first, src, fn)
			continue
		}
		if err := s.out.AddFunction(fn); err != nil {
			return err
		}
		s.functions[fn.LinkerSetKey] = src
	}

	for _, v := range m.GlobalVars() {
		if !f.keepGlobalVar(v) {
			continue
		}
		if first, dup := s.globalVars[v.LinkerSetKey]; dup {
			s.checkGlobalVar(first, src, v)
			continue
		}
		if err := s.out.AddGlobalVar(v); err != nil {
			return err
		}
		s.globalVars[v.LinkerSetKey] = src
	}

	if f.useInputElf() {
		if err := s.addElfSymbols(src, m.ElfFunctions(), s.elfFunctions); err != nil {
			return err
		}
		if err := s.addElfSymbols(src, m.ElfObjects(), s.elfObjects); err != nil {
			return err
		}
	}
	return nil
}

// AddElfSymbols writes symbols that do not come from a dump, such as the
// exported set of a version script.
func (s *LinkerState) AddElfSymbols(source string, syms []*ir.ElfSymbol) error {
	src := origin{path: source}
	for _, sym := range syms {
		seen := s.elfFunctions
		if sym.Kind == ir.ElfObjectKind {
			seen = s.elfObjects
		}
		if err := s.addElfSymbols(src, []*ir.ElfSymbol{sym}, seen); err != nil {
			return err
		}
	}
	return nil
}

func (s *LinkerState) addElfSymbols(src origin, syms []*ir.ElfSymbol, seen map[string]origin) error {
	for _, sym := range syms {
		if first, dup := seen[sym.Name]; dup {
			kept, _ := s.lookupElf(sym)
			if kept != nil && kept.Binding != sym.Binding {
				s.warn("elf_symbol", sym.Name, first, src)
			}
			continue
		}
		if err := s.out.AddElfSymbol(sym); err != nil {
			return err
		}
		seen[sym.Name] = src
	}
	return nil
}

func (s *LinkerState) lookupElf(sym *ir.ElfSymbol) (*ir.ElfSymbol, bool) {
	if sym.Kind == ir.ElfObjectKind {
		return s.out.LookupElfObject(sym.Name)
	}
	return s.out.LookupElfFunction(sym.Name)
}

// checkType compares a discarded type definition with the kept one. Types
// referenced by either side may live only in their own dump, so unresolved
// keys are compared by key.
func (s *LinkerState) checkType(first, dup origin, key string) {
	d := engine.New(first.module, dup.module, engine.WithAllowUnresolved(true))
	status, err := d.CompareTypes(key, key, ir.Referenced)
	if err != nil || status.HasDiff() {
		s.warn("type", key, first, dup)
	}
}

func (s *LinkerState) checkFunction(first, dup origin, fn *ir.Function) {
	kept, _ := s.out.LookupFunction(fn.LinkerSetKey)
	d := engine.New(first.module, dup.module, engine.WithAllowUnresolved(true))
	status, err := d.CompareFunctions(kept, fn)
	if err != nil || status.HasDiff() {
		s.warn("function", fn.LinkerSetKey, first, dup)
	}
}

func (s *LinkerState) checkGlobalVar(first, dup origin, v *ir.GlobalVar) {
	kept, _ := s.out.LookupGlobalVar(v.LinkerSetKey)
	d := engine.New(first.module, dup.module, engine.WithAllowUnresolved(true))
	status, err := d.CompareGlobalVars(kept, v)
	if err != nil || status.HasDiff() {
		s.warn("global_var", v.LinkerSetKey, first, dup)
	}
}

func (s *LinkerState) warn(category, key string, first, dup origin) {
	w := ODRWarning{Category: category, Key: key, First: first.path, Duplicate: dup.path}
	slog.Warn("ODR violation", "category", category, "key", key, "first", first.path, "duplicate", dup.path)
	s.warnings = append(s.warnings, w)
}
