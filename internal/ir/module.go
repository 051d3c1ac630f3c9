package ir

import "sort"

// Module owns every IR node of one translation unit or library.
// Each category is keyed by linker_set_key; keys are unique per category.
type Module struct {
	types        map[string]TypeIR
	functions    map[string]*Function
	globalVars   map[string]*GlobalVar
	elfFunctions map[string]*ElfSymbol
	elfObjects   map[string]*ElfSymbol
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{
		types:        make(map[string]TypeIR),
		functions:    make(map[string]*Function),
		globalVars:   make(map[string]*GlobalVar),
		elfFunctions: make(map[string]*ElfSymbol),
		elfObjects:   make(map[string]*ElfSymbol),
	}
}

// AddType inserts t under its linker_set_key.
// Returns a DUPLICATE_KEY KeyError if the key is already taken.
func (m *Module) AddType(t TypeIR) error {
	key := t.Info().LinkerSetKey
	if _, ok := m.types[key]; ok {
		return &KeyError{Code: ErrCodeDuplicateKey, Category: "type", Key: key}
	}
	m.types[key] = t
	return nil
}

func (m *Module) AddFunction(f *Function) error {
	if _, ok := m.functions[f.LinkerSetKey]; ok {
		return &KeyError{Code: ErrCodeDuplicateKey, Category: "function", Key: f.LinkerSetKey}
	}
	m.functions[f.LinkerSetKey] = f
	return nil
}

func (m *Module) AddGlobalVar(v *GlobalVar) error {
	if _, ok := m.globalVars[v.LinkerSetKey]; ok {
		return &KeyError{Code: ErrCodeDuplicateKey, Category: "global_var", Key: v.LinkerSetKey}
	}
	m.globalVars[v.LinkerSetKey] = v
	return nil
}

// AddElfSymbol inserts s into the ELF function or object table by its kind.
func (m *Module) AddElfSymbol(s *ElfSymbol) error {
	table, category := m.elfFunctions, "elf_function"
	if s.Kind == ElfObjectKind {
		table, category = m.elfObjects, "elf_object"
	}
	if _, ok := table[s.Name]; ok {
		return &KeyError{Code: ErrCodeDuplicateKey, Category: category, Key: s.Name}
	}
	table[s.Name] = s
	return nil
}

// LookupType returns the type stored under key.
func (m *Module) LookupType(key string) (TypeIR, bool) {
	t, ok := m.types[key]
	return t, ok
}

// Type is LookupType that fails closed with an UNKNOWN_KEY KeyError.
func (m *Module) Type(key string) (TypeIR, error) {
	t, ok := m.types[key]
	if !ok {
		return nil, &KeyError{Code: ErrCodeUnknownKey, Category: "type", Key: key}
	}
	return t, nil
}

func (m *Module) LookupFunction(key string) (*Function, bool) {
	f, ok := m.functions[key]
	return f, ok
}

func (m *Module) LookupGlobalVar(key string) (*GlobalVar, bool) {
	v, ok := m.globalVars[key]
	return v, ok
}

func (m *Module) LookupElfFunction(name string) (*ElfSymbol, bool) {
	s, ok := m.elfFunctions[name]
	return s, ok
}

func (m *Module) LookupElfObject(name string) (*ElfSymbol, bool) {
	s, ok := m.elfObjects[name]
	return s, ok
}

// Types returns every type sorted by linker_set_key.
func (m *Module) Types() []TypeIR {
	return sortedValues(m.types)
}

// TypesOfKind returns the types of one variant sorted by linker_set_key.
func (m *Module) TypesOfKind(kind TypeKind) []TypeIR {
	var out []TypeIR
	for _, t := range m.Types() {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

func (m *Module) RecordTypes() []*RecordType {
	var out []*RecordType
	for _, t := range m.TypesOfKind(RecordTypeKind) {
		out = append(out, t.(*RecordType))
	}
	return out
}

func (m *Module) EnumTypes() []*EnumType {
	var out []*EnumType
	for _, t := range m.TypesOfKind(EnumTypeKind) {
		out = append(out, t.(*EnumType))
	}
	return out
}

func (m *Module) Functions() []*Function {
	return sortedValues(m.functions)
}

func (m *Module) GlobalVars() []*GlobalVar {
	return sortedValues(m.globalVars)
}

func (m *Module) ElfFunctions() []*ElfSymbol {
	return sortedValues(m.elfFunctions)
}

func (m *Module) ElfObjects() []*ElfSymbol {
	return sortedValues(m.elfObjects)
}

// LinkableMessages returns functions, global variables, records and enums,
// each group sorted by key.
func (m *Module) LinkableMessages() []LinkableMessage {
	var out []LinkableMessage
	for _, f := range m.Functions() {
		out = append(out, f)
	}
	for _, v := range m.GlobalVars() {
		out = append(out, v)
	}
	for _, r := range m.RecordTypes() {
		out = append(out, r)
	}
	for _, e := range m.EnumTypes() {
		out = append(out, e)
	}
	return out
}

// Counts summarizes the size of each table.
type Counts struct {
	Types        int `json:"types"`
	Functions    int `json:"functions"`
	GlobalVars   int `json:"global_vars"`
	ElfFunctions int `json:"elf_functions"`
	ElfObjects   int `json:"elf_objects"`
}

func (m *Module) Counts() Counts {
	return Counts{
		Types:        len(m.types),
		Functions:    len(m.functions),
		GlobalVars:   len(m.globalVars),
		ElfFunctions: len(m.elfFunctions),
		ElfObjects:   len(m.elfObjects),
	}
}

func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
