package checker

import (
	"maps"
	"slices"

	"github.com/roach88/headercheck/internal/ir"
)

// withTypeNames copies f with its type keys replaced by readable names, the
// way added and removed entries are presented in a report.
func withTypeNames(m *ir.Module, f *ir.Function) *ir.Function {
	out := *f
	out.ReturnType = nameOf(m, f.ReturnType)
	out.Parameters = make([]ir.Parameter, len(f.Parameters))
	for i, p := range f.Parameters {
		p.ReferencedType = nameOf(m, p.ReferencedType)
		out.Parameters[i] = p
	}
	if len(f.TemplateArgs) > 0 {
		out.TemplateArgs = make([]string, len(f.TemplateArgs))
		for i, a := range f.TemplateArgs {
			out.TemplateArgs[i] = nameOf(m, a)
		}
	}
	if len(out.Parameters) == 0 {
		out.Parameters = nil
	}
	return &out
}

func varWithTypeNames(m *ir.Module, v *ir.GlobalVar) *ir.GlobalVar {
	out := *v
	out.ReferencedType = nameOf(m, v.ReferencedType)
	return &out
}

func nameOf(m *ir.Module, key string) string {
	if t, ok := m.LookupType(key); ok && t.Info().Name != "" {
		return t.Info().Name
	}
	return key
}

func namedRecords(m *ir.Module) map[string]*ir.RecordType {
	out := make(map[string]*ir.RecordType)
	for _, r := range m.RecordTypes() {
		if !r.IsAnonymous {
			out[r.LinkerSetKey] = r
		}
	}
	return out
}

func enumsByKey(m *ir.Module) map[string]*ir.EnumType {
	out := make(map[string]*ir.EnumType)
	for _, e := range m.EnumTypes() {
		out[e.LinkerSetKey] = e
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
