package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/headercheck/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	List     string
	Expected string
	Actual   []string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s %s: expected %s, got [%s]",
		e.Type, e.List, e.Expected, strings.Join(e.Actual, ", "))
}

// reportList extracts the keys of one list of a diff report.
type reportList struct {
	name string
	keys func(r *ir.DiffReport) []string
}

// reportLists is in report field order.
var reportLists = []reportList{
	{"record_type_diffs", func(r *ir.DiffReport) []string { return recordKeys(r.RecordTypeDiffs) }},
	{"unreferenced_record_type_diffs", func(r *ir.DiffReport) []string { return recordKeys(r.UnreferencedRecordTypeDiffs) }},
	{"enum_type_diffs", func(r *ir.DiffReport) []string { return enumKeys(r.EnumTypeDiffs) }},
	{"enum_type_extension_diffs", func(r *ir.DiffReport) []string { return enumKeys(r.EnumTypeExtensionDiffs) }},
	{"unreferenced_enum_type_diffs", func(r *ir.DiffReport) []string { return enumKeys(r.UnreferencedEnumTypeDiffs) }},
	{"unreferenced_enum_type_extension_diffs", func(r *ir.DiffReport) []string {
		return enumKeys(r.UnreferencedEnumTypeExtensionDiffs)
	}},
	{"function_diffs", func(r *ir.DiffReport) []string {
		return collect(r.FunctionDiffs, func(d *ir.FunctionDiff) string { return d.Name })
	}},
	{"global_var_diffs", func(r *ir.DiffReport) []string {
		return collect(r.GlobalVarDiffs, func(d *ir.GlobalVarDiff) string { return d.Name })
	}},
	{"functions_removed", func(r *ir.DiffReport) []string { return collect(r.FunctionsRemoved, functionKey) }},
	{"functions_added", func(r *ir.DiffReport) []string { return collect(r.FunctionsAdded, functionKey) }},
	{"global_vars_removed", func(r *ir.DiffReport) []string { return collect(r.GlobalVarsRemoved, varKey) }},
	{"global_vars_added", func(r *ir.DiffReport) []string { return collect(r.GlobalVarsAdded, varKey) }},
	{"unreferenced_record_types_removed", func(r *ir.DiffReport) []string {
		return collect(r.UnreferencedRecordTypesRemoved, func(t *ir.RecordType) string { return t.LinkerSetKey })
	}},
	{"unreferenced_record_types_added", func(r *ir.DiffReport) []string {
		return collect(r.UnreferencedRecordTypesAdded, func(t *ir.RecordType) string { return t.LinkerSetKey })
	}},
	{"unreferenced_enum_types_removed", func(r *ir.DiffReport) []string {
		return collect(r.UnreferencedEnumTypesRemoved, func(t *ir.EnumType) string { return t.LinkerSetKey })
	}},
	{"unreferenced_enum_types_added", func(r *ir.DiffReport) []string {
		return collect(r.UnreferencedEnumTypesAdded, func(t *ir.EnumType) string { return t.LinkerSetKey })
	}},
	{"removed_elf_functions", func(r *ir.DiffReport) []string { return collect(r.RemovedElfFunctions, elfName) }},
	{"added_elf_functions", func(r *ir.DiffReport) []string { return collect(r.AddedElfFunctions, elfName) }},
	{"removed_elf_objects", func(r *ir.DiffReport) []string { return collect(r.RemovedElfObjects, elfName) }},
	{"added_elf_objects", func(r *ir.DiffReport) []string { return collect(r.AddedElfObjects, elfName) }},
}

func findList(name string) (reportList, bool) {
	for _, l := range reportLists {
		if l.name == name {
			return l, true
		}
	}
	return reportList{}, false
}

func collect[T any](items []T, key func(T) string) []string {
	var out []string
	for _, it := range items {
		out = append(out, key(it))
	}
	return out
}

func recordKeys(ds []*ir.RecordTypeDiff) []string {
	return collect(ds, func(d *ir.RecordTypeDiff) string { return keyOrName(d.LinkerSetKey, d.Name) })
}

func enumKeys(ds []*ir.EnumTypeDiff) []string {
	return collect(ds, func(d *ir.EnumTypeDiff) string { return keyOrName(d.LinkerSetKey, d.Name) })
}

func keyOrName(key, name string) string {
	if key != "" {
		return key
	}
	return name
}

func functionKey(f *ir.Function) string { return f.LinkerSetKey }
func varKey(v *ir.GlobalVar) string     { return v.LinkerSetKey }
func elfName(s *ir.ElfSymbol) string    { return s.Name }

// checkAssertion evaluates one assertion against the report.
func checkAssertion(r *ir.DiffReport, a Assertion) error {
	l, ok := findList(a.List)
	if !ok {
		return fmt.Errorf("unknown report list %q", a.List)
	}
	actual := l.keys(r)

	switch a.Type {
	case AssertReportContains:
		for _, k := range a.Keys {
			if !slices.Contains(actual, k) {
				return &AssertionError{Type: a.Type, List: a.List, Expected: fmt.Sprintf("%q present", k), Actual: actual}
			}
		}
	case AssertReportAbsent:
		for _, k := range a.Keys {
			if slices.Contains(actual, k) {
				return &AssertionError{Type: a.Type, List: a.List, Expected: fmt.Sprintf("%q absent", k), Actual: actual}
			}
		}
	case AssertReportCount:
		if len(actual) != a.Count {
			return &AssertionError{Type: a.Type, List: a.List, Expected: fmt.Sprintf("%d entries", a.Count), Actual: actual}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
