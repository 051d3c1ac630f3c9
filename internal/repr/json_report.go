package repr

import (
	"fmt"

	"github.com/roach88/headercheck/internal/ir"
)

type jsonSizeAlign struct {
	Size      uint64 `json:"size"`
	Alignment uint64 `json:"alignment"`
}

type jsonTypeInfoDiff struct {
	OldTypeInfo jsonSizeAlign `json:"old_type_info"`
	NewTypeInfo jsonSizeAlign `json:"new_type_info"`
}

type jsonAccessDiff struct {
	OldAccess string `json:"old_access"`
	NewAccess string `json:"new_access"`
}

type jsonVTableDiff struct {
	OldVTable []jsonVTableComponent `json:"old_vtable,omitempty"`
	NewVTable []jsonVTableComponent `json:"new_vtable,omitempty"`
}

type jsonBasesDiff struct {
	OldBases []jsonBaseSpecifier `json:"old_bases,omitempty"`
	NewBases []jsonBaseSpecifier `json:"new_bases,omitempty"`
}

type jsonFieldDiff struct {
	OldField jsonRecordField `json:"old_field"`
	NewField jsonRecordField `json:"new_field"`
}

type jsonRecordDiff struct {
	Name             string            `json:"name"`
	LinkerSetKey     string            `json:"linker_set_key,omitempty"`
	TypeStack        string            `json:"type_stack"`
	TypeInfoDiff     *jsonTypeInfoDiff `json:"type_info_diff,omitempty"`
	AccessDiff       *jsonAccessDiff   `json:"access_diff,omitempty"`
	VTableLayoutDiff *jsonVTableDiff   `json:"vtable_layout_diff,omitempty"`
	BasesDiff        *jsonBasesDiff    `json:"bases_diff,omitempty"`
	FieldsRemoved    []jsonRecordField `json:"fields_removed,omitempty"`
	FieldsAdded      []jsonRecordField `json:"fields_added,omitempty"`
	FieldsDiff       []jsonFieldDiff   `json:"fields_diff,omitempty"`
}

type jsonUnderlyingTypeDiff struct {
	OldType string `json:"old_type"`
	NewType string `json:"new_type"`
}

type jsonEnumFieldDiff struct {
	OldField jsonEnumField `json:"old_field"`
	NewField jsonEnumField `json:"new_field"`
}

type jsonEnumDiff struct {
	Name               string                  `json:"name"`
	LinkerSetKey       string                  `json:"linker_set_key,omitempty"`
	TypeStack          string                  `json:"type_stack"`
	UnderlyingTypeDiff *jsonUnderlyingTypeDiff `json:"underlying_type_diff,omitempty"`
	FieldsRemoved      []jsonEnumField         `json:"fields_removed,omitempty"`
	FieldsAdded        []jsonEnumField         `json:"fields_added,omitempty"`
	FieldsDiff         []jsonEnumFieldDiff     `json:"fields_diff,omitempty"`
}

type jsonFunctionDiff struct {
	Name string       `json:"name"`
	Old  jsonFunction `json:"old"`
	New  jsonFunction `json:"new"`
}

type jsonGlobalVarDiff struct {
	Name string        `json:"name"`
	Old  jsonGlobalVar `json:"old"`
	New  jsonGlobalVar `json:"new"`
}

type jsonReport struct {
	LibName                            string              `json:"lib_name"`
	Arch                               string              `json:"arch"`
	CompatibilityStatus                string              `json:"compatibility_status"`
	RecordTypeDiffs                    []jsonRecordDiff    `json:"record_type_diffs,omitempty"`
	EnumTypeDiffs                      []jsonEnumDiff      `json:"enum_type_diffs,omitempty"`
	EnumTypeExtensionDiffs             []jsonEnumDiff      `json:"enum_type_extension_diffs,omitempty"`
	FunctionDiffs                      []jsonFunctionDiff  `json:"function_diffs,omitempty"`
	GlobalVarDiffs                     []jsonGlobalVarDiff `json:"global_var_diffs,omitempty"`
	FunctionsRemoved                   []jsonFunction      `json:"functions_removed,omitempty"`
	GlobalVarsRemoved                  []jsonGlobalVar     `json:"global_vars_removed,omitempty"`
	FunctionsAdded                     []jsonFunction      `json:"functions_added,omitempty"`
	GlobalVarsAdded                    []jsonGlobalVar     `json:"global_vars_added,omitempty"`
	UnreferencedRecordTypeDiffs        []jsonRecordDiff    `json:"unreferenced_record_type_diffs,omitempty"`
	UnreferencedEnumTypeDiffs          []jsonEnumDiff      `json:"unreferenced_enum_type_diffs,omitempty"`
	UnreferencedEnumTypeExtensionDiffs []jsonEnumDiff      `json:"unreferenced_enum_type_extension_diffs,omitempty"`
	UnreferencedRecordTypesRemoved     []jsonRecordType    `json:"unreferenced_record_types_removed,omitempty"`
	UnreferencedRecordTypesAdded       []jsonRecordType    `json:"unreferenced_record_types_added,omitempty"`
	UnreferencedEnumTypesRemoved       []jsonEnumType      `json:"unreferenced_enum_types_removed,omitempty"`
	UnreferencedEnumTypesAdded         []jsonEnumType      `json:"unreferenced_enum_types_added,omitempty"`
	RemovedElfFunctions                []jsonElfSymbol     `json:"removed_elf_functions,omitempty"`
	AddedElfFunctions                  []jsonElfSymbol     `json:"added_elf_functions,omitempty"`
	RemovedElfObjects                  []jsonElfSymbol     `json:"removed_elf_objects,omitempty"`
	AddedElfObjects                    []jsonElfSymbol     `json:"added_elf_objects,omitempty"`
}

func toJSONRecordDiff(d *ir.RecordTypeDiff) jsonRecordDiff {
	j := jsonRecordDiff{Name: d.Name, LinkerSetKey: d.LinkerSetKey, TypeStack: d.TypeStack}
	if t := d.TypeInfoDiff; t != nil {
		j.TypeInfoDiff = &jsonTypeInfoDiff{
			OldTypeInfo: jsonSizeAlign{Size: t.OldSize, Alignment: t.OldAlignment},
			NewTypeInfo: jsonSizeAlign{Size: t.NewSize, Alignment: t.NewAlignment},
		}
	}
	if a := d.AccessDiff; a != nil {
		j.AccessDiff = &jsonAccessDiff{OldAccess: accessJSON.mustEncode(a.Old), NewAccess: accessJSON.mustEncode(a.New)}
	}
	if v := d.VTableDiff; v != nil {
		j.VTableLayoutDiff = &jsonVTableDiff{OldVTable: toJSONVTable(v.Old), NewVTable: toJSONVTable(v.New)}
	}
	if b := d.BasesDiff; b != nil {
		j.BasesDiff = &jsonBasesDiff{}
		for _, base := range b.Old {
			j.BasesDiff.OldBases = append(j.BasesDiff.OldBases, toJSONBase(base))
		}
		for _, base := range b.New {
			j.BasesDiff.NewBases = append(j.BasesDiff.NewBases, toJSONBase(base))
		}
	}
	for _, f := range d.FieldsRemoved {
		j.FieldsRemoved = append(j.FieldsRemoved, toJSONField(f))
	}
	for _, f := range d.FieldsAdded {
		j.FieldsAdded = append(j.FieldsAdded, toJSONField(f))
	}
	for _, fd := range d.FieldDiffs {
		j.FieldsDiff = append(j.FieldsDiff, jsonFieldDiff{OldField: toJSONField(fd.Old), NewField: toJSONField(fd.New)})
	}
	return j
}

func fromJSONRecordDiff(j jsonRecordDiff) (*ir.RecordTypeDiff, error) {
	d := &ir.RecordTypeDiff{Name: j.Name, LinkerSetKey: j.LinkerSetKey, TypeStack: j.TypeStack}
	if t := j.TypeInfoDiff; t != nil {
		d.TypeInfoDiff = &ir.TypeInfoDiff{
			OldSize: t.OldTypeInfo.Size, OldAlignment: t.OldTypeInfo.Alignment,
			NewSize: t.NewTypeInfo.Size, NewAlignment: t.NewTypeInfo.Alignment,
		}
	}
	if a := j.AccessDiff; a != nil {
		oldAccess, err := jsonDecodeEnum(a.OldAccess, accessJSON)
		if err != nil {
			return nil, err
		}
		newAccess, err := jsonDecodeEnum(a.NewAccess, accessJSON)
		if err != nil {
			return nil, err
		}
		d.AccessDiff = &ir.AccessDiff{Old: oldAccess, New: newAccess}
	}
	if v := j.VTableLayoutDiff; v != nil {
		oldVT, err := fromJSONVTable(v.OldVTable)
		if err != nil {
			return nil, err
		}
		newVT, err := fromJSONVTable(v.NewVTable)
		if err != nil {
			return nil, err
		}
		d.VTableDiff = &ir.VTableDiff{Old: oldVT, New: newVT}
	}
	if b := j.BasesDiff; b != nil {
		d.BasesDiff = &ir.BasesDiff{}
		for _, jb := range b.OldBases {
			base, err := fromJSONBase(jb)
			if err != nil {
				return nil, err
			}
			d.BasesDiff.Old = append(d.BasesDiff.Old, base)
		}
		for _, jb := range b.NewBases {
			base, err := fromJSONBase(jb)
			if err != nil {
				return nil, err
			}
			d.BasesDiff.New = append(d.BasesDiff.New, base)
		}
	}
	for _, jf := range j.FieldsRemoved {
		f, err := fromJSONField(jf)
		if err != nil {
			return nil, err
		}
		d.FieldsRemoved = append(d.FieldsRemoved, f)
	}
	for _, jf := range j.FieldsAdded {
		f, err := fromJSONField(jf)
		if err != nil {
			return nil, err
		}
		d.FieldsAdded = append(d.FieldsAdded, f)
	}
	for _, jfd := range j.FieldsDiff {
		oldField, err := fromJSONField(jfd.OldField)
		if err != nil {
			return nil, err
		}
		newField, err := fromJSONField(jfd.NewField)
		if err != nil {
			return nil, err
		}
		d.FieldDiffs = append(d.FieldDiffs, ir.FieldDiff{Old: oldField, New: newField})
	}
	return d, nil
}

func toJSONEnumDiff(d *ir.EnumTypeDiff) jsonEnumDiff {
	j := jsonEnumDiff{
		Name:          d.Name,
		LinkerSetKey:  d.LinkerSetKey,
		TypeStack:     d.TypeStack,
		FieldsRemoved: toJSONEnumFields(d.FieldsRemoved),
		FieldsAdded:   toJSONEnumFields(d.FieldsAdded),
	}
	if u := d.UnderlyingTypeDiff; u != nil {
		j.UnderlyingTypeDiff = &jsonUnderlyingTypeDiff{OldType: u.Old, NewType: u.New}
	}
	for _, fd := range d.FieldDiffs {
		j.FieldsDiff = append(j.FieldsDiff, jsonEnumFieldDiff{
			OldField: jsonEnumField{Name: fd.Old.Name, EnumFieldValue: fd.Old.Value},
			NewField: jsonEnumField{Name: fd.New.Name, EnumFieldValue: fd.New.Value},
		})
	}
	return j
}

func fromJSONEnumDiff(j jsonEnumDiff) *ir.EnumTypeDiff {
	d := &ir.EnumTypeDiff{
		Name:          j.Name,
		LinkerSetKey:  j.LinkerSetKey,
		TypeStack:     j.TypeStack,
		FieldsRemoved: fromJSONEnumFields(j.FieldsRemoved),
		FieldsAdded:   fromJSONEnumFields(j.FieldsAdded),
	}
	if u := j.UnderlyingTypeDiff; u != nil {
		d.UnderlyingTypeDiff = &ir.UnderlyingTypeDiff{Old: u.OldType, New: u.NewType}
	}
	for _, fd := range j.FieldsDiff {
		d.FieldDiffs = append(d.FieldDiffs, ir.EnumFieldDiff{
			Old: ir.EnumField{Name: fd.OldField.Name, Value: fd.OldField.EnumFieldValue},
			New: ir.EnumField{Name: fd.NewField.Name, Value: fd.NewField.EnumFieldValue},
		})
	}
	return d
}

func toJSONReport(r *ir.DiffReport) *jsonReport {
	j := &jsonReport{LibName: r.LibName, Arch: r.Arch, CompatibilityStatus: r.Status.String()}
	for _, d := range r.RecordTypeDiffs {
		j.RecordTypeDiffs = append(j.RecordTypeDiffs, toJSONRecordDiff(d))
	}
	for _, d := range r.UnreferencedRecordTypeDiffs {
		j.UnreferencedRecordTypeDiffs = append(j.UnreferencedRecordTypeDiffs, toJSONRecordDiff(d))
	}
	enumDiffs := func(ds []*ir.EnumTypeDiff) []jsonEnumDiff {
		var out []jsonEnumDiff
		for _, d := range ds {
			out = append(out, toJSONEnumDiff(d))
		}
		return out
	}
	j.EnumTypeDiffs = enumDiffs(r.EnumTypeDiffs)
	j.EnumTypeExtensionDiffs = enumDiffs(r.EnumTypeExtensionDiffs)
	j.UnreferencedEnumTypeDiffs = enumDiffs(r.UnreferencedEnumTypeDiffs)
	j.UnreferencedEnumTypeExtensionDiffs = enumDiffs(r.UnreferencedEnumTypeExtensionDiffs)
	for _, d := range r.FunctionDiffs {
		j.FunctionDiffs = append(j.FunctionDiffs, jsonFunctionDiff{Name: d.Name, Old: toJSONFunction(d.Old), New: toJSONFunction(d.New)})
	}
	for _, d := range r.GlobalVarDiffs {
		j.GlobalVarDiffs = append(j.GlobalVarDiffs, jsonGlobalVarDiff{Name: d.Name, Old: toJSONGlobalVar(d.Old), New: toJSONGlobalVar(d.New)})
	}
	functions := func(fs []*ir.Function) []jsonFunction {
		var out []jsonFunction
		for _, f := range fs {
			out = append(out, toJSONFunction(f))
		}
		return out
	}
	vars := func(vs []*ir.GlobalVar) []jsonGlobalVar {
		var out []jsonGlobalVar
		for _, v := range vs {
			out = append(out, toJSONGlobalVar(v))
		}
		return out
	}
	j.FunctionsRemoved = functions(r.FunctionsRemoved)
	j.FunctionsAdded = functions(r.FunctionsAdded)
	j.GlobalVarsRemoved = vars(r.GlobalVarsRemoved)
	j.GlobalVarsAdded = vars(r.GlobalVarsAdded)
	for _, t := range r.UnreferencedRecordTypesRemoved {
		j.UnreferencedRecordTypesRemoved = append(j.UnreferencedRecordTypesRemoved, toJSONRecord(t))
	}
	for _, t := range r.UnreferencedRecordTypesAdded {
		j.UnreferencedRecordTypesAdded = append(j.UnreferencedRecordTypesAdded, toJSONRecord(t))
	}
	for _, t := range r.UnreferencedEnumTypesRemoved {
		j.UnreferencedEnumTypesRemoved = append(j.UnreferencedEnumTypesRemoved, toJSONEnum(t))
	}
	for _, t := range r.UnreferencedEnumTypesAdded {
		j.UnreferencedEnumTypesAdded = append(j.UnreferencedEnumTypesAdded, toJSONEnum(t))
	}
	elfs := func(ss []*ir.ElfSymbol) []jsonElfSymbol {
		var out []jsonElfSymbol
		for _, s := range ss {
			out = append(out, toJSONElf(s))
		}
		return out
	}
	j.RemovedElfFunctions = elfs(r.RemovedElfFunctions)
	j.AddedElfFunctions = elfs(r.AddedElfFunctions)
	j.RemovedElfObjects = elfs(r.RemovedElfObjects)
	j.AddedElfObjects = elfs(r.AddedElfObjects)
	return j
}

func fromJSONReport(j *jsonReport) (*ir.DiffReport, error) {
	status, ok := ir.ParseCompatibilityStatus(j.CompatibilityStatus)
	if !ok {
		return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("unknown compatibility_status %q", j.CompatibilityStatus)}
	}
	r := &ir.DiffReport{LibName: j.LibName, Arch: j.Arch, Status: status}
	for _, group := range []struct {
		src []jsonRecordDiff
		dst *[]*ir.RecordTypeDiff
	}{
		{j.RecordTypeDiffs, &r.RecordTypeDiffs},
		{j.UnreferencedRecordTypeDiffs, &r.UnreferencedRecordTypeDiffs},
	} {
		for _, jd := range group.src {
			d, err := fromJSONRecordDiff(jd)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, d)
		}
	}
	for _, group := range []struct {
		src []jsonEnumDiff
		dst *[]*ir.EnumTypeDiff
	}{
		{j.EnumTypeDiffs, &r.EnumTypeDiffs},
		{j.EnumTypeExtensionDiffs, &r.EnumTypeExtensionDiffs},
		{j.UnreferencedEnumTypeDiffs, &r.UnreferencedEnumTypeDiffs},
		{j.UnreferencedEnumTypeExtensionDiffs, &r.UnreferencedEnumTypeExtensionDiffs},
	} {
		for _, jd := range group.src {
			*group.dst = append(*group.dst, fromJSONEnumDiff(jd))
		}
	}
	for _, jd := range j.FunctionDiffs {
		oldFn, err := fromJSONFunction(jd.Old)
		if err != nil {
			return nil, err
		}
		newFn, err := fromJSONFunction(jd.New)
		if err != nil {
			return nil, err
		}
		r.FunctionDiffs = append(r.FunctionDiffs, &ir.FunctionDiff{Name: jd.Name, Old: oldFn, New: newFn})
	}
	for _, jd := range j.GlobalVarDiffs {
		oldVar, err := fromJSONGlobalVar(jd.Old)
		if err != nil {
			return nil, err
		}
		newVar, err := fromJSONGlobalVar(jd.New)
		if err != nil {
			return nil, err
		}
		r.GlobalVarDiffs = append(r.GlobalVarDiffs, &ir.GlobalVarDiff{Name: jd.Name, Old: oldVar, New: newVar})
	}
	for _, group := range []struct {
		src []jsonFunction
		dst *[]*ir.Function
	}{
		{j.FunctionsRemoved, &r.FunctionsRemoved},
		{j.FunctionsAdded, &r.FunctionsAdded},
	} {
		for _, jf := range group.src {
			f, err := fromJSONFunction(jf)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, f)
		}
	}
	for _, group := range []struct {
		src []jsonGlobalVar
		dst *[]*ir.GlobalVar
	}{
		{j.GlobalVarsRemoved, &r.GlobalVarsRemoved},
		{j.GlobalVarsAdded, &r.GlobalVarsAdded},
	} {
		for _, jv := range group.src {
			v, err := fromJSONGlobalVar(jv)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, v)
		}
	}
	for _, group := range []struct {
		src []jsonRecordType
		dst *[]*ir.RecordType
	}{
		{j.UnreferencedRecordTypesRemoved, &r.UnreferencedRecordTypesRemoved},
		{j.UnreferencedRecordTypesAdded, &r.UnreferencedRecordTypesAdded},
	} {
		for _, jr := range group.src {
			t, err := fromJSONRecord(jr)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, t)
		}
	}
	for _, group := range []struct {
		src []jsonEnumType
		dst *[]*ir.EnumType
	}{
		{j.UnreferencedEnumTypesRemoved, &r.UnreferencedEnumTypesRemoved},
		{j.UnreferencedEnumTypesAdded, &r.UnreferencedEnumTypesAdded},
	} {
		for _, je := range group.src {
			t, err := fromJSONEnum(je)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, t)
		}
	}
	for _, group := range []struct {
		src  []jsonElfSymbol
		kind ir.ElfSymbolKind
		dst  *[]*ir.ElfSymbol
	}{
		{j.RemovedElfFunctions, ir.ElfFunctionKind, &r.RemovedElfFunctions},
		{j.AddedElfFunctions, ir.ElfFunctionKind, &r.AddedElfFunctions},
		{j.RemovedElfObjects, ir.ElfObjectKind, &r.RemovedElfObjects},
		{j.AddedElfObjects, ir.ElfObjectKind, &r.AddedElfObjects},
	} {
		for _, js := range group.src {
			s, err := fromJSONElf(js, group.kind)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, s)
		}
	}
	return r, nil
}

type jsonMergedEntry struct {
	LibName     string `json:"lib_name"`
	Arch        string `json:"arch"`
	Status      string `json:"status"`
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type jsonMerged struct {
	Status   string            `json:"status"`
	Severity string            `json:"severity"`
	Reports  []jsonMergedEntry `json:"reports"`
}

func toJSONMerged(m *ir.MergedReport) *jsonMerged {
	j := &jsonMerged{Status: m.Status.String(), Severity: m.Severity.String(), Reports: []jsonMergedEntry{}}
	for _, e := range m.Reports {
		j.Reports = append(j.Reports, jsonMergedEntry{
			LibName:     e.LibName,
			Arch:        e.Arch,
			Status:      e.Status.String(),
			Path:        e.Path,
			Fingerprint: e.Fingerprint,
		})
	}
	return j
}

func fromJSONMerged(j *jsonMerged) (*ir.MergedReport, error) {
	status, ok := ir.ParseCompatibilityStatus(j.Status)
	if !ok {
		return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("unknown status %q", j.Status)}
	}
	severity, ok := ir.ParseSeverity(j.Severity)
	if !ok {
		return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("unknown severity %q", j.Severity)}
	}
	m := &ir.MergedReport{Status: status, Severity: severity}
	for _, je := range j.Reports {
		s, ok := ir.ParseCompatibilityStatus(je.Status)
		if !ok {
			return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("report %s/%s: unknown status %q", je.LibName, je.Arch, je.Status)}
		}
		m.Reports = append(m.Reports, ir.MergedEntry{LibName: je.LibName, Arch: je.Arch, Status: s, Path: je.Path, Fingerprint: je.Fingerprint})
	}
	return m, nil
}
