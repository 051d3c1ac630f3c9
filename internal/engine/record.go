package engine

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/headercheck/internal/ir"
)

// compareRecords diffs every facet of a record pair. When any facet changed
// directly, a RecordTypeDiff is emitted and IndirectDiff is returned so
// referencing types do not repeat it.
func (d *Differ) compareRecords(o, n *ir.RecordType, kind ir.DiffKind) (DiffStatus, error) {
	if !o.IsAnonymous && !n.IsAnonymous && o.LinkerSetKey != n.LinkerSetKey {
		// Unrelated records; there is nothing to itemize.
		return DirectDiff, nil
	}

	diff := &ir.RecordTypeDiff{Name: o.Name, LinkerSetKey: o.LinkerSetKey}
	status := NoDiff

	if accessNarrowed(o.Access, n.Access) {
		diff.AccessDiff = &ir.AccessDiff{Old: o.Access, New: n.Access}
		status |= DirectDiff
	}

	if !sameLayout(&o.TypeInfo, &n.TypeInfo) {
		diff.TypeInfoDiff = &ir.TypeInfoDiff{
			OldSize:      o.Size,
			NewSize:      n.Size,
			OldAlignment: o.Alignment,
			NewAlignment: n.Alignment,
		}
		status |= DirectDiff
	}

	if !vtablesEqual(o.VTable, n.VTable) {
		diff.VTableDiff = &ir.VTableDiff{Old: o.VTable, New: n.VTable}
		status |= DirectDiff
	}

	fields, err := d.compareFields(o.Fields, n.Fields, kind)
	if err != nil {
		return NoDiff, err
	}
	status |= fields.status
	diff.FieldsRemoved = d.fieldsForReport(d.old, fields.removed)
	diff.FieldsAdded = d.fieldsForReport(d.new, fields.added)
	for _, fd := range fields.diffed {
		diff.FieldDiffs = append(diff.FieldDiffs, ir.FieldDiff{
			Old: d.fieldForReport(d.old, fd.Old),
			New: d.fieldForReport(d.new, fd.New),
		})
	}

	basesChanged, baseStatus, err := d.compareBases(o.Bases, n.Bases, kind)
	if err != nil {
		return NoDiff, err
	}
	status |= baseStatus
	if basesChanged {
		diff.BasesDiff = &ir.BasesDiff{
			Old: d.basesForReport(d.old, o.Bases),
			New: d.basesForReport(d.new, n.Bases),
		}
		status |= DirectDiff
	}

	if status.IsDirect() {
		d.emitRecord(diff, kind)
	}

	tmpl, err := d.compareTemplateArgs(o.TemplateArgs, n.TemplateArgs, kind)
	if err != nil {
		return NoDiff, err
	}
	status |= tmpl

	if status.HasDiff() {
		return IndirectDiff, nil
	}
	return NoDiff, nil
}

func (d *Differ) emitRecord(diff *ir.RecordTypeDiff, kind ir.DiffKind) {
	if d.report == nil {
		return
	}
	diff.TypeStack = d.stack.String()
	if kind == ir.Unreferenced {
		d.report.UnreferencedRecordTypeDiffs = append(d.report.UnreferencedRecordTypeDiffs, diff)
		return
	}
	d.report.RecordTypeDiffs = append(d.report.RecordTypeDiffs, diff)
}

type fieldResult struct {
	status  DiffStatus
	removed []ir.RecordField
	added   []ir.RecordField
	diffed  []ir.FieldDiff
}

// compareFields matches fields by name. Unnamed fields and fields whose name
// exists on one side only are then paired by offset so that a plain rename
// is not reported as a removal plus an addition.
func (d *Differ) compareFields(oldFields, newFields []ir.RecordField, kind ir.DiffKind) (fieldResult, error) {
	var res fieldResult

	newByName := make(map[string]ir.RecordField, len(newFields))
	for _, f := range newFields {
		if f.Name != "" {
			newByName[f.Name] = f
		}
	}
	oldNames := make(map[string]struct{}, len(oldFields))

	var removed []ir.RecordField
	for _, of := range oldFields {
		if of.Name == "" {
			removed = append(removed, of)
			continue
		}
		oldNames[of.Name] = struct{}{}
		nf, ok := newByName[of.Name]
		if !ok {
			removed = append(removed, of)
			continue
		}
		s, err := d.compareCommonFields(of, nf, kind)
		if err != nil {
			return res, err
		}
		res.status |= s
		if s.IsDirect() {
			res.diffed = append(res.diffed, ir.FieldDiff{Old: of, New: nf})
		}
	}

	var added []ir.RecordField
	for _, nf := range newFields {
		if _, ok := oldNames[nf.Name]; ok && nf.Name != "" {
			continue
		}
		added = append(added, nf)
	}

	removed, added, renamed, err := d.filterRenamedFields(removed, added, kind)
	if err != nil {
		return res, err
	}
	res.status |= renamed
	res.removed, res.added = removed, added
	if len(removed) > 0 || len(added) > 0 {
		res.status |= DirectDiff
	}
	return res, nil
}

// compareCommonFields compares two fields believed to be the same member.
func (d *Differ) compareCommonFields(o, n ir.RecordField, kind ir.DiffKind) (DiffStatus, error) {
	s, err := d.CompareTypes(o.ReferencedType, n.ReferencedType, kind)
	if err != nil {
		return NoDiff, err
	}
	if o.Offset != n.Offset || accessNarrowed(o.Access, n.Access) {
		s |= DirectDiff
	}
	return s, nil
}

// filterRenamedFields drops removed/added pairs that sit alone at the same
// offset and compare without a direct diff.
func (d *Differ) filterRenamedFields(removed, added []ir.RecordField, kind ir.DiffKind) ([]ir.RecordField, []ir.RecordField, DiffStatus, error) {
	if len(removed) == 0 || len(added) == 0 {
		return removed, added, NoDiff, nil
	}
	removedAt := groupByOffset(removed)
	addedAt := groupByOffset(added)

	status := NoDiff
	dropped := make(map[uint64]bool)
	for _, of := range removed {
		olds, news := removedAt[of.Offset], addedAt[of.Offset]
		if len(olds) != 1 || len(news) != 1 || dropped[of.Offset] {
			continue
		}
		s, err := d.compareCommonFields(olds[0], news[0], kind)
		if err != nil {
			return nil, nil, NoDiff, err
		}
		if s.IsDirect() {
			continue
		}
		slog.Debug("field renamed", "old", of.Name, "new", news[0].Name, "offset", of.Offset)
		status |= s
		dropped[of.Offset] = true
	}

	keep := func(fields []ir.RecordField) []ir.RecordField {
		return slices.DeleteFunc(slices.Clone(fields), func(f ir.RecordField) bool {
			return dropped[f.Offset]
		})
	}
	return keep(removed), keep(added), status, nil
}

func groupByOffset(fields []ir.RecordField) map[uint64][]ir.RecordField {
	out := make(map[uint64][]ir.RecordField, len(fields))
	for _, f := range fields {
		out[f.Offset] = append(out[f.Offset], f)
	}
	return out
}

// compareBases matches base specifiers by the key of the base type.
func (d *Differ) compareBases(oldBases, newBases []ir.BaseSpecifier, kind ir.DiffKind) (bool, DiffStatus, error) {
	changed := len(oldBases) != len(newBases)
	newByKey := make(map[string]ir.BaseSpecifier, len(newBases))
	for _, b := range newBases {
		newByKey[b.ReferencedType] = b
	}
	status := NoDiff
	for _, ob := range oldBases {
		nb, ok := newByKey[ob.ReferencedType]
		if !ok {
			changed = true
			continue
		}
		s, err := d.CompareTypes(ob.ReferencedType, nb.ReferencedType, kind)
		if err != nil {
			return false, NoDiff, err
		}
		status |= s
		if s.IsDirect() || ob.Offset != nb.Offset || ob.Access != nb.Access || ob.IsVirtual != nb.IsVirtual {
			changed = true
		}
	}
	return changed, status, nil
}

// vtablesEqual compares layouts slot by slot. Thunk manglings that differ
// only in their adjustment prefix are treated as the same function.
func vtablesEqual(o, n []ir.VTableComponent) bool {
	if len(o) != len(n) {
		return false
	}
	for i := range o {
		if o[i].Kind != n[i].Kind || o[i].Value != n[i].Value {
			return false
		}
		if o[i].MangledName == n[i].MangledName {
			continue
		}
		if stripThunk(o[i].MangledName) != stripThunk(n[i].MangledName) {
			return false
		}
		slog.Debug("ignoring thunk difference", "old", o[i].MangledName, "new", n[i].MangledName)
	}
	return true
}

// stripThunk rewrites "_ZTv...N..." style thunk names to the "_ZN..." name
// of the target function.
func stripThunk(name string) string {
	if !strings.HasPrefix(name, "_ZTv") && !strings.HasPrefix(name, "_ZTh") && !strings.HasPrefix(name, "_ZTc") {
		return name
	}
	i := strings.Index(name, "N")
	if i < 0 {
		return name
	}
	return "_Z" + name[i:]
}

// fieldForReport replaces the field's type key with the type's name.
func (d *Differ) fieldForReport(m *ir.Module, f ir.RecordField) ir.RecordField {
	f.ReferencedType = displayName(m, f.ReferencedType)
	return f
}

func (d *Differ) fieldsForReport(m *ir.Module, fields []ir.RecordField) []ir.RecordField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]ir.RecordField, len(fields))
	for i, f := range fields {
		out[i] = d.fieldForReport(m, f)
	}
	return out
}

func (d *Differ) basesForReport(m *ir.Module, bases []ir.BaseSpecifier) []ir.BaseSpecifier {
	out := make([]ir.BaseSpecifier, len(bases))
	for i, b := range bases {
		b.ReferencedType = displayName(m, b.ReferencedType)
		out[i] = b
	}
	return out
}

// compareEnums diffs underlying type and enumerators by name. Extensions
// and incompatible changes are both emitted; the report sorts them into the
// extension or incompatible lists.
func (d *Differ) compareEnums(o, n *ir.EnumType, kind ir.DiffKind) (DiffStatus, error) {
	if o.LinkerSetKey != n.LinkerSetKey {
		return DirectDiff, nil
	}
	diff := &ir.EnumTypeDiff{Name: o.Name, LinkerSetKey: o.LinkerSetKey}

	oldUnderlying := displayName(d.old, o.UnderlyingType)
	newUnderlying := displayName(d.new, n.UnderlyingType)
	if oldUnderlying != newUnderlying {
		diff.UnderlyingTypeDiff = &ir.UnderlyingTypeDiff{Old: oldUnderlying, New: newUnderlying}
	}

	newByName := make(map[string]ir.EnumField, len(n.Fields))
	for _, f := range n.Fields {
		newByName[f.Name] = f
	}
	oldNames := make(map[string]struct{}, len(o.Fields))
	for _, of := range o.Fields {
		oldNames[of.Name] = struct{}{}
		nf, ok := newByName[of.Name]
		switch {
		case !ok:
			diff.FieldsRemoved = append(diff.FieldsRemoved, of)
		case nf.Value != of.Value:
			diff.FieldDiffs = append(diff.FieldDiffs, ir.EnumFieldDiff{Old: of, New: nf})
		}
	}
	for _, nf := range n.Fields {
		if _, ok := oldNames[nf.Name]; !ok {
			diff.FieldsAdded = append(diff.FieldsAdded, nf)
		}
	}

	if !diff.IsExtended() && !diff.IsIncompatible() {
		return NoDiff, nil
	}
	d.emitEnum(diff, kind)
	return IndirectDiff, nil
}

func (d *Differ) emitEnum(diff *ir.EnumTypeDiff, kind ir.DiffKind) {
	if d.report == nil {
		return
	}
	diff.TypeStack = d.stack.String()
	r := d.report
	switch {
	case kind == ir.Unreferenced && diff.IsIncompatible():
		r.UnreferencedEnumTypeDiffs = append(r.UnreferencedEnumTypeDiffs, diff)
	case kind == ir.Unreferenced:
		r.UnreferencedEnumTypeExtensionDiffs = append(r.UnreferencedEnumTypeExtensionDiffs, diff)
	case diff.IsIncompatible():
		r.EnumTypeDiffs = append(r.EnumTypeDiffs, diff)
	default:
		r.EnumTypeExtensionDiffs = append(r.EnumTypeExtensionDiffs, diff)
	}
}
