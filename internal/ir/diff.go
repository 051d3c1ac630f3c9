package ir

import (
	"sort"
	"strings"
)

// CompatibilityStatus is a bit set summarizing a diff report.
type CompatibilityStatus int

const (
	StatusCompatible          CompatibilityStatus = 0
	StatusUnreferencedChanges CompatibilityStatus = 1
	StatusExtension           CompatibilityStatus = 4
	StatusIncompatible        CompatibilityStatus = 8
	StatusElfIncompatible     CompatibilityStatus = 16
)

// statusBits lists the named bits from most to least severe.
var statusBits = []struct {
	bit  CompatibilityStatus
	name string
}{
	{StatusElfIncompatible, "ELF_INCOMPATIBLE"},
	{StatusIncompatible, "INCOMPATIBLE"},
	{StatusExtension, "EXTENSION"},
	{StatusUnreferencedChanges, "UNREFERENCED_CHANGES"},
}

// Has reports whether every bit of flag is set in s.
func (s CompatibilityStatus) Has(flag CompatibilityStatus) bool {
	return s&flag == flag
}

// Primary returns the most severe bit set in s, or StatusCompatible.
func (s CompatibilityStatus) Primary() CompatibilityStatus {
	for _, b := range statusBits {
		if s.Has(b.bit) {
			return b.bit
		}
	}
	return StatusCompatible
}

// String joins the names of the set bits with "|", most severe first.
func (s CompatibilityStatus) String() string {
	var names []string
	for _, b := range statusBits {
		if s.Has(b.bit) {
			names = append(names, b.name)
		}
	}
	if len(names) == 0 {
		return "COMPATIBLE"
	}
	return strings.Join(names, "|")
}

// Severity projects the status onto the three-level release verdict.
func (s CompatibilityStatus) Severity() Severity {
	switch {
	case s.Has(StatusIncompatible), s.Has(StatusElfIncompatible):
		return SeverityIncompatible
	case s.Has(StatusExtension):
		return SeverityExtension
	default:
		return SeverityCompatible
	}
}

// ParseCompatibilityStatus parses the output of String.
func ParseCompatibilityStatus(text string) (CompatibilityStatus, bool) {
	if text == "COMPATIBLE" {
		return StatusCompatible, true
	}
	var s CompatibilityStatus
	for _, part := range strings.Split(text, "|") {
		found := false
		for _, b := range statusBits {
			if b.name == part {
				s |= b.bit
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return s, true
}

// Severity orders verdicts: COMPATIBLE < EXTENSION < INCOMPATIBLE.
type Severity int

const (
	SeverityCompatible Severity = iota
	SeverityExtension
	SeverityIncompatible
)

func (s Severity) String() string {
	switch s {
	case SeverityExtension:
		return "EXTENSION"
	case SeverityIncompatible:
		return "INCOMPATIBLE"
	default:
		return "COMPATIBLE"
	}
}

// Worse returns the more severe of s and other.
func (s Severity) Worse(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// ParseSeverity parses the output of Severity.String.
func ParseSeverity(text string) (Severity, bool) {
	for _, s := range []Severity{SeverityCompatible, SeverityExtension, SeverityIncompatible} {
		if s.String() == text {
			return s, true
		}
	}
	return 0, false
}

// TypeInfoDiff records a size or alignment change of a record.
type TypeInfoDiff struct {
	OldSize      uint64
	NewSize      uint64
	OldAlignment uint64
	NewAlignment uint64
}

type AccessDiff struct {
	Old AccessSpecifier
	New AccessSpecifier
}

type VTableDiff struct {
	Old []VTableComponent
	New []VTableComponent
}

type BasesDiff struct {
	Old []BaseSpecifier
	New []BaseSpecifier
}

type FieldDiff struct {
	Old RecordField
	New RecordField
}

// RecordTypeDiff is the set of facet changes of one record.
// Nil facets did not change.
type RecordTypeDiff struct {
	Name         string
	LinkerSetKey string

	// TypeStack is the path of type names from the exported entity down to
	// this record, joined with "-> ".
	TypeStack string

	TypeInfoDiff  *TypeInfoDiff
	AccessDiff    *AccessDiff
	VTableDiff    *VTableDiff
	BasesDiff     *BasesDiff
	FieldsRemoved []RecordField
	FieldsAdded   []RecordField
	FieldDiffs    []FieldDiff
}

// IsEmpty reports whether no facet changed.
func (d *RecordTypeDiff) IsEmpty() bool {
	return d.TypeInfoDiff == nil && d.AccessDiff == nil && d.VTableDiff == nil &&
		d.BasesDiff == nil && len(d.FieldsRemoved) == 0 && len(d.FieldsAdded) == 0 &&
		len(d.FieldDiffs) == 0
}

type UnderlyingTypeDiff struct {
	Old string
	New string
}

type EnumFieldDiff struct {
	Old EnumField
	New EnumField
}

// EnumTypeDiff is the set of changes of one enum.
type EnumTypeDiff struct {
	Name               string
	LinkerSetKey       string
	TypeStack          string
	UnderlyingTypeDiff *UnderlyingTypeDiff
	FieldsRemoved      []EnumField
	FieldsAdded        []EnumField
	FieldDiffs         []EnumFieldDiff
}

// IsExtended reports whether the enum only gained enumerators.
func (d *EnumTypeDiff) IsExtended() bool {
	return len(d.FieldsAdded) > 0 && !d.IsIncompatible()
}

// IsIncompatible reports whether an enumerator was removed or changed value,
// or the underlying type changed.
func (d *EnumTypeDiff) IsIncompatible() bool {
	return d.UnderlyingTypeDiff != nil || len(d.FieldsRemoved) > 0 || len(d.FieldDiffs) > 0
}

type FunctionDiff struct {
	Name string
	Old  *Function
	New  *Function
}

type GlobalVarDiff struct {
	Name string
	Old  *GlobalVar
	New  *GlobalVar
}

// DiffReport is the result of comparing two library modules.
type DiffReport struct {
	LibName string
	Arch    string
	Status  CompatibilityStatus

	RecordTypeDiffs                    []*RecordTypeDiff
	UnreferencedRecordTypeDiffs        []*RecordTypeDiff
	EnumTypeDiffs                      []*EnumTypeDiff
	EnumTypeExtensionDiffs             []*EnumTypeDiff
	UnreferencedEnumTypeDiffs          []*EnumTypeDiff
	UnreferencedEnumTypeExtensionDiffs []*EnumTypeDiff
	FunctionDiffs                      []*FunctionDiff
	GlobalVarDiffs                     []*GlobalVarDiff

	FunctionsRemoved  []*Function
	FunctionsAdded    []*Function
	GlobalVarsRemoved []*GlobalVar
	GlobalVarsAdded   []*GlobalVar

	UnreferencedRecordTypesRemoved []*RecordType
	UnreferencedRecordTypesAdded   []*RecordType
	UnreferencedEnumTypesRemoved   []*EnumType
	UnreferencedEnumTypesAdded     []*EnumType

	RemovedElfFunctions []*ElfSymbol
	AddedElfFunctions   []*ElfSymbol
	RemovedElfObjects   []*ElfSymbol
	AddedElfObjects     []*ElfSymbol
}

// ComputeStatus derives the compatibility bits from the report contents.
//
// Rules, in order:
//  1. Removed or changed functions/variables, or referenced record/enum
//     diffs: INCOMPATIBLE.
//  2. Otherwise removed ELF symbols: ELF_INCOMPATIBLE.
//  3. Otherwise enum extensions or added functions/variables: EXTENSION.
//  4. Any unreferenced change additionally sets UNREFERENCED_CHANGES.
func (r *DiffReport) ComputeStatus() CompatibilityStatus {
	if len(r.FunctionsRemoved) > 0 || len(r.GlobalVarsRemoved) > 0 ||
		len(r.FunctionDiffs) > 0 || len(r.GlobalVarDiffs) > 0 ||
		len(r.EnumTypeDiffs) > 0 || len(r.RecordTypeDiffs) > 0 {
		return StatusIncompatible
	}
	if len(r.RemovedElfFunctions) > 0 || len(r.RemovedElfObjects) > 0 {
		return StatusElfIncompatible
	}
	status := StatusCompatible
	if len(r.EnumTypeExtensionDiffs) > 0 || len(r.FunctionsAdded) > 0 || len(r.GlobalVarsAdded) > 0 {
		status |= StatusExtension
	}
	if r.hasUnreferencedChanges() {
		status |= StatusUnreferencedChanges
	}
	return status
}

func (r *DiffReport) hasUnreferencedChanges() bool {
	return len(r.UnreferencedRecordTypeDiffs) > 0 ||
		len(r.UnreferencedEnumTypeDiffs) > 0 ||
		len(r.UnreferencedEnumTypeExtensionDiffs) > 0 ||
		len(r.UnreferencedRecordTypesRemoved) > 0 ||
		len(r.UnreferencedRecordTypesAdded) > 0 ||
		len(r.UnreferencedEnumTypesRemoved) > 0 ||
		len(r.UnreferencedEnumTypesAdded) > 0
}

// IsEmpty reports whether the report lists no change at all.
func (r *DiffReport) IsEmpty() bool {
	return len(r.ChangedKeys()) == 0
}

// ChangedKeys returns the sorted set of identities mentioned anywhere in the
// report. Added and removed entities contribute their own key, so swapping
// old and new yields the same set.
func (r *DiffReport) ChangedKeys() []string {
	set := make(map[string]struct{})
	add := func(k string) { set[k] = struct{}{} }
	for _, group := range [][]*RecordTypeDiff{r.RecordTypeDiffs, r.UnreferencedRecordTypeDiffs} {
		for _, d := range group {
			add(d.LinkerSetKey)
		}
	}
	for _, group := range [][]*EnumTypeDiff{r.EnumTypeDiffs, r.EnumTypeExtensionDiffs,
		r.UnreferencedEnumTypeDiffs, r.UnreferencedEnumTypeExtensionDiffs} {
		for _, d := range group {
			add(d.LinkerSetKey)
		}
	}
	for _, d := range r.FunctionDiffs {
		add(d.Old.LinkerSetKey)
	}
	for _, d := range r.GlobalVarDiffs {
		add(d.Old.LinkerSetKey)
	}
	for _, group := range [][]*Function{r.FunctionsRemoved, r.FunctionsAdded} {
		for _, f := range group {
			add(f.LinkerSetKey)
		}
	}
	for _, group := range [][]*GlobalVar{r.GlobalVarsRemoved, r.GlobalVarsAdded} {
		for _, v := range group {
			add(v.LinkerSetKey)
		}
	}
	for _, group := range [][]*RecordType{r.UnreferencedRecordTypesRemoved, r.UnreferencedRecordTypesAdded} {
		for _, t := range group {
			add(t.LinkerSetKey)
		}
	}
	for _, group := range [][]*EnumType{r.UnreferencedEnumTypesRemoved, r.UnreferencedEnumTypesAdded} {
		for _, t := range group {
			add(t.LinkerSetKey)
		}
	}
	for _, group := range [][]*ElfSymbol{r.RemovedElfFunctions, r.AddedElfFunctions,
		r.RemovedElfObjects, r.AddedElfObjects} {
		for _, s := range group {
			add("elf:" + s.Name)
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
