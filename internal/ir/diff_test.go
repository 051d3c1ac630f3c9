package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatus(t *testing.T) {
	fn := &Function{Name: "f", LinkerSetKey: "_Z1fv"}
	elf := &ElfSymbol{Name: "_Z1fv"}
	rec := newRecord("S", 4)
	enumExt := &EnumTypeDiff{Name: "E", LinkerSetKey: "E", FieldsAdded: []EnumField{{Name: "B", Value: 1}}}

	tests := []struct {
		name   string
		report DiffReport
		want   CompatibilityStatus
	}{
		{"empty", DiffReport{}, StatusCompatible},
		{"function removed", DiffReport{FunctionsRemoved: []*Function{fn}}, StatusIncompatible},
		{"record diff", DiffReport{RecordTypeDiffs: []*RecordTypeDiff{{Name: "S"}}}, StatusIncompatible},
		{"elf removed", DiffReport{RemovedElfFunctions: []*ElfSymbol{elf}}, StatusElfIncompatible},
		{"function added", DiffReport{FunctionsAdded: []*Function{fn}}, StatusExtension},
		{"enum extension", DiffReport{EnumTypeExtensionDiffs: []*EnumTypeDiff{enumExt}}, StatusExtension},
		{"elf added only", DiffReport{AddedElfFunctions: []*ElfSymbol{elf}}, StatusCompatible},
		{
			"extension with unreferenced",
			DiffReport{FunctionsAdded: []*Function{fn}, UnreferencedRecordTypesRemoved: []*RecordType{rec}},
			StatusExtension | StatusUnreferencedChanges,
		},
		{
			"incompatible masks unreferenced",
			DiffReport{FunctionsRemoved: []*Function{fn}, UnreferencedRecordTypesRemoved: []*RecordType{rec}},
			StatusIncompatible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.ComputeStatus())
		})
	}
}

func TestCompatibilityStatus_StringRoundTrip(t *testing.T) {
	for _, s := range []CompatibilityStatus{
		StatusCompatible,
		StatusIncompatible,
		StatusExtension | StatusUnreferencedChanges,
		StatusElfIncompatible,
	} {
		parsed, ok := ParseCompatibilityStatus(s.String())
		assert.True(t, ok, s.String())
		assert.Equal(t, s, parsed)
	}
	_, ok := ParseCompatibilityStatus("BROKEN")
	assert.False(t, ok)
}

func TestCompatibilityStatus_Severity(t *testing.T) {
	assert.Equal(t, SeverityCompatible, StatusUnreferencedChanges.Severity())
	assert.Equal(t, SeverityExtension, (StatusExtension | StatusUnreferencedChanges).Severity())
	assert.Equal(t, SeverityIncompatible, StatusElfIncompatible.Severity())
	assert.Equal(t, StatusExtension, (StatusExtension | StatusUnreferencedChanges).Primary())
}

func TestSeverity_Worse(t *testing.T) {
	assert.Equal(t, SeverityExtension, SeverityCompatible.Worse(SeverityExtension))
	assert.Equal(t, SeverityIncompatible, SeverityIncompatible.Worse(SeverityExtension))
	assert.Equal(t, SeverityExtension, SeverityExtension.Worse(SeverityCompatible))
}

func TestEnumTypeDiff_Classification(t *testing.T) {
	ext := &EnumTypeDiff{FieldsAdded: []EnumField{{Name: "C", Value: 2}}}
	assert.True(t, ext.IsExtended())
	assert.False(t, ext.IsIncompatible())

	changed := &EnumTypeDiff{
		FieldsAdded: []EnumField{{Name: "C", Value: 2}},
		FieldDiffs:  []EnumFieldDiff{{Old: EnumField{Name: "A", Value: 0}, New: EnumField{Name: "A", Value: 5}}},
	}
	assert.False(t, changed.IsExtended())
	assert.True(t, changed.IsIncompatible())
}

func TestDiffReport_ChangedKeys(t *testing.T) {
	r := &DiffReport{
		FunctionsAdded:              []*Function{{LinkerSetKey: "_Z3barv"}},
		RecordTypeDiffs:             []*RecordTypeDiff{{LinkerSetKey: "S"}},
		UnreferencedRecordTypeDiffs: []*RecordTypeDiff{{LinkerSetKey: "S"}},
		RemovedElfObjects:           []*ElfSymbol{{Name: "gv", Kind: ElfObjectKind}},
	}
	assert.Equal(t, []string{"S", "_Z3barv", "elf:gv"}, r.ChangedKeys())
	assert.False(t, r.IsEmpty())
	assert.True(t, (&DiffReport{}).IsEmpty())
}
