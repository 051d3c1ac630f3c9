package repr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/headercheck/internal/ir"
)

// checkTable asserts that every value maps to exactly one wire spelling and back.
func checkTable[T comparable](t *testing.T, table enumTable[T], values []T) {
	t.Helper()
	assert.Len(t, table.pairs, len(values), "%s: table size", table.name)
	seen := make(map[string]bool)
	for _, v := range values {
		wire, ok := table.encode(v)
		if !assert.True(t, ok, "%s: no wire value for %v", table.name, v) {
			continue
		}
		assert.False(t, seen[wire], "%s: wire value %q used twice", table.name, wire)
		seen[wire] = true

		back, ok := table.decode(wire)
		assert.True(t, ok)
		assert.Equal(t, v, back, "%s: %q does not decode to its value", table.name, wire)
	}
	_, ok := table.decode("no_such_value")
	assert.False(t, ok)
}

// TestEnumTables_Exhaustive tests every IR enum against both wire encodings.
func TestEnumTables_Exhaustive(t *testing.T) {
	access := []ir.AccessSpecifier{ir.AccessPublic, ir.AccessProtected, ir.AccessPrivate}
	kinds := []ir.RecordKind{ir.RecordStruct, ir.RecordClass, ir.RecordUnion}
	vtable := []ir.VTableComponentKind{
		ir.VTableFunctionPointer, ir.VTableVCallOffset, ir.VTableVBaseOffset, ir.VTableOffsetToTop,
		ir.VTableRTTI, ir.VTableCompleteDtorPointer, ir.VTableDeletingDtorPointer, ir.VTableUnusedFunctionPointer,
	}
	bindings := []ir.ElfBinding{ir.BindingGlobal, ir.BindingWeak}

	t.Run("access", func(t *testing.T) {
		checkTable(t, accessText, access)
		checkTable(t, accessJSON, access)
	})
	t.Run("record_kind", func(t *testing.T) {
		checkTable(t, recordKindText, kinds)
		checkTable(t, recordKindJSON, kinds)
	})
	t.Run("vtable", func(t *testing.T) {
		checkTable(t, vtableKindText, vtable)
		checkTable(t, vtableKindJSON, vtable)
	})
	t.Run("binding", func(t *testing.T) {
		checkTable(t, bindingText, bindings)
		checkTable(t, bindingJSON, bindings)
	})
	t.Run("status", func(t *testing.T) {
		checkTable(t, statusText, []ir.CompatibilityStatus{
			ir.StatusCompatible, ir.StatusUnreferencedChanges, ir.StatusExtension,
			ir.StatusIncompatible, ir.StatusElfIncompatible,
		})
	})
	t.Run("severity", func(t *testing.T) {
		checkTable(t, severityText, []ir.Severity{ir.SeverityCompatible, ir.SeverityExtension, ir.SeverityIncompatible})
	})
}

func TestStatusBits(t *testing.T) {
	assert.Equal(t, []ir.CompatibilityStatus{ir.StatusCompatible}, statusBits(ir.StatusCompatible))
	assert.Equal(t,
		[]ir.CompatibilityStatus{ir.StatusElfIncompatible, ir.StatusExtension, ir.StatusUnreferencedChanges},
		statusBits(ir.StatusElfIncompatible|ir.StatusExtension|ir.StatusUnreferencedChanges))
}
