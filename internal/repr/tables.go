package repr

import "github.com/roach88/headercheck/internal/ir"

// enumTable is a bidirectional mapping between an IR enum and its wire
// spelling in one encoding.
type enumTable[T comparable] struct {
	name  string
	pairs []enumPair[T]
}

type enumPair[T comparable] struct {
	value T
	wire  string
}

func (t enumTable[T]) encode(v T) (string, bool) {
	for _, p := range t.pairs {
		if p.value == v {
			return p.wire, true
		}
	}
	return "", false
}

func (t enumTable[T]) decode(s string) (T, bool) {
	for _, p := range t.pairs {
		if p.wire == s {
			return p.value, true
		}
	}
	var zero T
	return zero, false
}

// mustEncode is used on the write path, where every IR value is produced by
// this module and a miss means a table is incomplete.
func (t enumTable[T]) mustEncode(v T) string {
	s, ok := t.encode(v)
	if !ok {
		panic("repr: " + t.name + " table has no entry for value")
	}
	return s
}

var accessText = enumTable[ir.AccessSpecifier]{name: "access", pairs: []enumPair[ir.AccessSpecifier]{
	{ir.AccessPublic, "public_access"},
	{ir.AccessProtected, "protected_access"},
	{ir.AccessPrivate, "private_access"},
}}

var accessJSON = enumTable[ir.AccessSpecifier]{name: "access", pairs: []enumPair[ir.AccessSpecifier]{
	{ir.AccessPublic, "public"},
	{ir.AccessProtected, "protected"},
	{ir.AccessPrivate, "private"},
}}

var recordKindText = enumTable[ir.RecordKind]{name: "record_kind", pairs: []enumPair[ir.RecordKind]{
	{ir.RecordStruct, "struct_kind"},
	{ir.RecordClass, "class_kind"},
	{ir.RecordUnion, "union_kind"},
}}

var recordKindJSON = enumTable[ir.RecordKind]{name: "record_kind", pairs: []enumPair[ir.RecordKind]{
	{ir.RecordStruct, "struct"},
	{ir.RecordClass, "class"},
	{ir.RecordUnion, "union"},
}}

var vtableKindText = enumTable[ir.VTableComponentKind]{name: "vtable_component_kind", pairs: []enumPair[ir.VTableComponentKind]{
	{ir.VTableVCallOffset, "VCallOffset"},
	{ir.VTableVBaseOffset, "VBaseOffset"},
	{ir.VTableOffsetToTop, "OffsetToTop"},
	{ir.VTableRTTI, "RTTI"},
	{ir.VTableFunctionPointer, "FunctionPointer"},
	{ir.VTableCompleteDtorPointer, "CompleteDtorPointer"},
	{ir.VTableDeletingDtorPointer, "DeletingDtorPointer"},
	{ir.VTableUnusedFunctionPointer, "UnusedFunctionPointer"},
}}

var vtableKindJSON = enumTable[ir.VTableComponentKind]{name: "vtable_component_kind", pairs: []enumPair[ir.VTableComponentKind]{
	{ir.VTableVCallOffset, "vcall_offset"},
	{ir.VTableVBaseOffset, "vbase_offset"},
	{ir.VTableOffsetToTop, "offset_to_top"},
	{ir.VTableRTTI, "rtti"},
	{ir.VTableFunctionPointer, "function_pointer"},
	{ir.VTableCompleteDtorPointer, "complete_dtor_pointer"},
	{ir.VTableDeletingDtorPointer, "deleting_dtor_pointer"},
	{ir.VTableUnusedFunctionPointer, "unused_function_pointer"},
}}

var bindingText = enumTable[ir.ElfBinding]{name: "binding", pairs: []enumPair[ir.ElfBinding]{
	{ir.BindingGlobal, "Global"},
	{ir.BindingWeak, "Weak"},
}}

var bindingJSON = enumTable[ir.ElfBinding]{name: "binding", pairs: []enumPair[ir.ElfBinding]{
	{ir.BindingGlobal, "global"},
	{ir.BindingWeak, "weak"},
}}

// statusText maps single status bits. Combined statuses are written as a
// repeated field, one token per bit.
var statusText = enumTable[ir.CompatibilityStatus]{name: "compatibility_status", pairs: []enumPair[ir.CompatibilityStatus]{
	{ir.StatusCompatible, "COMPATIBLE"},
	{ir.StatusUnreferencedChanges, "UNREFERENCED_CHANGES"},
	{ir.StatusExtension, "EXTENSION"},
	{ir.StatusIncompatible, "INCOMPATIBLE"},
	{ir.StatusElfIncompatible, "ELF_INCOMPATIBLE"},
}}

var severityText = enumTable[ir.Severity]{name: "severity", pairs: []enumPair[ir.Severity]{
	{ir.SeverityCompatible, "COMPATIBLE"},
	{ir.SeverityExtension, "EXTENSION"},
	{ir.SeverityIncompatible, "INCOMPATIBLE"},
}}

// statusBits splits s into its set bits, most severe first.
// A compatible status yields a single StatusCompatible entry.
func statusBits(s ir.CompatibilityStatus) []ir.CompatibilityStatus {
	var bits []ir.CompatibilityStatus
	for _, b := range []ir.CompatibilityStatus{
		ir.StatusElfIncompatible, ir.StatusIncompatible, ir.StatusExtension, ir.StatusUnreferencedChanges,
	} {
		if s.Has(b) {
			bits = append(bits, b)
		}
	}
	if len(bits) == 0 {
		return []ir.CompatibilityStatus{ir.StatusCompatible}
	}
	return bits
}
