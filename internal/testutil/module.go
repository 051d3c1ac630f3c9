package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/headercheck/internal/ir"
)

// ModuleBuilder assembles an ir.Module for tests. Every entity's name
// defaults to its key; insertion failures fail the test immediately.
type ModuleBuilder struct {
	t testing.TB
	m *ir.Module
}

// NewModule starts an empty module.
func NewModule(t testing.TB) *ModuleBuilder {
	t.Helper()
	return &ModuleBuilder{t: t, m: ir.NewModule()}
}

// Type adds an arbitrary type node.
func (b *ModuleBuilder) Type(typ ir.TypeIR) *ModuleBuilder {
	b.t.Helper()
	require.NoError(b.t, b.m.AddType(typ))
	return b
}

// Builtin adds a signed integral builtin of the given byte size.
func (b *ModuleBuilder) Builtin(key string, size uint64) *ModuleBuilder {
	b.t.Helper()
	return b.Type(&ir.BuiltinType{
		TypeInfo:   ir.TypeInfo{Name: key, LinkerSetKey: key, Size: size, Alignment: size},
		IsIntegral: true,
	})
}

// Pointer adds an 8-byte pointer to pointee.
func (b *ModuleBuilder) Pointer(key, pointee string) *ModuleBuilder {
	b.t.Helper()
	return b.Type(&ir.PointerType{
		TypeInfo: ir.TypeInfo{Name: key, LinkerSetKey: key, ReferencedType: pointee, Size: 8, Alignment: 8},
	})
}

// Const adds a const-qualified view of ref.
func (b *ModuleBuilder) Const(key, ref string) *ModuleBuilder {
	b.t.Helper()
	return b.Type(&ir.QualifiedType{
		TypeInfo: ir.TypeInfo{Name: key, LinkerSetKey: key, ReferencedType: ref},
		IsConst:  true,
	})
}

// Record adds a public struct with alignment 4.
func (b *ModuleBuilder) Record(key string, size uint64, fields ...ir.RecordField) *ModuleBuilder {
	b.t.Helper()
	return b.Type(&ir.RecordType{
		TypeInfo: ir.TypeInfo{Name: key, LinkerSetKey: key, SourceFile: "include/" + key + ".h", Size: size, Alignment: 4},
		Fields:   fields,
	})
}

// Enum adds an enum over underlying.
func (b *ModuleBuilder) Enum(key, underlying string, fields ...ir.EnumField) *ModuleBuilder {
	b.t.Helper()
	return b.Type(&ir.EnumType{
		TypeInfo:       ir.TypeInfo{Name: key, LinkerSetKey: key, SourceFile: "include/" + key + ".h", Size: 4, Alignment: 4},
		UnderlyingType: underlying,
		Fields:         fields,
	})
}

// Function adds a function returning ret with one parameter per entry in
// params.
func (b *ModuleBuilder) Function(key, ret string, params ...string) *ModuleBuilder {
	b.t.Helper()
	f := &ir.Function{Name: key, LinkerSetKey: key, SourceFile: "include/api.h", ReturnType: ret}
	for _, p := range params {
		f.Parameters = append(f.Parameters, ir.Parameter{ReferencedType: p})
	}
	require.NoError(b.t, b.m.AddFunction(f))
	return b
}

// GlobalVar adds a variable of type typ.
func (b *ModuleBuilder) GlobalVar(key, typ string) *ModuleBuilder {
	b.t.Helper()
	require.NoError(b.t, b.m.AddGlobalVar(&ir.GlobalVar{Name: key, LinkerSetKey: key, SourceFile: "include/api.h", ReferencedType: typ}))
	return b
}

// ElfFunction adds an exported function symbol.
func (b *ModuleBuilder) ElfFunction(name string, binding ir.ElfBinding) *ModuleBuilder {
	b.t.Helper()
	require.NoError(b.t, b.m.AddElfSymbol(&ir.ElfSymbol{Name: name, Kind: ir.ElfFunctionKind, Binding: binding}))
	return b
}

// ElfObject adds an exported object symbol.
func (b *ModuleBuilder) ElfObject(name string, binding ir.ElfBinding) *ModuleBuilder {
	b.t.Helper()
	require.NoError(b.t, b.m.AddElfSymbol(&ir.ElfSymbol{Name: name, Kind: ir.ElfObjectKind, Binding: binding}))
	return b
}

// Build returns the assembled module.
func (b *ModuleBuilder) Build() *ir.Module {
	return b.m
}

// Field is shorthand for a public record field.
func Field(name, typ string, offset uint64) ir.RecordField {
	return ir.RecordField{Name: name, ReferencedType: typ, Offset: offset}
}

// EnumValue is shorthand for an enumerator.
func EnumValue(name string, value int64) ir.EnumField {
	return ir.EnumField{Name: name, Value: value}
}

// SampleModule returns a module exercising every type kind, both linkable
// categories and both ELF tables.
func SampleModule(t testing.TB) *ir.Module {
	t.Helper()
	return NewModule(t).
		Builtin("int", 4).
		Type(&ir.BuiltinType{TypeInfo: ir.TypeInfo{Name: "unsigned char", LinkerSetKey: "unsigned char", Size: 1, Alignment: 1}, IsUnsigned: true, IsIntegral: true}).
		Pointer("Node *", "Node").
		Const("const int", "int").
		Type(&ir.ArrayType{TypeInfo: ir.TypeInfo{Name: "int[4]", LinkerSetKey: "int[4]", ReferencedType: "int", Size: 16, Alignment: 4}}).
		Type(&ir.LvalueReferenceType{TypeInfo: ir.TypeInfo{Name: "Node &", LinkerSetKey: "Node &", ReferencedType: "Node", Size: 8, Alignment: 8}}).
		Type(&ir.RvalueReferenceType{TypeInfo: ir.TypeInfo{Name: "Node &&", LinkerSetKey: "Node &&", ReferencedType: "Node", Size: 8, Alignment: 8}}).
		Type(&ir.FunctionType{
			TypeInfo:   ir.TypeInfo{Name: "int (int)", LinkerSetKey: "int (int)", SourceFile: "include/api.h"},
			ReturnType: "int",
			Parameters: []ir.Parameter{{ReferencedType: "int"}},
		}).
		Type(&ir.RecordType{
			TypeInfo: ir.TypeInfo{Name: "Node", LinkerSetKey: "Node", SourceFile: "include/node.h", Size: 24, Alignment: 8},
			Fields: []ir.RecordField{
				{Name: "value", ReferencedType: "int", Offset: 64},
				{Name: "next", ReferencedType: "Node *", Offset: 128, Access: ir.AccessPrivate},
			},
			Bases: []ir.BaseSpecifier{{ReferencedType: "Base", IsVirtual: true, Access: ir.AccessProtected}},
			VTable: []ir.VTableComponent{
				{Kind: ir.VTableOffsetToTop},
				{Kind: ir.VTableRTTI, MangledName: "_ZTI4Node"},
				{Kind: ir.VTableFunctionPointer, MangledName: "_ZN4Node3runEv", IsPure: true},
			},
			TemplateArgs: []string{"int"},
			RecordKind:   ir.RecordClass,
		}).
		Record("Base", 8).
		Enum("Color", "unsigned char", EnumValue("RED", 0), EnumValue("GREEN", 1), EnumValue("NEG", -1)).
		Function("_Z3addii", "int", "int", "int").
		Type(&ir.FunctionType{TypeInfo: ir.TypeInfo{Name: "void (Node &)", LinkerSetKey: "void (Node &)"}, ReturnType: "void", Parameters: []ir.Parameter{{ReferencedType: "Node &", IsDefault: true}}}).
		Builtin("void", 0).
		GlobalVar("g_count", "int").
		ElfFunction("_Z3addii", ir.BindingGlobal).
		ElfFunction("_Z4weakv", ir.BindingWeak).
		ElfObject("g_count", ir.BindingGlobal).
		Build()
}
