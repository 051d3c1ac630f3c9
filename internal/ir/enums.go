package ir

// AccessSpecifier is the C++ access level of a declaration.
// The zero value is treated as public.
type AccessSpecifier int

const (
	AccessPublic AccessSpecifier = iota
	AccessProtected
	AccessPrivate
)

// String returns the lowercase C++ keyword for the access level.
func (a AccessSpecifier) String() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "public"
	}
}

// IsMoreRestrictive reports whether a grants less visibility than other.
func (a AccessSpecifier) IsMoreRestrictive(other AccessSpecifier) bool {
	return a > other
}

// RecordKind distinguishes struct, class and union records.
type RecordKind int

const (
	RecordStruct RecordKind = iota
	RecordClass
	RecordUnion
)

func (k RecordKind) String() string {
	switch k {
	case RecordClass:
		return "class"
	case RecordUnion:
		return "union"
	default:
		return "struct"
	}
}

// VTableComponentKind tags an entry of a record's vtable layout.
type VTableComponentKind int

const (
	VTableFunctionPointer VTableComponentKind = iota
	VTableVCallOffset
	VTableVBaseOffset
	VTableOffsetToTop
	VTableRTTI
	VTableCompleteDtorPointer
	VTableDeletingDtorPointer
	VTableUnusedFunctionPointer
)

func (k VTableComponentKind) String() string {
	switch k {
	case VTableVCallOffset:
		return "vcall_offset"
	case VTableVBaseOffset:
		return "vbase_offset"
	case VTableOffsetToTop:
		return "offset_to_top"
	case VTableRTTI:
		return "rtti"
	case VTableCompleteDtorPointer:
		return "complete_dtor_pointer"
	case VTableDeletingDtorPointer:
		return "deleting_dtor_pointer"
	case VTableUnusedFunctionPointer:
		return "unused_function_pointer"
	default:
		return "function_pointer"
	}
}

// ElfBinding is the symbol binding recorded in the dynamic symbol table.
type ElfBinding int

const (
	BindingGlobal ElfBinding = iota
	BindingWeak
)

func (b ElfBinding) String() string {
	if b == BindingWeak {
		return "weak"
	}
	return "global"
}

// ElfSymbolKind separates exported functions from exported objects.
type ElfSymbolKind int

const (
	ElfFunctionKind ElfSymbolKind = iota
	ElfObjectKind
)

func (k ElfSymbolKind) String() string {
	if k == ElfObjectKind {
		return "object"
	}
	return "func"
}

// TypeKind enumerates the closed set of TypeIR variants.
type TypeKind int

const (
	BuiltinTypeKind TypeKind = iota
	PointerTypeKind
	QualifiedTypeKind
	ArrayTypeKind
	LvalueReferenceTypeKind
	RvalueReferenceTypeKind
	FunctionTypeKind
	RecordTypeKind
	EnumTypeKind
)

var typeKindNames = [...]string{
	BuiltinTypeKind:         "builtin",
	PointerTypeKind:         "pointer",
	QualifiedTypeKind:       "qualified",
	ArrayTypeKind:           "array",
	LvalueReferenceTypeKind: "lvalue_reference",
	RvalueReferenceTypeKind: "rvalue_reference",
	FunctionTypeKind:        "function_type",
	RecordTypeKind:          "record",
	EnumTypeKind:            "enum",
}

func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(typeKindNames) {
		return "unknown"
	}
	return typeKindNames[k]
}

// AllTypeKinds lists every TypeKind in declaration order.
func AllTypeKinds() []TypeKind {
	kinds := make([]TypeKind, len(typeKindNames))
	for i := range typeKindNames {
		kinds[i] = TypeKind(i)
	}
	return kinds
}

// LinkableKind enumerates the closed set of LinkableMessage variants.
type LinkableKind int

const (
	FunctionKind LinkableKind = iota
	GlobalVarKind
	RecordLinkableKind
	EnumLinkableKind
)

func (k LinkableKind) String() string {
	switch k {
	case GlobalVarKind:
		return "global_var"
	case RecordLinkableKind:
		return "record"
	case EnumLinkableKind:
		return "enum"
	default:
		return "function"
	}
}

// DiffKind records why an entity appears in a diff report.
type DiffKind int

const (
	// Referenced diffs are reachable from an exported function or variable.
	Referenced DiffKind = iota
	// Unreferenced diffs were only found by the check-all-APIs pass.
	Unreferenced
	Added
	Removed
)

func (k DiffKind) String() string {
	switch k {
	case Unreferenced:
		return "unreferenced"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "referenced"
	}
}
