package ir

// TypeInfo is the header shared by every TypeIR variant.
type TypeInfo struct {
	// Name is the human readable spelling of the type, e.g. "const int *".
	Name string

	// LinkerSetKey is the cross-dump identity of the type.
	LinkerSetKey string

	// SourceFile is the header the type was declared in. Empty for builtins.
	SourceFile string

	// ReferencedType is the key of the pointee, element, qualified or
	// referenced type. Records and enums reference themselves.
	ReferencedType string

	Size      uint64
	Alignment uint64
}

// TypeIR is a node of a module's type graph.
// The interface is sealed; the variants below are the complete set.
type TypeIR interface {
	Info() *TypeInfo
	Kind() TypeKind
	isTypeIR()
}

type BuiltinType struct {
	TypeInfo
	IsUnsigned bool
	IsIntegral bool
}

type PointerType struct {
	TypeInfo
}

type QualifiedType struct {
	TypeInfo
	IsConst      bool
	IsVolatile   bool
	IsRestricted bool
}

type ArrayType struct {
	TypeInfo
}

type LvalueReferenceType struct {
	TypeInfo
}

type RvalueReferenceType struct {
	TypeInfo
}

// FunctionType is the type of a function pointer target.
type FunctionType struct {
	TypeInfo
	ReturnType string
	Parameters []Parameter
}

// RecordType describes a struct, class or union.
type RecordType struct {
	TypeInfo
	RecordKind   RecordKind
	Fields       []RecordField
	Bases        []BaseSpecifier
	VTable       []VTableComponent
	TemplateArgs []string
	Access       AccessSpecifier
	IsAnonymous  bool
}

// EnumType describes a C or C++ enumeration.
type EnumType struct {
	TypeInfo
	UnderlyingType string
	Fields         []EnumField
	Access         AccessSpecifier
}

// RecordField is a data member of a record. Offset is in bits.
type RecordField struct {
	Name           string
	ReferencedType string
	Offset         uint64
	Access         AccessSpecifier
}

// BaseSpecifier is one entry of a record's base class list.
type BaseSpecifier struct {
	ReferencedType string
	Offset         uint64
	IsVirtual      bool
	Access         AccessSpecifier
}

// VTableComponent is one slot of a vtable layout.
type VTableComponent struct {
	Kind        VTableComponentKind
	MangledName string
	Value       int64
	IsPure      bool
}

type EnumField struct {
	Name  string
	Value int64
}

// Parameter is a function or function-type parameter.
type Parameter struct {
	ReferencedType string
	IsDefault      bool
	IsThisPtr      bool
}

func (t *BuiltinType) Info() *TypeInfo         { return &t.TypeInfo }
func (t *PointerType) Info() *TypeInfo         { return &t.TypeInfo }
func (t *QualifiedType) Info() *TypeInfo       { return &t.TypeInfo }
func (t *ArrayType) Info() *TypeInfo           { return &t.TypeInfo }
func (t *LvalueReferenceType) Info() *TypeInfo { return &t.TypeInfo }
func (t *RvalueReferenceType) Info() *TypeInfo { return &t.TypeInfo }
func (t *FunctionType) Info() *TypeInfo        { return &t.TypeInfo }
func (t *RecordType) Info() *TypeInfo          { return &t.TypeInfo }
func (t *EnumType) Info() *TypeInfo            { return &t.TypeInfo }

func (*BuiltinType) Kind() TypeKind         { return BuiltinTypeKind }
func (*PointerType) Kind() TypeKind         { return PointerTypeKind }
func (*QualifiedType) Kind() TypeKind       { return QualifiedTypeKind }
func (*ArrayType) Kind() TypeKind           { return ArrayTypeKind }
func (*LvalueReferenceType) Kind() TypeKind { return LvalueReferenceTypeKind }
func (*RvalueReferenceType) Kind() TypeKind { return RvalueReferenceTypeKind }
func (*FunctionType) Kind() TypeKind        { return FunctionTypeKind }
func (*RecordType) Kind() TypeKind          { return RecordTypeKind }
func (*EnumType) Kind() TypeKind            { return EnumTypeKind }

func (*BuiltinType) isTypeIR()         {}
func (*PointerType) isTypeIR()         {}
func (*QualifiedType) isTypeIR()       {}
func (*ArrayType) isTypeIR()           {}
func (*LvalueReferenceType) isTypeIR() {}
func (*RvalueReferenceType) isTypeIR() {}
func (*FunctionType) isTypeIR()        {}
func (*RecordType) isTypeIR()          {}
func (*EnumType) isTypeIR()            {}

// Linkable exposes records as linkable messages.
func (t *RecordType) Linkable() Linkable {
	return Linkable{
		Kind:         RecordLinkableKind,
		Name:         t.Name,
		LinkerSetKey: t.LinkerSetKey,
		SourceFile:   t.SourceFile,
		Access:       t.Access,
	}
}

// Linkable exposes enums as linkable messages.
func (t *EnumType) Linkable() Linkable {
	return Linkable{
		Kind:         EnumLinkableKind,
		Name:         t.Name,
		LinkerSetKey: t.LinkerSetKey,
		SourceFile:   t.SourceFile,
		Access:       t.Access,
	}
}

func (*RecordType) isLinkable() {}
func (*EnumType) isLinkable()   {}

// ReferencedTypes returns every type key t points at, in declaration order.
// Records and enums do not include their own key.
func ReferencedTypes(t TypeIR) []string {
	var refs []string
	switch v := t.(type) {
	case *RecordType:
		for _, f := range v.Fields {
			refs = append(refs, f.ReferencedType)
		}
		for _, b := range v.Bases {
			refs = append(refs, b.ReferencedType)
		}
		refs = append(refs, v.TemplateArgs...)
	case *EnumType:
		refs = append(refs, v.UnderlyingType)
	case *FunctionType:
		refs = append(refs, v.ReturnType)
		for _, p := range v.Parameters {
			refs = append(refs, p.ReferencedType)
		}
	case *BuiltinType:
	default:
		if ref := t.Info().ReferencedType; ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}
