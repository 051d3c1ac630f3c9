package ir

// Linkable is the identity header shared by every LinkableMessage.
type Linkable struct {
	Kind         LinkableKind
	Name         string
	LinkerSetKey string
	SourceFile   string
	Access       AccessSpecifier
}

// LinkableMessage is a declaration matched across dumps by linker_set_key:
// a function, a global variable, a record or an enum.
// The interface is sealed.
type LinkableMessage interface {
	Linkable() Linkable
	isLinkable()
}

// Function is one mangled function symbol. Constructor and destructor
// clones produce one Function per mangling.
type Function struct {
	Name         string
	LinkerSetKey string
	SourceFile   string
	ReturnType   string
	Parameters   []Parameter
	TemplateArgs []string
	Access       AccessSpecifier
}

// GlobalVar is an exported variable declaration.
type GlobalVar struct {
	Name           string
	LinkerSetKey   string
	SourceFile     string
	ReferencedType string
	Access         AccessSpecifier
}

func (f *Function) Linkable() Linkable {
	return Linkable{
		Kind:         FunctionKind,
		Name:         f.Name,
		LinkerSetKey: f.LinkerSetKey,
		SourceFile:   f.SourceFile,
		Access:       f.Access,
	}
}

func (v *GlobalVar) Linkable() Linkable {
	return Linkable{
		Kind:         GlobalVarKind,
		Name:         v.Name,
		LinkerSetKey: v.LinkerSetKey,
		SourceFile:   v.SourceFile,
		Access:       v.Access,
	}
}

func (*Function) isLinkable()  {}
func (*GlobalVar) isLinkable() {}

// ElfSymbol is an entry of a binary's dynamic symbol table.
type ElfSymbol struct {
	Name    string
	Kind    ElfSymbolKind
	Binding ElfBinding
}
