package repr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/headercheck/internal/ir"
)

type jsonTypeInfo struct {
	Name           string `json:"name"`
	LinkerSetKey   string `json:"linker_set_key"`
	SourceFile     string `json:"source_file,omitempty"`
	ReferencedType string `json:"referenced_type,omitempty"`
	Size           uint64 `json:"size,omitempty"`
	Alignment      uint64 `json:"alignment,omitempty"`
}

type jsonRecordField struct {
	FieldName      string `json:"field_name"`
	ReferencedType string `json:"referenced_type"`
	Access         string `json:"access,omitempty"`
	FieldOffset    uint64 `json:"field_offset,omitempty"`
}

type jsonBaseSpecifier struct {
	ReferencedType string `json:"referenced_type"`
	IsVirtual      bool   `json:"is_virtual,omitempty"`
	Access         string `json:"access,omitempty"`
	Offset         uint64 `json:"offset,omitempty"`
}

type jsonVTableComponent struct {
	Kind                 string `json:"kind,omitempty"`
	ComponentValue       int64  `json:"component_value,omitempty"`
	MangledComponentName string `json:"mangled_component_name,omitempty"`
	IsPure               bool   `json:"is_pure,omitempty"`
}

type jsonRecordType struct {
	jsonTypeInfo
	Access           string                `json:"access,omitempty"`
	RecordKind       string                `json:"record_kind,omitempty"`
	IsAnonymous      bool                  `json:"is_anonymous,omitempty"`
	Fields           []jsonRecordField     `json:"fields,omitempty"`
	BaseSpecifiers   []jsonBaseSpecifier   `json:"base_specifiers,omitempty"`
	VTableComponents []jsonVTableComponent `json:"vtable_components,omitempty"`
	TemplateArgs     []string              `json:"template_args,omitempty"`
}

type jsonEnumField struct {
	Name           string `json:"name"`
	EnumFieldValue int64  `json:"enum_field_value"`
}

type jsonEnumType struct {
	jsonTypeInfo
	Access         string          `json:"access,omitempty"`
	UnderlyingType string          `json:"underlying_type"`
	EnumFields     []jsonEnumField `json:"enum_fields,omitempty"`
}

type jsonBuiltinType struct {
	jsonTypeInfo
	IsUnsigned bool `json:"is_unsigned,omitempty"`
	IsIntegral bool `json:"is_integral,omitempty"`
}

type jsonQualifiedType struct {
	jsonTypeInfo
	IsConst      bool `json:"is_const,omitempty"`
	IsVolatile   bool `json:"is_volatile,omitempty"`
	IsRestricted bool `json:"is_restricted,omitempty"`
}

type jsonParameter struct {
	ReferencedType string `json:"referenced_type"`
	DefaultArg     bool   `json:"default_arg,omitempty"`
	IsThisPtr      bool   `json:"is_this_ptr,omitempty"`
}

type jsonFunctionType struct {
	jsonTypeInfo
	ReturnType string          `json:"return_type"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
}

type jsonFunction struct {
	FunctionName string          `json:"function_name"`
	LinkerSetKey string          `json:"linker_set_key"`
	SourceFile   string          `json:"source_file,omitempty"`
	Access       string          `json:"access,omitempty"`
	ReturnType   string          `json:"return_type"`
	Parameters   []jsonParameter `json:"parameters,omitempty"`
	TemplateArgs []string        `json:"template_args,omitempty"`
}

type jsonGlobalVar struct {
	Name           string `json:"name"`
	LinkerSetKey   string `json:"linker_set_key"`
	SourceFile     string `json:"source_file,omitempty"`
	Access         string `json:"access,omitempty"`
	ReferencedType string `json:"referenced_type"`
}

type jsonElfSymbol struct {
	Name    string `json:"name"`
	Binding string `json:"binding,omitempty"`
}

// jsonModule mirrors the top-level object of a JSON dump. Every table is
// always present, possibly empty.
type jsonModule struct {
	RecordTypes          []jsonRecordType    `json:"record_types"`
	EnumTypes            []jsonEnumType      `json:"enum_types"`
	PointerTypes         []jsonTypeInfo      `json:"pointer_types"`
	LvalueReferenceTypes []jsonTypeInfo      `json:"lvalue_reference_types"`
	RvalueReferenceTypes []jsonTypeInfo      `json:"rvalue_reference_types"`
	BuiltinTypes         []jsonBuiltinType   `json:"builtin_types"`
	QualifiedTypes       []jsonQualifiedType `json:"qualified_types"`
	ArrayTypes           []jsonTypeInfo      `json:"array_types"`
	FunctionTypes        []jsonFunctionType  `json:"function_types"`
	Functions            []jsonFunction      `json:"functions"`
	GlobalVars           []jsonGlobalVar     `json:"global_vars"`
	ElfFunctions         []jsonElfSymbol     `json:"elf_functions"`
	ElfObjects           []jsonElfSymbol     `json:"elf_objects"`
}

// jsonAccess omits the default access level.
func jsonAccess(a ir.AccessSpecifier) string {
	if a == ir.AccessPublic {
		return ""
	}
	return accessJSON.mustEncode(a)
}

// jsonDecodeEnum maps "" to the zero value, which is every enum's default.
func jsonDecodeEnum[T comparable](s string, table enumTable[T]) (T, error) {
	var zero T
	if s == "" {
		return zero, nil
	}
	v, ok := table.decode(s)
	if !ok {
		return zero, &FormatError{Format: JSON, Message: fmt.Sprintf("unknown %s %q", table.name, s)}
	}
	return v, nil
}

func toJSONTypeInfo(info *ir.TypeInfo) jsonTypeInfo {
	return jsonTypeInfo{
		Name:           info.Name,
		LinkerSetKey:   info.LinkerSetKey,
		SourceFile:     info.SourceFile,
		ReferencedType: info.ReferencedType,
		Size:           info.Size,
		Alignment:      info.Alignment,
	}
}

func fromJSONTypeInfo(j jsonTypeInfo) ir.TypeInfo {
	return ir.TypeInfo{
		Name:           j.Name,
		LinkerSetKey:   j.LinkerSetKey,
		SourceFile:     j.SourceFile,
		ReferencedType: j.ReferencedType,
		Size:           j.Size,
		Alignment:      j.Alignment,
	}
}

func toJSONField(f ir.RecordField) jsonRecordField {
	return jsonRecordField{FieldName: f.Name, ReferencedType: f.ReferencedType, Access: jsonAccess(f.Access), FieldOffset: f.Offset}
}

func fromJSONField(j jsonRecordField) (ir.RecordField, error) {
	access, err := jsonDecodeEnum(j.Access, accessJSON)
	return ir.RecordField{Name: j.FieldName, ReferencedType: j.ReferencedType, Offset: j.FieldOffset, Access: access}, err
}

func toJSONBase(b ir.BaseSpecifier) jsonBaseSpecifier {
	return jsonBaseSpecifier{ReferencedType: b.ReferencedType, IsVirtual: b.IsVirtual, Access: jsonAccess(b.Access), Offset: b.Offset}
}

func fromJSONBase(j jsonBaseSpecifier) (ir.BaseSpecifier, error) {
	access, err := jsonDecodeEnum(j.Access, accessJSON)
	return ir.BaseSpecifier{ReferencedType: j.ReferencedType, IsVirtual: j.IsVirtual, Access: access, Offset: j.Offset}, err
}

func toJSONVTable(comps []ir.VTableComponent) []jsonVTableComponent {
	var out []jsonVTableComponent
	for _, vc := range comps {
		kind := ""
		if vc.Kind != ir.VTableFunctionPointer {
			kind = vtableKindJSON.mustEncode(vc.Kind)
		}
		out = append(out, jsonVTableComponent{Kind: kind, ComponentValue: vc.Value, MangledComponentName: vc.MangledName, IsPure: vc.IsPure})
	}
	return out
}

func fromJSONVTable(js []jsonVTableComponent) ([]ir.VTableComponent, error) {
	var out []ir.VTableComponent
	for _, j := range js {
		kind, err := jsonDecodeEnum(j.Kind, vtableKindJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.VTableComponent{Kind: kind, MangledName: j.MangledComponentName, Value: j.ComponentValue, IsPure: j.IsPure})
	}
	return out, nil
}

func toJSONParams(params []ir.Parameter) []jsonParameter {
	var out []jsonParameter
	for _, p := range params {
		out = append(out, jsonParameter{ReferencedType: p.ReferencedType, DefaultArg: p.IsDefault, IsThisPtr: p.IsThisPtr})
	}
	return out
}

func fromJSONParams(js []jsonParameter) []ir.Parameter {
	var out []ir.Parameter
	for _, j := range js {
		out = append(out, ir.Parameter{ReferencedType: j.ReferencedType, IsDefault: j.DefaultArg, IsThisPtr: j.IsThisPtr})
	}
	return out
}

func toJSONRecord(r *ir.RecordType) jsonRecordType {
	j := jsonRecordType{
		jsonTypeInfo: toJSONTypeInfo(&r.TypeInfo),
		Access:       jsonAccess(r.Access),
		IsAnonymous:  r.IsAnonymous,
		TemplateArgs: r.TemplateArgs,
	}
	if r.RecordKind != ir.RecordStruct {
		j.RecordKind = recordKindJSON.mustEncode(r.RecordKind)
	}
	for _, f := range r.Fields {
		j.Fields = append(j.Fields, toJSONField(f))
	}
	for _, b := range r.Bases {
		j.BaseSpecifiers = append(j.BaseSpecifiers, toJSONBase(b))
	}
	j.VTableComponents = toJSONVTable(r.VTable)
	return j
}

func fromJSONRecord(j jsonRecordType) (*ir.RecordType, error) {
	r := &ir.RecordType{TypeInfo: fromJSONTypeInfo(j.jsonTypeInfo), IsAnonymous: j.IsAnonymous, TemplateArgs: j.TemplateArgs}
	var err error
	if r.Access, err = jsonDecodeEnum(j.Access, accessJSON); err != nil {
		return nil, err
	}
	if r.RecordKind, err = jsonDecodeEnum(j.RecordKind, recordKindJSON); err != nil {
		return nil, err
	}
	for _, jf := range j.Fields {
		f, err := fromJSONField(jf)
		if err != nil {
			return nil, err
		}
		r.Fields = append(r.Fields, f)
	}
	for _, jb := range j.BaseSpecifiers {
		b, err := fromJSONBase(jb)
		if err != nil {
			return nil, err
		}
		r.Bases = append(r.Bases, b)
	}
	if r.VTable, err = fromJSONVTable(j.VTableComponents); err != nil {
		return nil, err
	}
	return r, nil
}

func toJSONEnumFields(fields []ir.EnumField) []jsonEnumField {
	var out []jsonEnumField
	for _, f := range fields {
		out = append(out, jsonEnumField{Name: f.Name, EnumFieldValue: f.Value})
	}
	return out
}

func fromJSONEnumFields(js []jsonEnumField) []ir.EnumField {
	var out []ir.EnumField
	for _, j := range js {
		out = append(out, ir.EnumField{Name: j.Name, Value: j.EnumFieldValue})
	}
	return out
}

func toJSONEnum(e *ir.EnumType) jsonEnumType {
	return jsonEnumType{
		jsonTypeInfo:   toJSONTypeInfo(&e.TypeInfo),
		Access:         jsonAccess(e.Access),
		UnderlyingType: e.UnderlyingType,
		EnumFields:     toJSONEnumFields(e.Fields),
	}
}

func fromJSONEnum(j jsonEnumType) (*ir.EnumType, error) {
	access, err := jsonDecodeEnum(j.Access, accessJSON)
	if err != nil {
		return nil, err
	}
	return &ir.EnumType{
		TypeInfo:       fromJSONTypeInfo(j.jsonTypeInfo),
		UnderlyingType: j.UnderlyingType,
		Fields:         fromJSONEnumFields(j.EnumFields),
		Access:         access,
	}, nil
}

func toJSONFunction(f *ir.Function) jsonFunction {
	return jsonFunction{
		FunctionName: f.Name,
		LinkerSetKey: f.LinkerSetKey,
		SourceFile:   f.SourceFile,
		Access:       jsonAccess(f.Access),
		ReturnType:   f.ReturnType,
		Parameters:   toJSONParams(f.Parameters),
		TemplateArgs: f.TemplateArgs,
	}
}

func fromJSONFunction(j jsonFunction) (*ir.Function, error) {
	access, err := jsonDecodeEnum(j.Access, accessJSON)
	if err != nil {
		return nil, err
	}
	if j.LinkerSetKey == "" {
		return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("function %q: missing linker_set_key", j.FunctionName)}
	}
	return &ir.Function{
		Name:         j.FunctionName,
		LinkerSetKey: j.LinkerSetKey,
		SourceFile:   j.SourceFile,
		ReturnType:   j.ReturnType,
		Parameters:   fromJSONParams(j.Parameters),
		TemplateArgs: j.TemplateArgs,
		Access:       access,
	}, nil
}

func toJSONGlobalVar(v *ir.GlobalVar) jsonGlobalVar {
	return jsonGlobalVar{
		Name:           v.Name,
		LinkerSetKey:   v.LinkerSetKey,
		SourceFile:     v.SourceFile,
		Access:         jsonAccess(v.Access),
		ReferencedType: v.ReferencedType,
	}
}

func fromJSONGlobalVar(j jsonGlobalVar) (*ir.GlobalVar, error) {
	access, err := jsonDecodeEnum(j.Access, accessJSON)
	if err != nil {
		return nil, err
	}
	if j.LinkerSetKey == "" {
		return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("global var %q: missing linker_set_key", j.Name)}
	}
	return &ir.GlobalVar{
		Name:           j.Name,
		LinkerSetKey:   j.LinkerSetKey,
		SourceFile:     j.SourceFile,
		ReferencedType: j.ReferencedType,
		Access:         access,
	}, nil
}

func toJSONElf(s *ir.ElfSymbol) jsonElfSymbol {
	j := jsonElfSymbol{Name: s.Name}
	if s.Binding != ir.BindingGlobal {
		j.Binding = bindingJSON.mustEncode(s.Binding)
	}
	return j
}

func fromJSONElf(j jsonElfSymbol, kind ir.ElfSymbolKind) (*ir.ElfSymbol, error) {
	binding, err := jsonDecodeEnum(j.Binding, bindingJSON)
	if err != nil {
		return nil, err
	}
	if j.Name == "" {
		return nil, &FormatError{Format: JSON, Message: "elf symbol: missing name"}
	}
	return &ir.ElfSymbol{Name: j.Name, Kind: kind, Binding: binding}, nil
}

func toJSONModule(m *ir.Module) *jsonModule {
	j := &jsonModule{
		RecordTypes:          []jsonRecordType{},
		EnumTypes:            []jsonEnumType{},
		PointerTypes:         []jsonTypeInfo{},
		LvalueReferenceTypes: []jsonTypeInfo{},
		RvalueReferenceTypes: []jsonTypeInfo{},
		BuiltinTypes:         []jsonBuiltinType{},
		QualifiedTypes:       []jsonQualifiedType{},
		ArrayTypes:           []jsonTypeInfo{},
		FunctionTypes:        []jsonFunctionType{},
		Functions:            []jsonFunction{},
		GlobalVars:           []jsonGlobalVar{},
		ElfFunctions:         []jsonElfSymbol{},
		ElfObjects:           []jsonElfSymbol{},
	}
	for _, t := range m.Types() {
		info := toJSONTypeInfo(t.Info())
		switch v := t.(type) {
		case *ir.RecordType:
			j.RecordTypes = append(j.RecordTypes, toJSONRecord(v))
		case *ir.EnumType:
			j.EnumTypes = append(j.EnumTypes, toJSONEnum(v))
		case *ir.PointerType:
			j.PointerTypes = append(j.PointerTypes, info)
		case *ir.LvalueReferenceType:
			j.LvalueReferenceTypes = append(j.LvalueReferenceTypes, info)
		case *ir.RvalueReferenceType:
			j.RvalueReferenceTypes = append(j.RvalueReferenceTypes, info)
		case *ir.BuiltinType:
			j.BuiltinTypes = append(j.BuiltinTypes, jsonBuiltinType{jsonTypeInfo: info, IsUnsigned: v.IsUnsigned, IsIntegral: v.IsIntegral})
		case *ir.QualifiedType:
			j.QualifiedTypes = append(j.QualifiedTypes, jsonQualifiedType{jsonTypeInfo: info, IsConst: v.IsConst, IsVolatile: v.IsVolatile, IsRestricted: v.IsRestricted})
		case *ir.ArrayType:
			j.ArrayTypes = append(j.ArrayTypes, info)
		case *ir.FunctionType:
			j.FunctionTypes = append(j.FunctionTypes, jsonFunctionType{jsonTypeInfo: info, ReturnType: v.ReturnType, Parameters: toJSONParams(v.Parameters)})
		}
	}
	for _, f := range m.Functions() {
		j.Functions = append(j.Functions, toJSONFunction(f))
	}
	for _, v := range m.GlobalVars() {
		j.GlobalVars = append(j.GlobalVars, toJSONGlobalVar(v))
	}
	for _, s := range m.ElfFunctions() {
		j.ElfFunctions = append(j.ElfFunctions, toJSONElf(s))
	}
	for _, s := range m.ElfObjects() {
		j.ElfObjects = append(j.ElfObjects, toJSONElf(s))
	}
	return j
}

func fromJSONModule(j *jsonModule) (*ir.Module, error) {
	m := ir.NewModule()
	var types []ir.TypeIR
	for _, jr := range j.RecordTypes {
		r, err := fromJSONRecord(jr)
		if err != nil {
			return nil, err
		}
		types = append(types, r)
	}
	for _, je := range j.EnumTypes {
		e, err := fromJSONEnum(je)
		if err != nil {
			return nil, err
		}
		types = append(types, e)
	}
	for _, info := range j.PointerTypes {
		types = append(types, &ir.PointerType{TypeInfo: fromJSONTypeInfo(info)})
	}
	for _, info := range j.LvalueReferenceTypes {
		types = append(types, &ir.LvalueReferenceType{TypeInfo: fromJSONTypeInfo(info)})
	}
	for _, info := range j.RvalueReferenceTypes {
		types = append(types, &ir.RvalueReferenceType{TypeInfo: fromJSONTypeInfo(info)})
	}
	for _, b := range j.BuiltinTypes {
		types = append(types, &ir.BuiltinType{TypeInfo: fromJSONTypeInfo(b.jsonTypeInfo), IsUnsigned: b.IsUnsigned, IsIntegral: b.IsIntegral})
	}
	for _, q := range j.QualifiedTypes {
		types = append(types, &ir.QualifiedType{TypeInfo: fromJSONTypeInfo(q.jsonTypeInfo), IsConst: q.IsConst, IsVolatile: q.IsVolatile, IsRestricted: q.IsRestricted})
	}
	for _, info := range j.ArrayTypes {
		types = append(types, &ir.ArrayType{TypeInfo: fromJSONTypeInfo(info)})
	}
	for _, ft := range j.FunctionTypes {
		types = append(types, &ir.FunctionType{TypeInfo: fromJSONTypeInfo(ft.jsonTypeInfo), ReturnType: ft.ReturnType, Parameters: fromJSONParams(ft.Parameters)})
	}
	for _, t := range types {
		if t.Info().LinkerSetKey == "" {
			return nil, &FormatError{Format: JSON, Message: fmt.Sprintf("%s %q: missing linker_set_key", t.Kind(), t.Info().Name)}
		}
		if err := m.AddType(t); err != nil {
			return nil, &FormatError{Format: JSON, Message: err.Error()}
		}
	}
	for _, jf := range j.Functions {
		f, err := fromJSONFunction(jf)
		if err != nil {
			return nil, err
		}
		if err := m.AddFunction(f); err != nil {
			return nil, &FormatError{Format: JSON, Message: err.Error()}
		}
	}
	for _, jv := range j.GlobalVars {
		v, err := fromJSONGlobalVar(jv)
		if err != nil {
			return nil, err
		}
		if err := m.AddGlobalVar(v); err != nil {
			return nil, &FormatError{Format: JSON, Message: err.Error()}
		}
	}
	for kind, syms := range map[ir.ElfSymbolKind][]jsonElfSymbol{ir.ElfFunctionKind: j.ElfFunctions, ir.ElfObjectKind: j.ElfObjects} {
		for _, js := range syms {
			s, err := fromJSONElf(js, kind)
			if err != nil {
				return nil, err
			}
			if err := m.AddElfSymbol(s); err != nil {
				return nil, &FormatError{Format: JSON, Message: err.Error()}
			}
		}
	}
	return m, nil
}

// encodeJSON writes v indented, with a trailing newline.
func encodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeJSON unmarshals data into v, translating syntax errors into a
// FormatError with a line number.
func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		fe := &FormatError{Format: JSON, Message: err.Error()}
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syn):
			fe.Line = lineAt(data, syn.Offset)
		case errors.As(err, &typ):
			fe.Line = lineAt(data, typ.Offset)
		}
		return fe
	}
	return nil
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte{'\n'}) + 1
}
