package repr

import (
	"github.com/protocolbuffers/txtpbfmt/ast"

	"github.com/roach88/headercheck/internal/ir"
)

// Top-level repeated fields of a text-format dump, in print order.
var textTypeTables = []struct {
	field string
	kind  ir.TypeKind
}{
	{"record_types", ir.RecordTypeKind},
	{"enum_types", ir.EnumTypeKind},
	{"pointer_types", ir.PointerTypeKind},
	{"lvalue_reference_types", ir.LvalueReferenceTypeKind},
	{"rvalue_reference_types", ir.RvalueReferenceTypeKind},
	{"builtin_types", ir.BuiltinTypeKind},
	{"qualified_types", ir.QualifiedTypeKind},
	{"array_types", ir.ArrayTypeKind},
	{"function_types", ir.FunctionTypeKind},
}

func encodeTextModule(m *ir.Module) []byte {
	b := &textBuilder{}
	for _, table := range textTypeTables {
		for _, t := range m.TypesOfKind(table.kind) {
			b.msg(table.field, func(c *textBuilder) { writeTextType(c, t) })
		}
	}
	for _, f := range m.Functions() {
		b.msg("functions", func(c *textBuilder) { writeTextFunction(c, f) })
	}
	for _, v := range m.GlobalVars() {
		b.msg("global_vars", func(c *textBuilder) { writeTextGlobalVar(c, v) })
	}
	for _, s := range m.ElfFunctions() {
		b.msg("elf_functions", func(c *textBuilder) { writeTextElfSymbol(c, s) })
	}
	for _, s := range m.ElfObjects() {
		b.msg("elf_objects", func(c *textBuilder) { writeTextElfSymbol(c, s) })
	}
	return b.bytes()
}

func writeTextTypeInfo(b *textBuilder, info *ir.TypeInfo) {
	b.msg("type_info", func(c *textBuilder) {
		c.str("name", info.Name)
		c.uint("size", info.Size)
		c.uint("alignment", info.Alignment)
		c.str("referenced_type", info.ReferencedType)
		c.str("source_file", info.SourceFile)
		c.str("linker_set_key", info.LinkerSetKey)
	})
}

func writeTextType(b *textBuilder, t ir.TypeIR) {
	writeTextTypeInfo(b, t.Info())
	switch v := t.(type) {
	case *ir.RecordType:
		writeTextRecordBody(b, v)
	case *ir.EnumType:
		writeTextEnumBody(b, v)
	case *ir.BuiltinType:
		b.boolean("is_unsigned", v.IsUnsigned)
		b.boolean("is_integral", v.IsIntegral)
	case *ir.QualifiedType:
		b.boolean("is_const", v.IsConst)
		b.boolean("is_volatile", v.IsVolatile)
		b.boolean("is_restricted", v.IsRestricted)
	case *ir.FunctionType:
		b.str("return_type", v.ReturnType)
		writeTextParameters(b, v.Parameters)
	}
}

func writeTextField(b *textBuilder, f ir.RecordField) {
	b.str("referenced_type", f.ReferencedType)
	b.uint("field_offset", f.Offset)
	b.str("field_name", f.Name)
	b.enum("access", accessText.mustEncode(f.Access))
}

func writeTextBase(b *textBuilder, base ir.BaseSpecifier) {
	b.str("referenced_type", base.ReferencedType)
	b.boolean("is_virtual", base.IsVirtual)
	b.enum("access", accessText.mustEncode(base.Access))
	if base.Offset != 0 {
		b.uint("offset", base.Offset)
	}
}

func writeTextVTable(b *textBuilder, comps []ir.VTableComponent) {
	for _, vc := range comps {
		b.msg("vtable_components", func(c *textBuilder) {
			c.enum("kind", vtableKindText.mustEncode(vc.Kind))
			c.str("mangled_component_name", vc.MangledName)
			c.int("component_value", vc.Value)
			c.optBool("is_pure", vc.IsPure)
		})
	}
}

func writeTextTemplateInfo(b *textBuilder, args []string) {
	if len(args) == 0 {
		return
	}
	b.msg("template_info", func(c *textBuilder) {
		for _, arg := range args {
			c.msg("elements", func(e *textBuilder) { e.str("referenced_type", arg) })
		}
	})
}

func writeTextRecordBody(b *textBuilder, r *ir.RecordType) {
	for _, f := range r.Fields {
		b.msg("fields", func(c *textBuilder) { writeTextField(c, f) })
	}
	for _, base := range r.Bases {
		b.msg("base_specifiers", func(c *textBuilder) { writeTextBase(c, base) })
	}
	if len(r.VTable) > 0 {
		b.msg("vtable_layout", func(c *textBuilder) { writeTextVTable(c, r.VTable) })
	}
	writeTextTemplateInfo(b, r.TemplateArgs)
	b.enum("access", accessText.mustEncode(r.Access))
	b.optBool("is_anonymous", r.IsAnonymous)
	b.enum("record_kind", recordKindText.mustEncode(r.RecordKind))
}

func writeTextEnumField(b *textBuilder, f ir.EnumField) {
	b.int("enum_field_value", f.Value)
	b.str("name", f.Name)
}

func writeTextEnumBody(b *textBuilder, e *ir.EnumType) {
	b.str("underlying_type", e.UnderlyingType)
	for _, f := range e.Fields {
		b.msg("enum_fields", func(c *textBuilder) { writeTextEnumField(c, f) })
	}
	b.enum("access", accessText.mustEncode(e.Access))
}

func writeTextParameters(b *textBuilder, params []ir.Parameter) {
	for _, p := range params {
		b.msg("parameters", func(c *textBuilder) {
			c.str("referenced_type", p.ReferencedType)
			c.boolean("default_arg", p.IsDefault)
			c.optBool("is_this_ptr", p.IsThisPtr)
		})
	}
}

func writeTextFunction(b *textBuilder, f *ir.Function) {
	b.str("return_type", f.ReturnType)
	b.str("function_name", f.Name)
	b.str("source_file", f.SourceFile)
	writeTextParameters(b, f.Parameters)
	b.str("linker_set_key", f.LinkerSetKey)
	writeTextTemplateInfo(b, f.TemplateArgs)
	b.enum("access", accessText.mustEncode(f.Access))
}

func writeTextGlobalVar(b *textBuilder, v *ir.GlobalVar) {
	b.str("name", v.Name)
	b.str("source_file", v.SourceFile)
	b.str("linker_set_key", v.LinkerSetKey)
	b.str("referenced_type", v.ReferencedType)
	b.enum("access", accessText.mustEncode(v.Access))
}

func writeTextElfSymbol(b *textBuilder, s *ir.ElfSymbol) {
	b.str("name", s.Name)
	b.enum("binding", bindingText.mustEncode(s.Binding))
}

func decodeTextModule(data []byte) (*ir.Module, error) {
	nodes, err := parseText(data)
	if err != nil {
		return nil, err
	}
	m := ir.NewModule()
	err = forEachField(nodes, func(nd *ast.Node) error {
		for _, table := range textTypeTables {
			if nd.Name != table.field {
				continue
			}
			t, err := readTextType(nd, table.kind)
			if err != nil {
				return err
			}
			if t.Info().LinkerSetKey == "" {
				return nodeError(nd, "missing linker_set_key")
			}
			if err := m.AddType(t); err != nil {
				return nodeError(nd, "%v", err)
			}
			return nil
		}
		switch nd.Name {
		case "functions":
			f, err := readTextFunction(nd)
			if err != nil {
				return err
			}
			if err := m.AddFunction(f); err != nil {
				return nodeError(nd, "%v", err)
			}
		case "global_vars":
			v, err := readTextGlobalVar(nd)
			if err != nil {
				return err
			}
			if err := m.AddGlobalVar(v); err != nil {
				return nodeError(nd, "%v", err)
			}
		case "elf_functions", "elf_objects":
			kind := ir.ElfFunctionKind
			if nd.Name == "elf_objects" {
				kind = ir.ElfObjectKind
			}
			s, err := readTextElfSymbol(nd, kind)
			if err != nil {
				return err
			}
			if err := m.AddElfSymbol(s); err != nil {
				return nodeError(nd, "%v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// readMessage checks that nd is a message and visits its fields.
func readMessage(nd *ast.Node, fn func(*ast.Node) error) error {
	if err := requireMessage(nd); err != nil {
		return err
	}
	return forEachField(nd.Children, fn)
}

func readTextTypeInfo(nd *ast.Node, info *ir.TypeInfo) error {
	return readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "name":
			info.Name, err = textString(f)
		case "size":
			info.Size, err = textUint(f)
		case "alignment":
			info.Alignment, err = textUint(f)
		case "referenced_type":
			info.ReferencedType, err = textString(f)
		case "source_file":
			info.SourceFile, err = textString(f)
		case "linker_set_key":
			info.LinkerSetKey, err = textString(f)
		}
		return err
	})
}

func readTextType(nd *ast.Node, kind ir.TypeKind) (ir.TypeIR, error) {
	var t ir.TypeIR
	var body func(*ast.Node) error
	switch kind {
	case ir.RecordTypeKind:
		r := &ir.RecordType{}
		t, body = r, func(f *ast.Node) error { return readTextRecordField(f, r) }
	case ir.EnumTypeKind:
		e := &ir.EnumType{}
		t, body = e, func(f *ast.Node) error { return readTextEnumField(f, e) }
	case ir.BuiltinTypeKind:
		bt := &ir.BuiltinType{}
		t, body = bt, func(f *ast.Node) (err error) {
			switch f.Name {
			case "is_unsigned":
				bt.IsUnsigned, err = textBool(f)
			case "is_integral":
				bt.IsIntegral, err = textBool(f)
			}
			return err
		}
	case ir.QualifiedTypeKind:
		q := &ir.QualifiedType{}
		t, body = q, func(f *ast.Node) (err error) {
			switch f.Name {
			case "is_const":
				q.IsConst, err = textBool(f)
			case "is_volatile":
				q.IsVolatile, err = textBool(f)
			case "is_restricted":
				q.IsRestricted, err = textBool(f)
			}
			return err
		}
	case ir.FunctionTypeKind:
		ft := &ir.FunctionType{}
		t, body = ft, func(f *ast.Node) (err error) {
			switch f.Name {
			case "return_type":
				ft.ReturnType, err = textString(f)
			case "parameters":
				var p ir.Parameter
				p, err = readTextParameter(f)
				ft.Parameters = append(ft.Parameters, p)
			}
			return err
		}
	case ir.PointerTypeKind:
		t = &ir.PointerType{}
	case ir.LvalueReferenceTypeKind:
		t = &ir.LvalueReferenceType{}
	case ir.RvalueReferenceTypeKind:
		t = &ir.RvalueReferenceType{}
	case ir.ArrayTypeKind:
		t = &ir.ArrayType{}
	}
	err := readMessage(nd, func(f *ast.Node) error {
		if f.Name == "type_info" {
			return readTextTypeInfo(f, t.Info())
		}
		if body != nil {
			return body(f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func readTextRecordField(f *ast.Node, r *ir.RecordType) (err error) {
	switch f.Name {
	case "fields":
		var fld ir.RecordField
		fld, err = readTextField(f)
		r.Fields = append(r.Fields, fld)
	case "base_specifiers":
		var base ir.BaseSpecifier
		base, err = readTextBase(f)
		r.Bases = append(r.Bases, base)
	case "vtable_layout":
		r.VTable, err = readTextVTable(f)
	case "template_info":
		r.TemplateArgs, err = readTextTemplateInfo(f)
	case "access":
		r.Access, err = textEnum(f, accessText)
	case "is_anonymous":
		r.IsAnonymous, err = textBool(f)
	case "record_kind":
		r.RecordKind, err = textEnum(f, recordKindText)
	}
	return err
}

func readTextField(nd *ast.Node) (ir.RecordField, error) {
	var fld ir.RecordField
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "referenced_type":
			fld.ReferencedType, err = textString(f)
		case "field_offset":
			fld.Offset, err = textUint(f)
		case "field_name":
			fld.Name, err = textString(f)
		case "access":
			fld.Access, err = textEnum(f, accessText)
		}
		return err
	})
	return fld, err
}

func readTextBase(nd *ast.Node) (ir.BaseSpecifier, error) {
	var base ir.BaseSpecifier
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "referenced_type":
			base.ReferencedType, err = textString(f)
		case "is_virtual":
			base.IsVirtual, err = textBool(f)
		case "access":
			base.Access, err = textEnum(f, accessText)
		case "offset":
			base.Offset, err = textUint(f)
		}
		return err
	})
	return base, err
}

func readTextVTable(nd *ast.Node) ([]ir.VTableComponent, error) {
	var comps []ir.VTableComponent
	err := readMessage(nd, func(f *ast.Node) error {
		if f.Name != "vtable_components" {
			return nil
		}
		var vc ir.VTableComponent
		err := readMessage(f, func(g *ast.Node) (err error) {
			switch g.Name {
			case "kind":
				vc.Kind, err = textEnum(g, vtableKindText)
			case "mangled_component_name":
				vc.MangledName, err = textString(g)
			case "component_value":
				vc.Value, err = textInt(g)
			case "is_pure":
				vc.IsPure, err = textBool(g)
			}
			return err
		})
		comps = append(comps, vc)
		return err
	})
	return comps, err
}

func readTextTemplateInfo(nd *ast.Node) ([]string, error) {
	var args []string
	err := readMessage(nd, func(f *ast.Node) error {
		if f.Name != "elements" {
			return nil
		}
		return readMessage(f, func(g *ast.Node) error {
			if g.Name != "referenced_type" {
				return nil
			}
			arg, err := textString(g)
			args = append(args, arg)
			return err
		})
	})
	return args, err
}

func readTextEnumField(f *ast.Node, e *ir.EnumType) (err error) {
	switch f.Name {
	case "underlying_type":
		e.UnderlyingType, err = textString(f)
	case "enum_fields":
		var ef ir.EnumField
		ef, err = readTextEnumValue(f)
		e.Fields = append(e.Fields, ef)
	case "access":
		e.Access, err = textEnum(f, accessText)
	}
	return err
}

func readTextEnumValue(nd *ast.Node) (ir.EnumField, error) {
	var ef ir.EnumField
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "enum_field_value":
			ef.Value, err = textInt(f)
		case "name":
			ef.Name, err = textString(f)
		}
		return err
	})
	return ef, err
}

func readTextParameter(nd *ast.Node) (ir.Parameter, error) {
	var p ir.Parameter
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "referenced_type":
			p.ReferencedType, err = textString(f)
		case "default_arg":
			p.IsDefault, err = textBool(f)
		case "is_this_ptr":
			p.IsThisPtr, err = textBool(f)
		}
		return err
	})
	return p, err
}

func readTextFunction(nd *ast.Node) (*ir.Function, error) {
	fn := &ir.Function{}
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "return_type":
			fn.ReturnType, err = textString(f)
		case "function_name":
			fn.Name, err = textString(f)
		case "source_file":
			fn.SourceFile, err = textString(f)
		case "parameters":
			var p ir.Parameter
			p, err = readTextParameter(f)
			fn.Parameters = append(fn.Parameters, p)
		case "linker_set_key":
			fn.LinkerSetKey, err = textString(f)
		case "template_info":
			fn.TemplateArgs, err = readTextTemplateInfo(f)
		case "access":
			fn.Access, err = textEnum(f, accessText)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if fn.LinkerSetKey == "" {
		return nil, nodeError(nd, "missing linker_set_key")
	}
	return fn, nil
}

func readTextGlobalVar(nd *ast.Node) (*ir.GlobalVar, error) {
	v := &ir.GlobalVar{}
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "name":
			v.Name, err = textString(f)
		case "source_file":
			v.SourceFile, err = textString(f)
		case "linker_set_key":
			v.LinkerSetKey, err = textString(f)
		case "referenced_type":
			v.ReferencedType, err = textString(f)
		case "access":
			v.Access, err = textEnum(f, accessText)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if v.LinkerSetKey == "" {
		return nil, nodeError(nd, "missing linker_set_key")
	}
	return v, nil
}

func readTextElfSymbol(nd *ast.Node, kind ir.ElfSymbolKind) (*ir.ElfSymbol, error) {
	s := &ir.ElfSymbol{Kind: kind}
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "name":
			s.Name, err = textString(f)
		case "binding":
			s.Binding, err = textEnum(f, bindingText)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		return nil, nodeError(nd, "missing name")
	}
	return s, nil
}
