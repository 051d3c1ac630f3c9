package repr

import (
	"github.com/protocolbuffers/txtpbfmt/ast"

	"github.com/roach88/headercheck/internal/ir"
)

func writeTextStatus(b *textBuilder, name string, s ir.CompatibilityStatus) {
	for _, bit := range statusBits(s) {
		b.enum(name, statusText.mustEncode(bit))
	}
}

func writeTextRecordDiff(b *textBuilder, d *ir.RecordTypeDiff) {
	b.str("name", d.Name)
	b.optStr("linker_set_key", d.LinkerSetKey)
	b.str("type_stack", d.TypeStack)
	if d.TypeInfoDiff != nil {
		b.msg("type_info_diff", func(c *textBuilder) {
			c.msg("old_type_info", func(t *textBuilder) {
				t.uint("size", d.TypeInfoDiff.OldSize)
				t.uint("alignment", d.TypeInfoDiff.OldAlignment)
			})
			c.msg("new_type_info", func(t *textBuilder) {
				t.uint("size", d.TypeInfoDiff.NewSize)
				t.uint("alignment", d.TypeInfoDiff.NewAlignment)
			})
		})
	}
	if d.AccessDiff != nil {
		b.msg("access_diff", func(c *textBuilder) {
			c.enum("old_access", accessText.mustEncode(d.AccessDiff.Old))
			c.enum("new_access", accessText.mustEncode(d.AccessDiff.New))
		})
	}
	if d.VTableDiff != nil {
		b.msg("vtable_layout_diff", func(c *textBuilder) {
			c.msg("old_vtable", func(v *textBuilder) { writeTextVTable(v, d.VTableDiff.Old) })
			c.msg("new_vtable", func(v *textBuilder) { writeTextVTable(v, d.VTableDiff.New) })
		})
	}
	if d.BasesDiff != nil {
		b.msg("bases_diff", func(c *textBuilder) {
			for _, base := range d.BasesDiff.Old {
				c.msg("old_bases", func(v *textBuilder) { writeTextBase(v, base) })
			}
			for _, base := range d.BasesDiff.New {
				c.msg("new_bases", func(v *textBuilder) { writeTextBase(v, base) })
			}
		})
	}
	for _, f := range d.FieldsRemoved {
		b.msg("fields_removed", func(c *textBuilder) { writeTextField(c, f) })
	}
	for _, f := range d.FieldsAdded {
		b.msg("fields_added", func(c *textBuilder) { writeTextField(c, f) })
	}
	for _, fd := range d.FieldDiffs {
		b.msg("fields_diff", func(c *textBuilder) {
			c.msg("old_field", func(v *textBuilder) { writeTextField(v, fd.Old) })
			c.msg("new_field", func(v *textBuilder) { writeTextField(v, fd.New) })
		})
	}
}

func writeTextEnumDiff(b *textBuilder, d *ir.EnumTypeDiff) {
	b.str("name", d.Name)
	b.optStr("linker_set_key", d.LinkerSetKey)
	b.str("type_stack", d.TypeStack)
	if d.UnderlyingTypeDiff != nil {
		b.msg("underlying_type_diff", func(c *textBuilder) {
			c.str("old_type", d.UnderlyingTypeDiff.Old)
			c.str("new_type", d.UnderlyingTypeDiff.New)
		})
	}
	for _, f := range d.FieldsRemoved {
		b.msg("fields_removed", func(c *textBuilder) { writeTextEnumField(c, f) })
	}
	for _, f := range d.FieldsAdded {
		b.msg("fields_added", func(c *textBuilder) { writeTextEnumField(c, f) })
	}
	for _, fd := range d.FieldDiffs {
		b.msg("fields_diff", func(c *textBuilder) {
			c.msg("old_field", func(v *textBuilder) { writeTextEnumField(v, fd.Old) })
			c.msg("new_field", func(v *textBuilder) { writeTextEnumField(v, fd.New) })
		})
	}
}

func encodeTextReport(r *ir.DiffReport) []byte {
	b := &textBuilder{}
	b.str("lib_name", r.LibName)
	b.str("arch", r.Arch)

	records := func(field string, diffs []*ir.RecordTypeDiff) {
		for _, d := range diffs {
			b.msg(field, func(c *textBuilder) { writeTextRecordDiff(c, d) })
		}
	}
	enums := func(field string, diffs []*ir.EnumTypeDiff) {
		for _, d := range diffs {
			b.msg(field, func(c *textBuilder) { writeTextEnumDiff(c, d) })
		}
	}
	functions := func(field string, fns []*ir.Function) {
		for _, f := range fns {
			b.msg(field, func(c *textBuilder) { writeTextFunction(c, f) })
		}
	}
	vars := func(field string, vs []*ir.GlobalVar) {
		for _, v := range vs {
			b.msg(field, func(c *textBuilder) { writeTextGlobalVar(c, v) })
		}
	}
	recordTypes := func(field string, ts []*ir.RecordType) {
		for _, t := range ts {
			b.msg(field, func(c *textBuilder) { writeTextType(c, t) })
		}
	}
	enumTypes := func(field string, ts []*ir.EnumType) {
		for _, t := range ts {
			b.msg(field, func(c *textBuilder) { writeTextType(c, t) })
		}
	}
	elfs := func(field string, syms []*ir.ElfSymbol) {
		for _, s := range syms {
			b.msg(field, func(c *textBuilder) { writeTextElfSymbol(c, s) })
		}
	}

	records("record_type_diffs", r.RecordTypeDiffs)
	enums("enum_type_diffs", r.EnumTypeDiffs)
	enums("enum_type_extension_diffs", r.EnumTypeExtensionDiffs)
	for _, d := range r.FunctionDiffs {
		b.msg("function_diffs", func(c *textBuilder) {
			c.str("name", d.Name)
			c.msg("old", func(v *textBuilder) { writeTextFunction(v, d.Old) })
			c.msg("new", func(v *textBuilder) { writeTextFunction(v, d.New) })
		})
	}
	for _, d := range r.GlobalVarDiffs {
		b.msg("global_var_diffs", func(c *textBuilder) {
			c.str("name", d.Name)
			c.msg("old", func(v *textBuilder) { writeTextGlobalVar(v, d.Old) })
			c.msg("new", func(v *textBuilder) { writeTextGlobalVar(v, d.New) })
		})
	}
	functions("functions_removed", r.FunctionsRemoved)
	vars("global_vars_removed", r.GlobalVarsRemoved)
	functions("functions_added", r.FunctionsAdded)
	vars("global_vars_added", r.GlobalVarsAdded)
	records("unreferenced_record_type_diffs", r.UnreferencedRecordTypeDiffs)
	enums("unreferenced_enum_type_diffs", r.UnreferencedEnumTypeDiffs)
	enums("unreferenced_enum_type_extension_diffs", r.UnreferencedEnumTypeExtensionDiffs)
	recordTypes("unreferenced_record_types_removed", r.UnreferencedRecordTypesRemoved)
	recordTypes("unreferenced_record_types_added", r.UnreferencedRecordTypesAdded)
	enumTypes("unreferenced_enum_types_removed", r.UnreferencedEnumTypesRemoved)
	enumTypes("unreferenced_enum_types_added", r.UnreferencedEnumTypesAdded)
	elfs("removed_elf_functions", r.RemovedElfFunctions)
	elfs("added_elf_functions", r.AddedElfFunctions)
	elfs("removed_elf_objects", r.RemovedElfObjects)
	elfs("added_elf_objects", r.AddedElfObjects)
	writeTextStatus(b, "compatibility_status", r.Status)
	return b.bytes()
}

func decodeTextReport(data []byte) (*ir.DiffReport, error) {
	nodes, err := parseText(data)
	if err != nil {
		return nil, err
	}
	r := &ir.DiffReport{}
	err = forEachField(nodes, func(nd *ast.Node) (err error) {
		switch nd.Name {
		case "lib_name":
			r.LibName, err = textString(nd)
		case "arch":
			r.Arch, err = textString(nd)
		case "compatibility_status":
			var bit ir.CompatibilityStatus
			bit, err = textEnum(nd, statusText)
			r.Status |= bit
		case "record_type_diffs":
			err = appendTextRecordDiff(nd, &r.RecordTypeDiffs)
		case "unreferenced_record_type_diffs":
			err = appendTextRecordDiff(nd, &r.UnreferencedRecordTypeDiffs)
		case "enum_type_diffs":
			err = appendTextEnumDiff(nd, &r.EnumTypeDiffs)
		case "enum_type_extension_diffs":
			err = appendTextEnumDiff(nd, &r.EnumTypeExtensionDiffs)
		case "unreferenced_enum_type_diffs":
			err = appendTextEnumDiff(nd, &r.UnreferencedEnumTypeDiffs)
		case "unreferenced_enum_type_extension_diffs":
			err = appendTextEnumDiff(nd, &r.UnreferencedEnumTypeExtensionDiffs)
		case "function_diffs":
			d := &ir.FunctionDiff{}
			err = readMessage(nd, func(f *ast.Node) (err error) {
				switch f.Name {
				case "name":
					d.Name, err = textString(f)
				case "old":
					d.Old, err = readTextFunction(f)
				case "new":
					d.New, err = readTextFunction(f)
				}
				return err
			})
			if err == nil && (d.Old == nil || d.New == nil) {
				err = nodeError(nd, "function diff needs old and new")
			}
			r.FunctionDiffs = append(r.FunctionDiffs, d)
		case "global_var_diffs":
			d := &ir.GlobalVarDiff{}
			err = readMessage(nd, func(f *ast.Node) (err error) {
				switch f.Name {
				case "name":
					d.Name, err = textString(f)
				case "old":
					d.Old, err = readTextGlobalVar(f)
				case "new":
					d.New, err = readTextGlobalVar(f)
				}
				return err
			})
			if err == nil && (d.Old == nil || d.New == nil) {
				err = nodeError(nd, "global var diff needs old and new")
			}
			r.GlobalVarDiffs = append(r.GlobalVarDiffs, d)
		case "functions_removed", "functions_added":
			var f *ir.Function
			if f, err = readTextFunction(nd); err == nil {
				if nd.Name == "functions_removed" {
					r.FunctionsRemoved = append(r.FunctionsRemoved, f)
				} else {
					r.FunctionsAdded = append(r.FunctionsAdded, f)
				}
			}
		case "global_vars_removed", "global_vars_added":
			var v *ir.GlobalVar
			if v, err = readTextGlobalVar(nd); err == nil {
				if nd.Name == "global_vars_removed" {
					r.GlobalVarsRemoved = append(r.GlobalVarsRemoved, v)
				} else {
					r.GlobalVarsAdded = append(r.GlobalVarsAdded, v)
				}
			}
		case "unreferenced_record_types_removed", "unreferenced_record_types_added":
			var t ir.TypeIR
			if t, err = readTextType(nd, ir.RecordTypeKind); err == nil {
				if nd.Name == "unreferenced_record_types_removed" {
					r.UnreferencedRecordTypesRemoved = append(r.UnreferencedRecordTypesRemoved, t.(*ir.RecordType))
				} else {
					r.UnreferencedRecordTypesAdded = append(r.UnreferencedRecordTypesAdded, t.(*ir.RecordType))
				}
			}
		case "unreferenced_enum_types_removed", "unreferenced_enum_types_added":
			var t ir.TypeIR
			if t, err = readTextType(nd, ir.EnumTypeKind); err == nil {
				if nd.Name == "unreferenced_enum_types_removed" {
					r.UnreferencedEnumTypesRemoved = append(r.UnreferencedEnumTypesRemoved, t.(*ir.EnumType))
				} else {
					r.UnreferencedEnumTypesAdded = append(r.UnreferencedEnumTypesAdded, t.(*ir.EnumType))
				}
			}
		case "removed_elf_functions":
			err = appendTextElf(nd, ir.ElfFunctionKind, &r.RemovedElfFunctions)
		case "added_elf_functions":
			err = appendTextElf(nd, ir.ElfFunctionKind, &r.AddedElfFunctions)
		case "removed_elf_objects":
			err = appendTextElf(nd, ir.ElfObjectKind, &r.RemovedElfObjects)
		case "added_elf_objects":
			err = appendTextElf(nd, ir.ElfObjectKind, &r.AddedElfObjects)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func appendTextElf(nd *ast.Node, kind ir.ElfSymbolKind, dst *[]*ir.ElfSymbol) error {
	s, err := readTextElfSymbol(nd, kind)
	if err != nil {
		return err
	}
	*dst = append(*dst, s)
	return nil
}

func readTextSizeAlign(nd *ast.Node) (size, align uint64, err error) {
	err = readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "size":
			size, err = textUint(f)
		case "alignment":
			align, err = textUint(f)
		}
		return err
	})
	return size, align, err
}

func appendTextRecordDiff(nd *ast.Node, dst *[]*ir.RecordTypeDiff) error {
	d := &ir.RecordTypeDiff{}
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "name":
			d.Name, err = textString(f)
		case "linker_set_key":
			d.LinkerSetKey, err = textString(f)
		case "type_stack":
			d.TypeStack, err = textString(f)
		case "type_info_diff":
			d.TypeInfoDiff = &ir.TypeInfoDiff{}
			err = readMessage(f, func(g *ast.Node) (err error) {
				switch g.Name {
				case "old_type_info":
					d.TypeInfoDiff.OldSize, d.TypeInfoDiff.OldAlignment, err = readTextSizeAlign(g)
				case "new_type_info":
					d.TypeInfoDiff.NewSize, d.TypeInfoDiff.NewAlignment, err = readTextSizeAlign(g)
				}
				return err
			})
		case "access_diff":
			d.AccessDiff = &ir.AccessDiff{}
			err = readMessage(f, func(g *ast.Node) (err error) {
				switch g.Name {
				case "old_access":
					d.AccessDiff.Old, err = textEnum(g, accessText)
				case "new_access":
					d.AccessDiff.New, err = textEnum(g, accessText)
				}
				return err
			})
		case "vtable_layout_diff":
			d.VTableDiff = &ir.VTableDiff{}
			err = readMessage(f, func(g *ast.Node) (err error) {
				switch g.Name {
				case "old_vtable":
					d.VTableDiff.Old, err = readTextVTable(g)
				case "new_vtable":
					d.VTableDiff.New, err = readTextVTable(g)
				}
				return err
			})
		case "bases_diff":
			d.BasesDiff = &ir.BasesDiff{}
			err = readMessage(f, func(g *ast.Node) error {
				if g.Name != "old_bases" && g.Name != "new_bases" {
					return nil
				}
				base, err := readTextBase(g)
				if g.Name == "old_bases" {
					d.BasesDiff.Old = append(d.BasesDiff.Old, base)
				} else {
					d.BasesDiff.New = append(d.BasesDiff.New, base)
				}
				return err
			})
		case "fields_removed", "fields_added":
			var fld ir.RecordField
			fld, err = readTextField(f)
			if f.Name == "fields_removed" {
				d.FieldsRemoved = append(d.FieldsRemoved, fld)
			} else {
				d.FieldsAdded = append(d.FieldsAdded, fld)
			}
		case "fields_diff":
			var fd ir.FieldDiff
			err = readMessage(f, func(g *ast.Node) (err error) {
				switch g.Name {
				case "old_field":
					fd.Old, err = readTextField(g)
				case "new_field":
					fd.New, err = readTextField(g)
				}
				return err
			})
			d.FieldDiffs = append(d.FieldDiffs, fd)
		}
		return err
	})
	if err != nil {
		return err
	}
	*dst = append(*dst, d)
	return nil
}

func appendTextEnumDiff(nd *ast.Node, dst *[]*ir.EnumTypeDiff) error {
	d := &ir.EnumTypeDiff{}
	err := readMessage(nd, func(f *ast.Node) (err error) {
		switch f.Name {
		case "name":
			d.Name, err = textString(f)
		case "linker_set_key":
			d.LinkerSetKey, err = textString(f)
		case "type_stack":
			d.TypeStack, err = textString(f)
		case "underlying_type_diff":
			d.UnderlyingTypeDiff = &ir.UnderlyingTypeDiff{}
			err = readMessage(f, func(g *ast.Node) (err error) {
				switch g.Name {
				case "old_type":
					d.UnderlyingTypeDiff.Old, err = textString(g)
				case "new_type":
					d.UnderlyingTypeDiff.New, err = textString(g)
				}
				return err
			})
		case "fields_removed", "fields_added":
			var ef ir.EnumField
			ef, err = readTextEnumValue(f)
			if f.Name == "fields_removed" {
				d.FieldsRemoved = append(d.FieldsRemoved, ef)
			} else {
				d.FieldsAdded = append(d.FieldsAdded, ef)
			}
		case "fields_diff":
			var fd ir.EnumFieldDiff
			err = readMessage(f, func(g *ast.Node) (err error) {
				switch g.Name {
				case "old_field":
					fd.Old, err = readTextEnumValue(g)
				case "new_field":
					fd.New, err = readTextEnumValue(g)
				}
				return err
			})
			d.FieldDiffs = append(d.FieldDiffs, fd)
		}
		return err
	})
	if err != nil {
		return err
	}
	*dst = append(*dst, d)
	return nil
}

func encodeTextMerged(m *ir.MergedReport) []byte {
	b := &textBuilder{}
	writeTextStatus(b, "status", m.Status)
	b.enum("severity", severityText.mustEncode(m.Severity))
	for _, e := range m.Reports {
		b.msg("reports", func(c *textBuilder) {
			c.str("lib_name", e.LibName)
			c.str("arch", e.Arch)
			writeTextStatus(c, "status", e.Status)
			c.str("path", e.Path)
			c.optStr("fingerprint", e.Fingerprint)
		})
	}
	return b.bytes()
}

func decodeTextMerged(data []byte) (*ir.MergedReport, error) {
	nodes, err := parseText(data)
	if err != nil {
		return nil, err
	}
	m := &ir.MergedReport{}
	err = forEachField(nodes, func(nd *ast.Node) (err error) {
		switch nd.Name {
		case "status":
			var bit ir.CompatibilityStatus
			bit, err = textEnum(nd, statusText)
			m.Status |= bit
		case "severity":
			m.Severity, err = textEnum(nd, severityText)
		case "reports":
			var e ir.MergedEntry
			err = readMessage(nd, func(f *ast.Node) (err error) {
				switch f.Name {
				case "lib_name":
					e.LibName, err = textString(f)
				case "arch":
					e.Arch, err = textString(f)
				case "status":
					var bit ir.CompatibilityStatus
					bit, err = textEnum(f, statusText)
					e.Status |= bit
				case "path":
					e.Path, err = textString(f)
				case "fingerprint":
					e.Fingerprint, err = textString(f)
				}
				return err
			})
			m.Reports = append(m.Reports, e)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
