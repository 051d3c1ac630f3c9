package repr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/testutil"
)

var formats = []TextFormat{ProtobufTextFormat, JSON}

func assertGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, data)
}

func smallModule(t *testing.T) *ir.Module {
	return testutil.NewModule(t).
		Builtin("int", 4).
		Function("_Z3fooi", "int", "int").
		ElfFunction("_Z3fooi", ir.BindingGlobal).
		Build()
}

func sampleReport() *ir.DiffReport {
	r := &ir.DiffReport{
		LibName: "libfoo",
		Arch:    "arm64",
		RecordTypeDiffs: []*ir.RecordTypeDiff{{
			Name:         "S",
			LinkerSetKey: "S",
			TypeStack:    "_Z3usep-> S",
			TypeInfoDiff: &ir.TypeInfoDiff{OldSize: 4, NewSize: 8, OldAlignment: 4, NewAlignment: 4},
			AccessDiff:   &ir.AccessDiff{Old: ir.AccessPublic, New: ir.AccessPrivate},
			VTableDiff: &ir.VTableDiff{
				Old: []ir.VTableComponent{{Kind: ir.VTableRTTI, MangledName: "_ZTI1S"}},
				New: []ir.VTableComponent{{Kind: ir.VTableRTTI, MangledName: "_ZTI1S"}, {Kind: ir.VTableFunctionPointer, MangledName: "_ZN1S1fEv"}},
			},
			BasesDiff:     &ir.BasesDiff{Old: []ir.BaseSpecifier{{ReferencedType: "B"}}},
			FieldsRemoved: []ir.RecordField{{Name: "c", ReferencedType: "char", Offset: 32}},
			FieldsAdded:   []ir.RecordField{{Name: "b", ReferencedType: "int", Offset: 32}},
			FieldDiffs: []ir.FieldDiff{{
				Old: ir.RecordField{Name: "a", ReferencedType: "int"},
				New: ir.RecordField{Name: "a", ReferencedType: "long"},
			}},
		}},
		EnumTypeExtensionDiffs: []*ir.EnumTypeDiff{{
			Name:        "Color",
			TypeStack:   "Color",
			FieldsAdded: []ir.EnumField{{Name: "BLUE", Value: 2}},
		}},
		UnreferencedEnumTypeDiffs: []*ir.EnumTypeDiff{{
			Name:               "Mode",
			TypeStack:          "Mode",
			UnderlyingTypeDiff: &ir.UnderlyingTypeDiff{Old: "int", New: "unsigned int"},
			FieldDiffs:         []ir.EnumFieldDiff{{Old: ir.EnumField{Name: "A", Value: 1}, New: ir.EnumField{Name: "A", Value: 2}}},
		}},
		FunctionDiffs: []*ir.FunctionDiff{{
			Name: "_Z3usep",
			Old:  &ir.Function{Name: "use", LinkerSetKey: "_Z3usep", ReturnType: "void"},
			New:  &ir.Function{Name: "use", LinkerSetKey: "_Z3usep", ReturnType: "int"},
		}},
		FunctionsRemoved: []*ir.Function{{Name: "gone", LinkerSetKey: "_Z4gonev", ReturnType: "void"}},
		GlobalVarsAdded:  []*ir.GlobalVar{{Name: "fresh", LinkerSetKey: "fresh", ReferencedType: "int"}},
		UnreferencedRecordTypesRemoved: []*ir.RecordType{{
			TypeInfo: ir.TypeInfo{Name: "Old", LinkerSetKey: "Old", Size: 4, Alignment: 4},
		}},
		RemovedElfFunctions: []*ir.ElfSymbol{{Name: "_Z4gonev", Kind: ir.ElfFunctionKind}},
		AddedElfObjects:     []*ir.ElfSymbol{{Name: "fresh", Kind: ir.ElfObjectKind, Binding: ir.BindingWeak}},
	}
	r.Status = r.ComputeStatus()
	return r
}

// TestModule_RoundTrip tests that every entity survives encode and decode in both formats.
func TestModule_RoundTrip(t *testing.T) {
	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			m := testutil.SampleModule(t)

			data, err := MarshalModule(m, format)
			require.NoError(t, err)
			got, err := UnmarshalModule(data, format)
			require.NoError(t, err)

			assert.Equal(t, m, got)
		})
	}
}

// TestModule_Golden pins the exact wire layout of a small dump.
func TestModule_Golden(t *testing.T) {
	m := smallModule(t)

	text, err := MarshalModule(m, ProtobufTextFormat)
	require.NoError(t, err)
	assertGolden(t, "small_module.txtpb", text)

	js, err := MarshalModule(m, JSON)
	require.NoError(t, err)
	assertGolden(t, "small_module.json", js)
}

// TestModule_JSONEmptyTables tests that an empty module still lists every table.
func TestModule_JSONEmptyTables(t *testing.T) {
	data, err := MarshalModule(ir.NewModule(), JSON)
	require.NoError(t, err)

	for _, table := range []string{
		"record_types", "enum_types", "pointer_types", "lvalue_reference_types",
		"rvalue_reference_types", "builtin_types", "qualified_types", "array_types",
		"function_types", "functions", "global_vars", "elf_functions", "elf_objects",
	} {
		assert.Contains(t, string(data), `"`+table+`": []`)
	}
}

// TestModule_IgnoresUnknownFields tests forward compatibility with newer dumps.
func TestModule_IgnoresUnknownFields(t *testing.T) {
	text := []byte(`
builtin_types {
  type_info {
    name: "int"
    linker_set_key: "int"
    size: 4
    future_field: 7
  }
  is_integral: true
}
some_new_table {
  anything: "goes"
}
`)
	m, err := UnmarshalModule(text, ProtobufTextFormat)
	require.NoError(t, err)
	typ, ok := m.LookupType("int")
	require.True(t, ok)
	assert.Equal(t, uint64(4), typ.Info().Size)

	js := []byte(`{"builtin_types": [{"name": "int", "linker_set_key": "int", "extra": true}], "new_table": []}`)
	m, err = UnmarshalModule(js, JSON)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Counts().Types)
}

func TestModule_MalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		format   TextFormat
		input    string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "text missing key",
			format:   ProtobufTextFormat,
			input:    "builtin_types {\n  type_info {\n    name: \"int\"\n    linker_set_key: \"int\"\n  }\n}\nbuiltin_types {\n  type_info {\n    name: \"long\"\n  }\n}\n",
			wantLine: 7,
			wantMsg:  "missing linker_set_key",
		},
		{
			name:    "text duplicate key",
			format:  ProtobufTextFormat,
			input:   "functions {\n  linker_set_key: \"f\"\n}\nfunctions {\n  linker_set_key: \"f\"\n}\n",
			wantMsg: "DUPLICATE_KEY",
		},
		{
			name:    "text unknown enum",
			format:  ProtobufTextFormat,
			input:   "elf_functions {\n  name: \"f\"\n  binding: Strong\n}\n",
			wantMsg: "unknown binding",
		},
		{
			name:    "text syntax",
			format:  ProtobufTextFormat,
			input:   "record_types {\n",
			wantMsg: "malformed",
		},
		{
			name:     "json syntax",
			format:   JSON,
			input:    "{\n  \"functions\": [\n    {,\n  ]\n}\n",
			wantLine: 3,
		},
		{
			name:    "json missing key",
			format:  JSON,
			input:   `{"global_vars": [{"name": "v"}]}`,
			wantMsg: "missing linker_set_key",
		},
		{
			name:    "json unknown access",
			format:  JSON,
			input:   `{"functions": [{"function_name": "f", "linker_set_key": "f", "access": "friend"}]}`,
			wantMsg: `unknown access "friend"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalModule([]byte(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, IsFormatError(err))
			if tt.wantLine > 0 {
				var fe *FormatError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.wantLine, fe.Line)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

// TestReadModule_StampsPath tests that file readers name the offending file.
func TestReadModule_StampsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := ReadModule(path, JSON)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, path, fe.Path)
	assert.Contains(t, err.Error(), path)
}

func TestWriteModule_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libfoo.so.lsdump")
	m := testutil.SampleModule(t)

	require.NoError(t, WriteModule(path, ProtobufTextFormat, m))
	got, err := ReadModule(path, ProtobufTextFormat)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestReport_RoundTrip(t *testing.T) {
	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			r := sampleReport()

			data, err := MarshalReport(r, format)
			require.NoError(t, err)
			got, err := UnmarshalReport(data, format)
			require.NoError(t, err)

			assert.Equal(t, r, got)
			assert.Equal(t, r.ChangedKeys(), got.ChangedKeys())
		})
	}
}

// TestReport_StatusTokens tests that a combined status is written one bit per token.
func TestReport_StatusTokens(t *testing.T) {
	r := &ir.DiffReport{LibName: "libfoo", Arch: "arm", Status: ir.StatusIncompatible | ir.StatusUnreferencedChanges}

	data, err := MarshalReport(r, ProtobufTextFormat)
	require.NoError(t, err)
	assert.Contains(t, string(data), "compatibility_status: INCOMPATIBLE\ncompatibility_status: UNREFERENCED_CHANGES\n")

	data, err = MarshalReport(r, JSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"compatibility_status": "INCOMPATIBLE|UNREFERENCED_CHANGES"`)

	compatible := &ir.DiffReport{LibName: "libfoo", Arch: "arm"}
	data, err = MarshalReport(compatible, ProtobufTextFormat)
	require.NoError(t, err)
	assert.Contains(t, string(data), "compatibility_status: COMPATIBLE\n")
}

// TestReport_FingerprintIndependentOfFormat tests that a report read from
// either encoding hashes the same.
func TestReport_FingerprintIndependentOfFormat(t *testing.T) {
	want, err := ReportFingerprint(sampleReport())
	require.NoError(t, err)
	assert.Len(t, want, 64)

	for _, format := range formats {
		data, err := MarshalReport(sampleReport(), format)
		require.NoError(t, err)
		r, err := UnmarshalReport(data, format)
		require.NoError(t, err)

		got, err := ReportFingerprint(r)
		require.NoError(t, err)
		assert.Equal(t, want, got, "format %s", format)
	}

	other := sampleReport()
	other.Arch = "x86"
	changed, err := ReportFingerprint(other)
	require.NoError(t, err)
	assert.NotEqual(t, want, changed)
}

func TestModuleFingerprint_StableAcrossFormats(t *testing.T) {
	m := testutil.SampleModule(t)
	want, err := ModuleFingerprint(m)
	require.NoError(t, err)

	data, err := MarshalModule(m, ProtobufTextFormat)
	require.NoError(t, err)
	back, err := UnmarshalModule(data, ProtobufTextFormat)
	require.NoError(t, err)
	got, err := ModuleFingerprint(back)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMerged_RoundTrip(t *testing.T) {
	m := &ir.MergedReport{
		Status:   ir.StatusExtension | ir.StatusIncompatible,
		Severity: ir.SeverityIncompatible,
		Reports: []ir.MergedEntry{
			{LibName: "libfoo", Arch: "arm", Status: ir.StatusExtension, Path: "arm/libfoo.abidiff", Fingerprint: "abc"},
			{LibName: "libbar", Arch: "x86", Status: ir.StatusIncompatible, Path: "x86/libbar.abidiff"},
			{LibName: "libbaz", Arch: "x86", Status: ir.StatusCompatible, Path: "x86/libbaz.abidiff"},
		},
	}
	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			data, err := MarshalMerged(m, format)
			require.NoError(t, err)
			got, err := UnmarshalMerged(data, format)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestParseTextFormat(t *testing.T) {
	tests := []struct {
		in   string
		want TextFormat
		err  bool
	}{
		{"ProtobufTextFormat", ProtobufTextFormat, false},
		{"protobuftextformat", ProtobufTextFormat, false},
		{"txtpb", ProtobufTextFormat, false},
		{"Json", JSON, false},
		{"JSON", JSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTextFormat(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, JSON, FormatForPath("out/libfoo.so.lsdump.JSON"))
	assert.Equal(t, ProtobufTextFormat, FormatForPath("out/libfoo.so.lsdump"))
}
