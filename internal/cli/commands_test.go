package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/testutil"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// jsonResponse decodes a CLIResponse whose data is decoded into data.
func jsonResponse(t *testing.T, stdout string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &raw), stdout)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func writeDump(t *testing.T, dir, name string, m *ir.Module) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, repr.WriteModule(path, repr.FormatForPath(path), m))
	return path
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func pointModules(t *testing.T) (*ir.Module, *ir.Module) {
	oldMod := testutil.NewModule(t).
		Builtin("int", 4).
		Builtin("void", 0).
		Record("Point", 8, testutil.Field("x", "int", 0), testutil.Field("y", "int", 32)).
		Pointer("Point *", "Point").
		Function("_Z4drawP5Point", "void", "Point *").
		Function("_Z6legacyv", "void").
		ElfFunction("_Z4drawP5Point", ir.BindingGlobal).
		ElfFunction("_Z6legacyv", ir.BindingGlobal).
		Build()
	newMod := testutil.NewModule(t).
		Builtin("int", 4).
		Builtin("void", 0).
		Record("Point", 12, testutil.Field("x", "int", 0), testutil.Field("y", "int", 32), testutil.Field("z", "int", 64)).
		Pointer("Point *", "Point").
		Function("_Z4drawP5Point", "void", "Point *").
		Function("_Z6legacyv", "void").
		ElfFunction("_Z4drawP5Point", ir.BindingGlobal).
		ElfFunction("_Z6legacyv", ir.BindingGlobal).
		Build()
	return oldMod, newMod
}

func extensionModules(t *testing.T) (*ir.Module, *ir.Module) {
	oldMod := testutil.NewModule(t).Builtin("int", 4).Function("f", "int").ElfFunction("f", ir.BindingGlobal).Build()
	newMod := testutil.NewModule(t).Builtin("int", 4).Function("f", "int").Function("g", "int").
		ElfFunction("f", ir.BindingGlobal).ElfFunction("g", ir.BindingGlobal).Build()
	return oldMod, newMod
}

// =============================================================================
// link
// =============================================================================

func TestLinkCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeDump(t, dir, "a.sdump", testutil.NewModule(t).Builtin("int", 4).Function("f", "int").Build())
	b := writeDump(t, dir, "b.json", testutil.NewModule(t).Builtin("int", 4).Function("g", "int").Build())
	out := filepath.Join(dir, "lib.lsdump")

	stdout, _, err := execute(t, "link", "-o", out, a, b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Linked 2 dump(s) into "+out)
	assert.Contains(t, stdout, "1 types, 2 functions")

	m, err := repr.ReadModule(out, repr.ProtobufTextFormat)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Counts().Functions)
}

func TestLinkCommand_JSONWithODRWarning(t *testing.T) {
	dir := t.TempDir()
	a := writeDump(t, dir, "a.sdump", testutil.NewModule(t).Builtin("int", 4).Record("S", 4, testutil.Field("a", "int", 0)).Build())
	b := writeDump(t, dir, "b.sdump", testutil.NewModule(t).Builtin("int", 4).Record("S", 8, testutil.Field("a", "int", 0)).Build())
	out := filepath.Join(dir, "lib.json")

	stdout, _, err := execute(t, "--format", "json", "link", "-o", out, a, b)
	require.NoError(t, err)

	var result LinkResult
	resp := jsonResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, result.Dumps)
	require.Len(t, result.ODRWarnings, 1)
	assert.Equal(t, "S", result.ODRWarnings[0].Key)

	_, err = repr.ReadModule(out, repr.JSON)
	assert.NoError(t, err, "output format follows the extension")
}

func TestLinkCommand_VersionScript(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir, "tu.sdump", testutil.NewModule(t).
		Builtin("int", 4).Function("keep", "int").Function("drop", "int").Build())
	script := writeText(t, dir, "lib.map.txt", "LIB {\n  global:\n    keep;\n    new_api; # introduced=35\n  local:\n    *;\n};\n")
	out := filepath.Join(dir, "lib.lsdump")

	_, _, err := execute(t, "link", "-o", out, "--version-script", script, "--api", "34", "--arch", "arm64", dump)
	require.NoError(t, err)

	m, err := repr.ReadModule(out, repr.ProtobufTextFormat)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Counts().Functions)
	assert.Equal(t, 1, m.Counts().ElfFunctions, "new_api is introduced after API 34")
}

func TestLinkCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeText(t, dir, "bad.sdump", "record_types {\n")
	out := filepath.Join(dir, "lib.lsdump")

	stdout, _, err := execute(t, "link", "-o", out, bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E003]")
	assert.NoFileExists(t, out)

	_, _, err = execute(t, "link", "-o", out, "--api", "banana", bad)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "link", "-o", out, "--input-format", "xml", bad)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "link", bad)
	assert.ErrorContains(t, err, "required flag")
}

// =============================================================================
// diff
// =============================================================================

func diffArgs(oldPath, newPath, out string, extra ...string) []string {
	args := []string{"diff", "--old", oldPath, "--new", newPath, "-o", out, "--lib", "libpoint", "--arch", "arm64"}
	return append(args, extra...)
}

func TestDiffCommand_Incompatible(t *testing.T) {
	dir := t.TempDir()
	oldMod, newMod := pointModules(t)
	oldPath := writeDump(t, dir, "old.lsdump", oldMod)
	newPath := writeDump(t, dir, "new.lsdump", newMod)
	out := filepath.Join(dir, "libpoint.abidiff")

	stdout, _, err := execute(t, diffArgs(oldPath, newPath, out)...)
	require.Error(t, err)
	assert.Equal(t, ExitIncompatible, GetExitCode(err))
	assert.Contains(t, stdout, "✗ libpoint (arm64): INCOMPATIBLE")
	assert.Contains(t, stdout, "1 record diffs")

	report, err := repr.ReadReport(out, repr.ProtobufTextFormat)
	require.NoError(t, err)
	assert.Equal(t, ir.StatusIncompatible, report.Status)
	require.Len(t, report.RecordTypeDiffs, 1)

	_, _, err = execute(t, diffArgs(oldPath, newPath, out, "--advice-only")...)
	assert.NoError(t, err, "advice-only never fails")
}

func TestDiffCommand_Extension(t *testing.T) {
	dir := t.TempDir()
	oldMod, newMod := extensionModules(t)
	oldPath := writeDump(t, dir, "old.json", oldMod)
	newPath := writeDump(t, dir, "new.json", newMod)
	out := filepath.Join(dir, "r.json")

	stdout, _, err := execute(t, append([]string{"--format", "json"}, diffArgs(oldPath, newPath, out)...)...)
	assert.Equal(t, ExitExtension, GetExitCode(err))
	var result DiffResult
	resp := jsonResponse(t, stdout, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeABIBreak, resp.Error.Code)
	assert.Equal(t, "EXTENSION", result.Status)
	assert.Equal(t, ExitExtension, result.ExitCode)
	assert.NotEmpty(t, result.Fingerprint)

	_, _, err = execute(t, diffArgs(oldPath, newPath, out, "--allow-extensions")...)
	assert.NoError(t, err)
}

// TestDiffCommand_Policy tests that a policy file and the ignore list feed
// the checker.
func TestDiffCommand_Policy(t *testing.T) {
	dir := t.TempDir()
	oldMod, newMod := extensionModules(t)
	oldPath := writeDump(t, dir, "old.sdump", oldMod)
	newPath := writeDump(t, dir, "new.sdump", newMod)
	out := filepath.Join(dir, "r.abidiff")

	policy := writeText(t, dir, "policy.yaml", "allow_extensions: true\n")
	_, _, err := execute(t, diffArgs(oldPath, newPath, out, "--policy", policy)...)
	assert.NoError(t, err)

	ignore := writeText(t, dir, "ignore.txt", "# new in this release\ng\n")
	_, _, err = execute(t, diffArgs(oldPath, newPath, out, "--ignore-symbols", ignore)...)
	require.NoError(t, err)
	report, err := repr.ReadReport(out, repr.ProtobufTextFormat)
	require.NoError(t, err)
	assert.Equal(t, ir.StatusCompatible, report.Status)

	badPolicy := writeText(t, dir, "bad.yaml", "allow_extension: true\n")
	stdout, _, err := execute(t, diffArgs(oldPath, newPath, out, "--policy", badPolicy)...)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
}

func TestDiffCommand_DanglingReference(t *testing.T) {
	dir := t.TempDir()
	m := testutil.NewModule(t).Builtin("int", 4).Function("f", "int", "Missing").Build()
	path := writeDump(t, dir, "m.sdump", m)
	out := filepath.Join(dir, "r.abidiff")

	stdout, _, err := execute(t, diffArgs(path, path, out)...)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E006]")

	_, _, err = execute(t, diffArgs(path, path, out, "--allow-unresolved-types")...)
	assert.NoError(t, err)
}

// =============================================================================
// merge
// =============================================================================

func writeReports(t *testing.T, dir string, statuses ...ir.CompatibilityStatus) []string {
	t.Helper()
	var paths []string
	for i, s := range statuses {
		r := &ir.DiffReport{LibName: "lib" + string(rune('a'+i)), Arch: "arm64", Status: s}
		path := filepath.Join(dir, r.LibName+".abidiff")
		require.NoError(t, repr.WriteReport(path, repr.ProtobufTextFormat, r))
		paths = append(paths, path)
	}
	return paths
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	paths := writeReports(t, dir, ir.StatusCompatible, ir.StatusExtension, ir.StatusIncompatible)
	out := filepath.Join(dir, "merged.json")

	stdout, _, err := execute(t, append([]string{"merge", "-o", out}, paths...)...)
	assert.Equal(t, ExitIncompatible, GetExitCode(err))
	assert.Contains(t, stdout, "✓ liba (arm64): COMPATIBLE")
	assert.Contains(t, stdout, "✗ libc (arm64): INCOMPATIBLE")
	assert.Contains(t, stdout, "Merged 3 report(s): INCOMPATIBLE")

	merged, err := repr.ReadMerged(out, repr.JSON)
	require.NoError(t, err)
	assert.Equal(t, ir.SeverityIncompatible, merged.Severity)
	require.Len(t, merged.Reports, 3)

	_, _, err = execute(t, append([]string{"merge", "--advice-only"}, paths...)...)
	assert.NoError(t, err)
}

func TestMergeCommand_Extensions(t *testing.T) {
	dir := t.TempDir()
	paths := writeReports(t, dir, ir.StatusCompatible, ir.StatusExtension)

	stdout, _, err := execute(t, append([]string{"--format", "json", "merge"}, paths...)...)
	assert.Equal(t, ExitExtension, GetExitCode(err))
	var result MergeResult
	jsonResponse(t, stdout, &result)
	assert.Equal(t, "EXTENSION", result.Severity)
	require.Len(t, result.Reports, 2)
	assert.Equal(t, "libb", result.Reports[1].LibName)

	_, _, err = execute(t, append([]string{"merge", "--allow-extensions"}, paths...)...)
	assert.NoError(t, err)
}

func TestMergeCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeText(t, dir, "bad.json", "{")

	stdout, _, err := execute(t, "merge", bad)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E003]")

	stdout, _, err = execute(t, "merge", filepath.Join(dir, "missing.abidiff"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E002]")
}

// =============================================================================
// inspect
// =============================================================================

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir, "sample.sdump", testutil.SampleModule(t))

	stdout, _, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "recursive types: Node -> Node * -> Node")
	assert.Contains(t, stdout, "✓ No dangling references")

	dangling := writeDump(t, dir, "dangling.json", testutil.NewModule(t).Builtin("int", 4).Function("f", "int", "Missing").Build())
	stdout, _, err = execute(t, "--format", "json", "inspect", dangling)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	var result struct {
		DanglingReferences []struct {
			From string `json:"from"`
			Key  string `json:"key"`
		} `json:"dangling_references"`
	}
	resp := jsonResponse(t, stdout, &result)
	assert.Equal(t, ErrCodeDanglingRef, resp.Error.Code)
	require.Len(t, result.DanglingReferences, 1)
	assert.Equal(t, "f", result.DanglingReferences[0].From)
	assert.Equal(t, "Missing", result.DanglingReferences[0].Key)
}

// =============================================================================
// history
// =============================================================================

// TestHistoryCommand tests that diff and merge runs are recorded once per
// fingerprint and can be listed and shown.
func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "abi.db")
	oldMod, newMod := extensionModules(t)
	oldPath := writeDump(t, dir, "old.sdump", oldMod)
	newPath := writeDump(t, dir, "new.sdump", newMod)
	out := filepath.Join(dir, "libpoint.abidiff")

	for range 2 {
		_, _, err := execute(t, diffArgs(oldPath, newPath, out, "--db", db, "--allow-extensions")...)
		require.NoError(t, err)
	}
	_, _, err := execute(t, "merge", "--db", db, "--allow-extensions", out)
	require.NoError(t, err)

	stdout, _, err := execute(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)
	var runs []struct {
		ID     string `json:"id"`
		Kind   string `json:"kind"`
		Lib    string `json:"lib_name"`
		Status string `json:"status"`
	}
	jsonResponse(t, stdout, &runs)
	require.Len(t, runs, 2, "the repeated diff is recorded once")
	assert.Equal(t, "diff", runs[0].Kind)
	assert.Equal(t, "libpoint", runs[0].Lib)
	assert.Equal(t, "EXTENSION", runs[0].Status)
	assert.Equal(t, "merge", runs[1].Kind)

	stdout, _, err = execute(t, "history", "--db", db, "--lib", "libpoint")
	require.NoError(t, err)
	assert.Contains(t, stdout, "libpoint (arm64)")
	assert.NotContains(t, stdout, "merge")

	stdout, _, err = execute(t, "history", "--db", db, "--show", runs[0].ID, "--output-format", "Json")
	require.NoError(t, err)
	report, err := repr.UnmarshalReport([]byte(stdout), repr.JSON)
	require.NoError(t, err)
	assert.Equal(t, "libpoint", report.LibName)
	assert.Len(t, report.FunctionsAdded, 1)

	stdout, _, err = execute(t, "history", "--db", db, "--show", runs[1].ID, "--output-format", "Json")
	require.NoError(t, err)
	merged, err := repr.UnmarshalMerged([]byte(stdout), repr.JSON)
	require.NoError(t, err)
	assert.Len(t, merged.Reports, 1)

	_, _, err = execute(t, "history", "--db", db, "--show", "nope")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryCommand_MissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")
	stdout, _, err := execute(t, "history", "--db", db)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E002]")
	assert.NoFileExists(t, db)
}
