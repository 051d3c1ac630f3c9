package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const growthScenario = `name: growth
library: libpoint
arch: arm64
old:
  dumps: [old.sdump]
new:
  dumps: [new.json]
expect:
  status: INCOMPATIBLE
assertions:
  - type: report_contains
    list: record_type_diffs
    keys: [Point]
`

// writeScenarios writes the point dumps and one scenario into a fresh
// directory.
func writeScenarios(t *testing.T, name, scenario string) string {
	t.Helper()
	dir := t.TempDir()
	oldMod, newMod := pointModules(t)
	writeDump(t, dir, "old.sdump", oldMod)
	writeDump(t, dir, "new.json", newMod)
	writeText(t, dir, name, scenario)
	return dir
}

func TestTestCommand_MissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	stdout, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Contains(t, stdout, "Error [E002]")
}

func TestTestCommand_EmptyDirectory(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTestCommand_Pass(t *testing.T) {
	dir := writeScenarios(t, "growth.yaml", growthScenario)

	stdout, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ growth")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

// TestTestCommand_UpdateGolden tests that --update writes the summary and
// that a later edit to the golden file fails the run.
func TestTestCommand_UpdateGolden(t *testing.T) {
	dir := writeScenarios(t, "growth.yaml", growthScenario)
	golden := filepath.Join(dir, "golden", "growth.golden")

	_, _, err := execute(t, "test", "--update", dir)
	require.NoError(t, err)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scenario: growth\npass: true\nstatus: INCOMPATIBLE\n")

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err, "golden directories are not scenarios")

	require.NoError(t, os.WriteFile(golden, []byte("scenario: growth\npass: true\n"), 0o644))
	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ growth")
	assert.Contains(t, stdout, "summary does not match golden file")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := writeScenarios(t, "wrong.yaml", `name: wrong
library: libpoint
old: {dumps: [old.sdump]}
new: {dumps: [new.json]}
expect: {status: COMPATIBLE}
`)

	stdout, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := jsonResponse(t, stdout, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeABIBreak, resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "INCOMPATIBLE", result.Scenarios[0].Status)
	assert.Contains(t, result.Scenarios[0].Errors, "status: expected COMPATIBLE, got INCOMPATIBLE")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := writeScenarios(t, "growth.yaml", growthScenario)
	writeText(t, dir, "broken.yaml", "name: [\n")

	stdout, _, err := execute(t, "test", "--filter", "gro*", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 total")

	stdout, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "failed to load scenario")
}
