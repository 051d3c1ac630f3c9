package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/headercheck/internal/config"
	"github.com/roach88/headercheck/internal/engine"
	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/versionscript"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeMalformedInput, "reading old dump", map[string]string{"file": "a.sdump"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
	assert.Equal(t, "reading old dump", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E001", "link failed", map[string]string{"dump": "a.sdump"}))
			assert.Contains(t, buf.String(), "Error [E001]: link failed")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("Linking %d dump(s)", 3)

			assert.Empty(t, out.String(), "verbose logs never touch stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Linking 3 dump(s)")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

// TestOutputFormatter_Verdict tests the text verdict line and that JSON
// output omits it.
func TestOutputFormatter_Verdict(t *testing.T) {
	tests := []struct {
		status ir.CompatibilityStatus
		want   string
	}{
		{ir.StatusCompatible, "✓ libc (arm64): COMPATIBLE"},
		{ir.StatusExtension, "✓ libc (arm64): EXTENSION"},
		{ir.StatusIncompatible | ir.StatusExtension, "✗ libc (arm64): INCOMPATIBLE|EXTENSION"},
		{ir.StatusElfIncompatible, "✗ libc (arm64): ELF_INCOMPATIBLE"},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			buf := &bytes.Buffer{}
			(&OutputFormatter{Format: "text", Writer: buf}).Verdict("libc (arm64)", tt.status)
			assert.Contains(t, buf.String(), tt.want)

			buf.Reset()
			(&OutputFormatter{Format: "json", Writer: buf}).Verdict("libc (arm64)", tt.status)
			assert.Empty(t, buf.String())
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := &repr.FormatError{Format: repr.JSON, Path: "a.json", Message: "unexpected EOF"}
	err := formatter.Fail(ExitCommandError, "reading old dump", cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, cause)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeMalformedInput, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "a.json: malformed Json")
}

// =============================================================================
// Exit codes
// =============================================================================

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitIncompatible, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitIncompatible, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("plain")))

	wrapped := WrapExitError(ExitFailure, "recording run", os.ErrPermission)
	assert.Equal(t, "recording run: permission denied", wrapped.Error())
	assert.ErrorIs(t, wrapped, os.ErrPermission)
}

func TestIsExitError(t *testing.T) {
	assert.True(t, IsExitError(NewExitError(ExitFailure, "x")))
	assert.True(t, IsExitError(fmt.Errorf("run: %w", NewExitError(ExitIncompatible, "x"))))
	assert.False(t, IsExitError(fmt.Errorf("plain")))
	assert.False(t, IsExitError(nil))
}

func TestStatusExitError(t *testing.T) {
	tests := []struct {
		status ir.CompatibilityStatus
		want   int
	}{
		{ir.StatusCompatible, ExitSuccess},
		{ir.StatusUnreferencedChanges, ExitFailure},
		{ir.StatusExtension | ir.StatusUnreferencedChanges, ExitExtension},
		{ir.StatusIncompatible | ir.StatusExtension, ExitIncompatible},
		{ir.StatusElfIncompatible | ir.StatusIncompatible, ExitElfIncompatible},
	}
	for _, tt := range tests {
		err := statusExitError(tt.status, "libc")
		assert.Equal(t, tt.want, exitCodeOf(err), "status %s", tt.status)
	}
	assert.Equal(t, 4, ExitExtension)
	assert.Equal(t, 8, ExitIncompatible)
	assert.Equal(t, 16, ExitElfIncompatible)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing", fmt.Errorf("read dump: %w", os.ErrNotExist), ErrCodeNotFound},
		{"format", &repr.FormatError{Format: repr.JSON, Message: "x"}, ErrCodeMalformedInput},
		{"version script", &versionscript.ParseError{Line: 3, Message: "x"}, ErrCodeVersionScript},
		{"policy", &config.PolicyError{Path: "p.cue", Message: "x"}, ErrCodePolicy},
		{"dangling", fmt.Errorf("compare: %w", &engine.DiffError{Code: engine.ErrCodeDanglingReference}), ErrCodeDanglingRef},
		{"other", fmt.Errorf("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}
