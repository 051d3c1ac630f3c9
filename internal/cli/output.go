package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/fatih/color"

	"github.com/roach88/headercheck/internal/config"
	"github.com/roach88/headercheck/internal/engine"
	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/versionscript"
)

// Exit codes for CLI commands. Codes 4, 8 and 16 mirror the
// compatibility status bits.
const (
	ExitSuccess         = 0
	ExitFailure         = 1 // Generic failure, or unreferenced changes not allowed
	ExitCommandError    = 2 // Command error (invalid paths, malformed input, etc.)
	ExitExtension       = int(ir.StatusExtension)
	ExitIncompatible    = int(ir.StatusIncompatible)
	ExitElfIncompatible = int(ir.StatusElfIncompatible)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeNotFound        = "E002" // Input path not found
	ErrCodeMalformedInput  = "E003" // Malformed dump or report
	ErrCodeVersionScript   = "E004" // Version script parse error
	ErrCodePolicy          = "E005" // Invalid policy file
	ErrCodeDanglingRef     = "E006" // Type key referenced but not defined
	ErrCodeWriteFailed     = "E007" // Output file write failed
	ErrCodeDatabase        = "E008" // Run history database error
	ErrCodeInvalidArgument = "E009" // Invalid flag value
	ErrCodeABIBreak        = "E010" // Diff or merge verdict failed the policy
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// IsExitError reports whether err wraps an *ExitError. Such errors have
// already been printed by the command that returned them.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// statusExitError returns nil for StatusCompatible and an ExitError whose
// code is the most severe bit of s otherwise.
func statusExitError(s ir.CompatibilityStatus, subject string) error {
	primary := s.Primary()
	if primary == ir.StatusCompatible {
		return nil
	}
	return NewExitError(int(primary), fmt.Sprintf("%s: %s", subject, primary))
}

// classifyError maps an input error to a CLI error code.
func classifyError(err error) string {
	var pe *config.PolicyError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case repr.IsFormatError(err):
		return ErrCodeMalformedInput
	case versionscript.IsParseError(err):
		return ErrCodeVersionScript
	case errors.As(err, &pe):
		return ErrCodePolicy
	case engine.IsDanglingReference(err):
		return ErrCodeDanglingRef
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

func (f *OutputFormatter) isJSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err under the code classifyError picks and returns the
// ExitError the command should return.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	code := ErrCodeGeneric
	if err != nil {
		code = classifyError(err)
	}
	return f.FailCode(exitCode, code, message, err)
}

// FailCode is Fail with an explicit error code.
func (f *OutputFormatter) FailCode(exitCode int, code, message string, err error) error {
	text := message
	if err != nil {
		text = fmt.Sprintf("%s: %v", message, err)
	}
	if err := f.Error(code, text, nil); err != nil {
		return err
	}
	return WrapExitError(exitCode, message, err)
}

// Report outputs a verdict payload. In JSON mode a failing verdict carries
// an error object next to the data.
func (f *OutputFormatter) Report(data any, exit error) error {
	if !f.isJSON() {
		return nil
	}
	resp := CLIResponse{Status: "ok", Data: data}
	if exit != nil {
		resp.Status = "error"
		resp.Error = &CLIError{Code: ErrCodeABIBreak, Message: exit.Error()}
	}
	return f.encode(resp)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

var (
	compatibleColor   = color.New(color.FgGreen, color.Bold)
	extensionColor    = color.New(color.FgYellow, color.Bold)
	incompatibleColor = color.New(color.FgRed, color.Bold)
)

// Verdict prints a one-line colored verdict in text mode.
func (f *OutputFormatter) Verdict(subject string, s ir.CompatibilityStatus) {
	if f.isJSON() {
		return
	}
	c := compatibleColor
	mark := "✓"
	switch s.Severity() {
	case ir.SeverityExtension:
		c = extensionColor
	case ir.SeverityIncompatible:
		c = incompatibleColor
		mark = "✗"
	}
	fmt.Fprintf(f.Writer, "%s %s: %s\n", mark, subject, c.Sprint(s.String()))
}

// Textf prints a line in text mode only.
func (f *OutputFormatter) Textf(format string, args ...any) {
	if f.isJSON() {
		return
	}
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
