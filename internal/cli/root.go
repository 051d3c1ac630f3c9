package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/headercheck/internal/logging"
	"github.com/roach88/headercheck/internal/repr"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the headercheck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "headercheck",
		Short: "ABI compatibility checker for C and C++ shared libraries",
		Long: `headercheck links per-translation-unit ABI dumps into a library dump,
diffs two library dumps into a compatibility report, and merges reports
into a release verdict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", msg)
				return NewExitError(ExitCommandError, msg)
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(),
				logging.WithVerbose(opts.Verbose),
				logging.WithJSON(opts.Format == "json"),
				logging.WithPrefix("headercheck")))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// parseFormatFlag resolves a --*-format flag. Empty means "by extension".
func parseFormatFlag(name, value string) (repr.TextFormat, error) {
	if value == "" {
		return "", nil
	}
	f, err := repr.ParseTextFormat(value)
	if err != nil {
		return "", NewExitError(ExitCommandError, fmt.Sprintf("--%s: %v", name, err))
	}
	return f, nil
}

// formatFor returns explicit when set, otherwise the format implied by
// the path's extension.
func formatFor(explicit repr.TextFormat, path string) repr.TextFormat {
	if explicit != "" {
		return explicit
	}
	return repr.FormatForPath(path)
}
