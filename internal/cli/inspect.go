package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/headercheck/internal/analysis"
	"github.com/roach88/headercheck/internal/repr"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	InputFormat string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <dump>",
		Short: "Summarize a dump and check its type references",
		Long: `Report entity counts, references to undefined type keys and groups of
mutually recursive types in a dump.

Dangling references make diff fail unless --allow-unresolved-types is set,
so inspect exits 1 when it finds any.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "dump format (ProtobufTextFormat|Json); default by extension")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag("input-format", opts.InputFormat)
	if err != nil {
		return err
	}
	m, err := repr.ReadModule(path, formatFor(format, path))
	if err != nil {
		return formatter.Fail(ExitCommandError, "reading dump", err)
	}

	res := analysis.Analyze(m)
	var exit error
	if res.HasDanglingReferences() {
		exit = NewExitError(ExitFailure, fmt.Sprintf("%d dangling reference(s)", len(res.DanglingReferences)))
	}
	if opts.Format == "json" {
		if exit != nil {
			if err := formatter.encode(CLIResponse{
				Status: "error",
				Data:   res,
				Error:  &CLIError{Code: ErrCodeDanglingRef, Message: exit.Error()},
			}); err != nil {
				return err
			}
			return exit
		}
		return formatter.Success(res)
	}

	c := res.Counts
	formatter.Textf("%s", path)
	formatter.Textf("  %d types, %d functions, %d global vars, %d ELF functions, %d ELF objects",
		c.Types, c.Functions, c.GlobalVars, c.ElfFunctions, c.ElfObjects)
	for _, g := range res.RecursiveGroups {
		formatter.Textf("  %s", g.Message)
	}
	if exit == nil {
		formatter.Textf("✓ No dangling references")
		return nil
	}
	for _, d := range res.DanglingReferences {
		formatter.Textf("✗ %s references undefined %q", d.From, d.Key)
	}
	return exit
}
