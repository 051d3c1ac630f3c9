package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/linker"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/versionscript"
)

// LinkOptions holds flags for the link command.
type LinkOptions struct {
	*RootOptions
	Output             string
	VersionScript      string
	API                string
	Arch               string
	ExcludedVersions   []string
	ExcludedTags       []string
	ExportedHeaderDirs []string
	NoFilter           bool
	InputFormat        string
	OutputFormat       string
	Jobs               int
}

// LinkResult is the JSON payload of the link command.
type LinkResult struct {
	Output      string              `json:"output"`
	Dumps       int                 `json:"dumps"`
	Counts      ir.Counts           `json:"counts"`
	ODRWarnings []linker.ODRWarning `json:"odr_warnings"`
}

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "link <dump>... -o <library dump>",
		Short: "Link translation-unit dumps into a library dump",
		Long: `Link per-translation-unit ABI dumps into one library dump.

Duplicate definitions keep the first dump's copy; structurally different
duplicates are reported as ODR warnings. With --version-script only
exported symbols are kept and the ELF tables come from the script.

Example:
  headercheck link -o libfoo.so.lsdump --version-script libfoo.map.txt \
      --arch arm64 --api 34 -I include obj/*.sdump`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output library dump (required)")
	cmd.Flags().StringVar(&opts.VersionScript, "version-script", "", "version script listing exported symbols")
	cmd.Flags().StringVar(&opts.API, "api", "current", "API level for introduced= tags")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "target architecture")
	cmd.Flags().StringArrayVar(&opts.ExcludedVersions, "exclude-symbol-version", nil, "drop version blocks matching this pattern")
	cmd.Flags().StringArrayVar(&opts.ExcludedTags, "exclude-symbol-tag", nil, "drop symbols carrying this tag")
	cmd.Flags().StringArrayVarP(&opts.ExportedHeaderDirs, "include", "I", nil, "exported header directory")
	cmd.Flags().BoolVar(&opts.NoFilter, "no-filter", false, "keep every function and variable")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (ProtobufTextFormat|Json); default by extension")
	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", "", "output format (ProtobufTextFormat|Json); default by extension")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "dumps decoded in parallel (0 = GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runLink(opts *LinkOptions, dumps []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	api, err := versionscript.ParseAPILevel(opts.API)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid --api", err)
	}
	inputFormat, err := parseFormatFlag("input-format", opts.InputFormat)
	if err != nil {
		return err
	}
	outputFormat, err := parseFormatFlag("output-format", opts.OutputFormat)
	if err != nil {
		return err
	}

	formatter.VerboseLog("Linking %d dump(s)", len(dumps))
	res, err := linker.Link(cmd.Context(), dumps, linker.Options{
		VersionScript: opts.VersionScript,
		Filter: versionscript.Filter{
			Arch:             opts.Arch,
			API:              api,
			ExcludedVersions: opts.ExcludedVersions,
			ExcludedTags:     opts.ExcludedTags,
		},
		ExportedHeaderDirs: opts.ExportedHeaderDirs,
		NoFilter:           opts.NoFilter,
		InputFormat:        inputFormat,
		Jobs:               opts.Jobs,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, "link failed", err)
	}

	if err := repr.WriteModule(opts.Output, formatFor(outputFormat, opts.Output), res.Module); err != nil {
		return formatter.Fail(ExitCommandError, fmt.Sprintf("writing %s", opts.Output), err)
	}

	result := LinkResult{
		Output:      opts.Output,
		Dumps:       len(dumps),
		Counts:      res.Module.Counts(),
		ODRWarnings: res.Warnings,
	}
	if result.ODRWarnings == nil {
		result.ODRWarnings = []linker.ODRWarning{}
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	c := result.Counts
	formatter.Textf("✓ Linked %d dump(s) into %s", result.Dumps, result.Output)
	formatter.Textf("  %d types, %d functions, %d global vars, %d ELF functions, %d ELF objects",
		c.Types, c.Functions, c.GlobalVars, c.ElfFunctions, c.ElfObjects)
	for _, w := range res.Warnings {
		formatter.Textf("  warning: %s", w)
	}
	return nil
}
