package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/headercheck/internal/config"
	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/merger"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/store"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Output       string
	PolicyFile   string
	Database     string
	InputFormat  string
	OutputFormat string
	Jobs         int
	FlagPolicy   config.Policy
}

// MergeResult is the JSON payload of the merge command.
type MergeResult struct {
	Output      string           `json:"output,omitempty"`
	Status      string           `json:"status"`
	Severity    string           `json:"severity"`
	ExitCode    int              `json:"exit_code"`
	Fingerprint string           `json:"fingerprint"`
	RunID       string           `json:"run_id,omitempty"`
	Reports     []MergeEntryView `json:"reports"`
}

// MergeEntryView is one input of a merge as shown to users.
type MergeEntryView struct {
	LibName string `json:"lib_name"`
	Arch    string `json:"arch"`
	Status  string `json:"status"`
	Path    string `json:"path"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <report>...",
		Short: "Aggregate diff reports into a release verdict",
		Long: `Merge per-library diff reports into one verdict.

The merged severity is the worst input severity; it never improves as more
reports are added. --allow-extensions and --advice-only change the exit code
only, never the merged report.

Example:
  headercheck merge -o release.abimerge out/*.abidiff`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "write the merged report here")
	f.StringVar(&opts.PolicyFile, "policy", "", "policy file (.cue, .yaml, .toml)")
	f.StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	f.StringVar(&opts.InputFormat, "input-format", "", "report format (ProtobufTextFormat|Json); default by extension")
	f.StringVar(&opts.OutputFormat, "output-format", "", "merged report format (ProtobufTextFormat|Json); default by extension")
	f.IntVarP(&opts.Jobs, "jobs", "j", 0, "reports decoded in parallel (0 = GOMAXPROCS)")
	f.BoolVar(&opts.FlagPolicy.AllowExtensions, "allow-extensions", false, "exit 0 when the worst severity is EXTENSION")
	f.BoolVar(&opts.FlagPolicy.AdvisoryOnly, "advice-only", false, "always exit 0")

	return cmd
}

func runMerge(opts *MergeOptions, reports []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	inputFormat, err := parseFormatFlag("input-format", opts.InputFormat)
	if err != nil {
		return err
	}
	outputFormat, err := parseFormatFlag("output-format", opts.OutputFormat)
	if err != nil {
		return err
	}
	policy, err := resolvePolicy(opts.PolicyFile, opts.FlagPolicy)
	if err != nil {
		return formatter.Fail(ExitCommandError, "loading policy", err)
	}

	mergerOpts := policy.MergerOptions()
	mergerOpts.InputFormat = inputFormat
	mergerOpts.Jobs = opts.Jobs

	merged, err := merger.MergeFiles(cmd.Context(), reports, mergerOpts)
	if err != nil {
		return formatter.Fail(ExitCommandError, "merge failed", err)
	}

	if opts.Output != "" {
		if err := repr.WriteMerged(opts.Output, formatFor(outputFormat, opts.Output), merged); err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("writing %s", opts.Output), err)
		}
	}

	fingerprint, err := repr.MergedFingerprint(merged)
	if err != nil {
		return formatter.Fail(ExitFailure, "fingerprinting merged report", err)
	}

	var runID string
	if opts.Database != "" {
		run, err := recordRun(opts.Database, func(s *store.Store) (store.Run, bool, error) {
			return s.RecordMerge(cmd.Context(), merged, fingerprint)
		})
		if err != nil {
			return formatter.FailCode(ExitFailure, ErrCodeDatabase, "recording run", err)
		}
		runID = run.ID
	}

	exit := statusExitError(mergerOpts.ExitStatus(merged), "merged verdict")
	result := MergeResult{
		Output:      opts.Output,
		Status:      merged.Status.String(),
		Severity:    merged.Severity.String(),
		ExitCode:    exitCodeOf(exit),
		Fingerprint: fingerprint,
		RunID:       runID,
		Reports:     mergeEntries(merged),
	}
	if err := formatter.Report(result, exit); err != nil {
		return err
	}

	for _, e := range merged.Reports {
		formatter.Verdict(fmt.Sprintf("%s (%s)", e.LibName, e.Arch), e.Status)
	}
	formatter.Textf("Merged %d report(s): %s", len(merged.Reports), merged.Severity)
	if opts.Output != "" {
		formatter.Textf("  merged report: %s", opts.Output)
	}
	if runID != "" {
		formatter.Textf("  run: %s", runID)
	}
	return exit
}

func mergeEntries(m *ir.MergedReport) []MergeEntryView {
	out := make([]MergeEntryView, 0, len(m.Reports))
	for _, e := range m.Reports {
		out = append(out, MergeEntryView{
			LibName: e.LibName,
			Arch:    e.Arch,
			Status:  e.Status.String(),
			Path:    e.Path,
		})
	}
	return out
}
