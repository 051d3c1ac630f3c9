package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/headercheck/internal/checker"
	"github.com/roach88/headercheck/internal/config"
	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/store"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Old           string
	New           string
	Output        string
	LibName       string
	Arch          string
	PolicyFile    string
	IgnoreSymbols string
	Database      string
	OldFormat     string
	NewFormat     string
	OutputFormat  string
	FlagPolicy    config.Policy
}

// DiffResult is the JSON payload of the diff command.
type DiffResult struct {
	Output      string `json:"output"`
	LibName     string `json:"lib_name"`
	Arch        string `json:"arch"`
	Status      string `json:"status"`
	Severity    string `json:"severity"`
	ExitCode    int    `json:"exit_code"`
	Fingerprint string `json:"fingerprint"`
	RunID       string `json:"run_id,omitempty"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff --old <dump> --new <dump> -o <report>",
		Short: "Compare two library dumps",
		Long: `Compare an old and a new library dump and write a diff report.

Exit codes:
  0  - compatible, or every change is allowed by the policy
  1  - unreferenced changes only
  2  - command error (missing or malformed input)
  4  - extension
  8  - incompatible
  16 - ELF symbols removed

Example:
  headercheck diff --old prev/libfoo.so.lsdump --new libfoo.so.lsdump \
      --lib libfoo --arch arm64 -o libfoo.so.abidiff`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Old, "old", "", "old library dump (required)")
	f.StringVar(&opts.New, "new", "", "new library dump (required)")
	f.StringVarP(&opts.Output, "output", "o", "", "output diff report (required)")
	f.StringVar(&opts.LibName, "lib", "", "library name recorded in the report (required)")
	f.StringVar(&opts.Arch, "arch", "", "architecture recorded in the report (required)")
	f.StringVar(&opts.PolicyFile, "policy", "", "policy file (.cue, .yaml, .toml)")
	f.StringVar(&opts.IgnoreSymbols, "ignore-symbols", "", "file listing symbols to ignore, one per line")
	f.StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	f.StringVar(&opts.OldFormat, "input-format-old", "", "old dump format (ProtobufTextFormat|Json); default by extension")
	f.StringVar(&opts.NewFormat, "input-format-new", "", "new dump format (ProtobufTextFormat|Json); default by extension")
	f.StringVar(&opts.OutputFormat, "output-format", "", "report format (ProtobufTextFormat|Json); default by extension")
	f.BoolVar(&opts.FlagPolicy.AllowAddingRemovingWeakSymbols, "allow-adding-removing-weak-symbols", false, "do not report added or removed weak symbols")
	f.BoolVar(&opts.FlagPolicy.CheckAllAPIs, "check-all-apis", false, "also compare types not reachable from exported symbols")
	f.BoolVar(&opts.FlagPolicy.AllowUnresolvedTypes, "allow-unresolved-types", false, "compare undefined types by name instead of failing")
	f.BoolVar(&opts.FlagPolicy.AllowExtensions, "allow-extensions", false, "exit 0 on extensions")
	f.BoolVar(&opts.FlagPolicy.AllowUnreferencedChanges, "allow-unreferenced-changes", false, "exit 0 on unreferenced changes")
	f.BoolVar(&opts.FlagPolicy.AllowUnreferencedElfSymbolChanges, "allow-unreferenced-elf-symbol-changes", false, "exit 0 on ELF-only changes")
	f.BoolVar(&opts.FlagPolicy.AdvisoryOnly, "advice-only", false, "always exit 0")
	for _, name := range []string{"old", "new", "output", "lib", "arch"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// resolvePolicy layers the flags over the policy file.
func resolvePolicy(file string, flags config.Policy) (config.Policy, error) {
	if file == "" {
		return flags, nil
	}
	p, err := config.Load(file)
	if err != nil {
		return config.Policy{}, err
	}
	return p.Merge(flags), nil
}

func runDiff(opts *DiffOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	oldFormat, err := parseFormatFlag("input-format-old", opts.OldFormat)
	if err != nil {
		return err
	}
	newFormat, err := parseFormatFlag("input-format-new", opts.NewFormat)
	if err != nil {
		return err
	}
	outputFormat, err := parseFormatFlag("output-format", opts.OutputFormat)
	if err != nil {
		return err
	}

	flags := opts.FlagPolicy
	if opts.IgnoreSymbols != "" {
		ignored, err := config.ReadIgnoredSymbols(opts.IgnoreSymbols)
		if err != nil {
			return formatter.Fail(ExitCommandError, "reading --ignore-symbols", err)
		}
		flags.IgnoredSymbols = append(flags.IgnoredSymbols, ignored...)
	}
	policy, err := resolvePolicy(opts.PolicyFile, flags)
	if err != nil {
		return formatter.Fail(ExitCommandError, "loading policy", err)
	}

	oldMod, err := repr.ReadModule(opts.Old, formatFor(oldFormat, opts.Old))
	if err != nil {
		return formatter.Fail(ExitCommandError, "reading old dump", err)
	}
	newMod, err := repr.ReadModule(opts.New, formatFor(newFormat, opts.New))
	if err != nil {
		return formatter.Fail(ExitCommandError, "reading new dump", err)
	}

	checkerOpts := policy.CheckerOptions(opts.LibName, opts.Arch)
	report, err := checker.New(oldMod, newMod, checkerOpts).Check()
	if err != nil {
		return formatter.Fail(ExitCommandError, "diff failed", err)
	}

	if err := repr.WriteReport(opts.Output, formatFor(outputFormat, opts.Output), report); err != nil {
		return formatter.Fail(ExitCommandError, fmt.Sprintf("writing %s", opts.Output), err)
	}

	fingerprint, err := repr.ReportFingerprint(report)
	if err != nil {
		return formatter.Fail(ExitFailure, "fingerprinting report", err)
	}

	var runID string
	if opts.Database != "" {
		run, err := recordRun(opts.Database, func(s *store.Store) (store.Run, bool, error) {
			return s.RecordDiff(cmd.Context(), report, fingerprint)
		})
		if err != nil {
			return formatter.FailCode(ExitFailure, ErrCodeDatabase, "recording run", err)
		}
		runID = run.ID
	}

	exit := statusExitError(checkerOpts.Gate(report.Status), fmt.Sprintf("%s (%s)", opts.LibName, opts.Arch))
	result := DiffResult{
		Output:      opts.Output,
		LibName:     report.LibName,
		Arch:        report.Arch,
		Status:      report.Status.String(),
		Severity:    report.Status.Severity().String(),
		ExitCode:    exitCodeOf(exit),
		Fingerprint: fingerprint,
		RunID:       runID,
	}
	if err := formatter.Report(result, exit); err != nil {
		return err
	}

	formatter.Verdict(fmt.Sprintf("%s (%s)", report.LibName, report.Arch), report.Status)
	printChangeSummary(formatter, report)
	formatter.Textf("  report: %s", opts.Output)
	if runID != "" {
		formatter.Textf("  run: %s", runID)
	}
	return exit
}

// exitCodeOf is GetExitCode with nil mapped to ExitSuccess.
func exitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return GetExitCode(err)
}

func printChangeSummary(f *OutputFormatter, r *ir.DiffReport) {
	lines := []struct {
		label string
		n     int
	}{
		{"record diffs", len(r.RecordTypeDiffs)},
		{"enum diffs", len(r.EnumTypeDiffs)},
		{"enum extensions", len(r.EnumTypeExtensionDiffs)},
		{"function diffs", len(r.FunctionDiffs)},
		{"global var diffs", len(r.GlobalVarDiffs)},
		{"functions removed", len(r.FunctionsRemoved)},
		{"functions added", len(r.FunctionsAdded)},
		{"global vars removed", len(r.GlobalVarsRemoved)},
		{"global vars added", len(r.GlobalVarsAdded)},
		{"ELF symbols removed", len(r.RemovedElfFunctions) + len(r.RemovedElfObjects)},
		{"ELF symbols added", len(r.AddedElfFunctions) + len(r.AddedElfObjects)},
		{"unreferenced changes", len(r.UnreferencedRecordTypeDiffs) + len(r.UnreferencedEnumTypeDiffs) +
			len(r.UnreferencedEnumTypeExtensionDiffs) + len(r.UnreferencedRecordTypesRemoved) +
			len(r.UnreferencedRecordTypesAdded) + len(r.UnreferencedEnumTypesRemoved) +
			len(r.UnreferencedEnumTypesAdded)},
	}
	for _, l := range lines {
		if l.n > 0 {
			f.Textf("  %d %s", l.n, l.label)
		}
	}
}

// recordRun opens the history database, records one run and closes it.
func recordRun(path string, record func(*store.Store) (store.Run, bool, error)) (store.Run, error) {
	s, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer s.Close()

	run, inserted, err := record(s)
	if err != nil {
		return store.Run{}, err
	}
	if !inserted {
		slog.Info("run already recorded", "id", run.ID, "fingerprint", run.Fingerprint)
	}
	return run, nil
}
