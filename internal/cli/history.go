package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database     string
	LibName      string
	Show         string
	OutputFormat string
}

// RunView is one history row as shown to users.
type RunView struct {
	store.Run
	StatusName   string `json:"status"`
	SeverityName string `json:"severity"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history --db <file>",
		Short: "List recorded diff and merge runs",
		Long: `List the runs recorded by diff --db and merge --db, oldest first.

With --show <run-id> the stored report of one run is printed instead.

Example:
  headercheck history --db abi.db --lib libfoo
  headercheck history --db abi.db --show 0190b3e2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.LibName, "lib", "", "only list diff runs of this library")
	cmd.Flags().StringVar(&opts.Show, "show", "", "print the report stored for this run id")
	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", "ProtobufTextFormat", "format of --show output (ProtobufTextFormat|Json)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Opening would create an empty database; a typo should fail instead.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.FailCode(ExitCommandError, ErrCodeNotFound, "database not found", err)
	}
	s, err := store.Open(opts.Database)
	if err != nil {
		return formatter.FailCode(ExitCommandError, ErrCodeDatabase, "opening database", err)
	}
	defer s.Close()

	if opts.Show != "" {
		return showRun(opts, s, cmd)
	}

	runs, err := s.ListRuns(cmd.Context(), opts.LibName)
	if err != nil {
		return formatter.FailCode(ExitFailure, ErrCodeDatabase, "listing runs", err)
	}

	views := make([]RunView, 0, len(runs))
	for _, r := range runs {
		views = append(views, RunView{Run: r, StatusName: r.Status.String(), SeverityName: r.Severity.String()})
	}
	if opts.Format == "json" {
		return formatter.Success(views)
	}

	if len(views) == 0 {
		formatter.Textf("No runs recorded.")
		return nil
	}
	for _, v := range views {
		subject := "merge"
		if v.Kind == store.KindDiff {
			subject = fmt.Sprintf("%s (%s)", v.LibName, v.Arch)
		}
		formatter.Textf("%s  %s  %-5s  %s", v.ID, v.CreatedAt.Format(time.RFC3339), v.Kind, subject)
		formatter.Verdict("  verdict", v.Status)
	}
	return nil
}

func showRun(opts *HistoryOptions, s *store.Store, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	format, err := parseFormatFlag("output-format", opts.OutputFormat)
	if err != nil {
		return err
	}

	var data []byte
	report, err := s.ReadDiffReport(cmd.Context(), opts.Show)
	if err == nil {
		data, err = repr.MarshalReport(report, format)
	} else if !errors.Is(err, store.ErrNotFound) {
		merged, mergedErr := s.ReadMergedReport(cmd.Context(), opts.Show)
		if mergedErr != nil {
			return formatter.FailCode(ExitFailure, ErrCodeDatabase, "reading run", mergedErr)
		}
		data, err = repr.MarshalMerged(merged, format)
	}
	if errors.Is(err, store.ErrNotFound) {
		return formatter.FailCode(ExitCommandError, ErrCodeNotFound, "unknown run", err)
	}
	if err != nil {
		return formatter.FailCode(ExitFailure, ErrCodeDatabase, "reading run", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
