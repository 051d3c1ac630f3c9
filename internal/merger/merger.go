package merger

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/repr"
)

// Options configures a merge.
type Options struct {
	// AdvisoryOnly reports but always exits successfully.
	AdvisoryOnly bool

	// AllowExtensions treats EXTENSION as COMPATIBLE for the exit code.
	AllowExtensions bool

	// InputFormat overrides format detection by file extension.
	InputFormat repr.TextFormat

	// Jobs bounds concurrent report reads. Zero means GOMAXPROCS.
	Jobs int
}

// Input is one diff report and the file it was read from.
type Input struct {
	Path   string
	Report *ir.DiffReport
}

// Merge folds inputs in order into a merged report. Each entry carries the
// report's own status and its content fingerprint.
func Merge(inputs []Input) (*ir.MergedReport, error) {
	merged := &ir.MergedReport{Severity: ir.SeverityCompatible}
	for _, in := range inputs {
		fp, err := repr.ReportFingerprint(in.Report)
		if err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", in.Path, err)
		}
		status := in.Report.Status
		merged.Status |= status
		merged.Severity = merged.Severity.Worse(status.Severity())
		merged.Reports = append(merged.Reports, ir.MergedEntry{
			LibName:     in.Report.LibName,
			Arch:        in.Report.Arch,
			Status:      status,
			Path:        in.Path,
			Fingerprint: fp,
		})
	}
	return merged, nil
}

// MergeFiles reads the reports at paths concurrently and merges them in
// input order. A malformed report aborts the merge.
func MergeFiles(ctx context.Context, paths []string, opts Options) (*ir.MergedReport, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input reports")
	}
	inputs, err := readReports(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	merged, err := Merge(inputs)
	if err != nil {
		return nil, err
	}
	slog.Info("merge complete",
		"reports", len(merged.Reports),
		"status", merged.Status.String(),
		"severity", merged.Severity.String())
	return merged, nil
}

func readReports(ctx context.Context, paths []string, opts Options) ([]Input, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	inputs := make([]Input, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			format := opts.InputFormat
			if format == "" {
				format = repr.FormatForPath(path)
			}
			r, err := repr.ReadReport(path, format)
			if err != nil {
				return err
			}
			inputs[i] = Input{Path: path, Report: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// ExitStatus is the status the process exit code is derived from: the
// most severe bit of the merged status for INCOMPATIBLE, EXTENSION unless
// extensions are allowed, and COMPATIBLE otherwise. Unreferenced-only
// changes never fail a merge.
func (o Options) ExitStatus(m *ir.MergedReport) ir.CompatibilityStatus {
	if o.AdvisoryOnly {
		return ir.StatusCompatible
	}
	switch m.Severity {
	case ir.SeverityIncompatible:
		return (m.Status &^ (ir.StatusExtension | ir.StatusUnreferencedChanges)).Primary()
	case ir.SeverityExtension:
		if o.AllowExtensions {
			return ir.StatusCompatible
		}
		return ir.StatusExtension
	}
	return ir.StatusCompatible
}
