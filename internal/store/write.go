package store

import (
	"context"
	"fmt"

	"github.com/roach88/headercheck/internal/ir"
)

// Run kinds.
const (
	KindDiff  = "diff"
	KindMerge = "merge"
)

// RecordDiff stores a diff report under its fingerprint.
//
// Returns the stored run and whether it was newly inserted. Recording a
// report that is already present returns the existing run.
func (s *Store) RecordDiff(ctx context.Context, r *ir.DiffReport, fingerprint string) (Run, bool, error) {
	if r == nil {
		return Run{}, false, fmt.Errorf("record diff: nil report")
	}
	data, err := marshalReport(r)
	if err != nil {
		return Run{}, false, err
	}
	return s.record(ctx, Run{
		Kind:        KindDiff,
		LibName:     r.LibName,
		Arch:        r.Arch,
		Status:      r.Status,
		Severity:    r.Status.Severity(),
		Fingerprint: fingerprint,
	}, data)
}

// RecordMerge stores a merged report under its fingerprint. Merged runs
// have no library or arch of their own.
func (s *Store) RecordMerge(ctx context.Context, m *ir.MergedReport, fingerprint string) (Run, bool, error) {
	if m == nil {
		return Run{}, false, fmt.Errorf("record merge: nil report")
	}
	data, err := marshalMerged(m)
	if err != nil {
		return Run{}, false, err
	}
	return s.record(ctx, Run{
		Kind:        KindMerge,
		Status:      m.Status,
		Severity:    m.Severity,
		Fingerprint: fingerprint,
	}, data)
}

func (s *Store) record(ctx context.Context, run Run, report []byte) (Run, bool, error) {
	if run.Fingerprint == "" {
		return Run{}, false, fmt.Errorf("record %s: empty fingerprint", run.Kind)
	}
	id, err := s.ids.NewID()
	if err != nil {
		return Run{}, false, fmt.Errorf("generate run id: %w", err)
	}
	run.ID = id
	run.CreatedAt = s.clock.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, lib_name, arch, status, severity, fingerprint, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, lib_name, arch, fingerprint) DO NOTHING
	`, run.ID, run.Kind, run.LibName, run.Arch, int(run.Status), int(run.Severity),
		run.Fingerprint, report, run.CreatedAt.UnixNano())
	if err != nil {
		return Run{}, false, fmt.Errorf("insert run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Run{}, false, fmt.Errorf("insert run: %w", err)
	}
	if n == 1 {
		return run, true, nil
	}

	existing, err := s.findRun(ctx, run.Kind, run.LibName, run.Arch, run.Fingerprint)
	if err != nil {
		return Run{}, false, err
	}
	return existing, false, nil
}
