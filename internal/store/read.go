package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fortio.org/safecast"

	"github.com/roach88/headercheck/internal/ir"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one recorded diff or merge.
type Run struct {
	ID          string                 `json:"id"`
	Kind        string                 `json:"kind"`
	LibName     string                 `json:"lib_name,omitempty"`
	Arch        string                 `json:"arch,omitempty"`
	Status      ir.CompatibilityStatus `json:"-"`
	Severity    ir.Severity            `json:"-"`
	Fingerprint string                 `json:"fingerprint"`
	CreatedAt   time.Time              `json:"created_at"`
}

const runColumns = `id, kind, lib_name, arch, status, severity, fingerprint, created_at`

// ListRuns returns recorded runs in insertion order. A non-empty lib
// restricts the listing to diff runs of that library.
func (s *Store) ListRuns(ctx context.Context, lib string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq ASC`
	var args []any
	if lib != "" {
		query = `SELECT ` + runColumns + ` FROM runs WHERE lib_name = ? ORDER BY seq ASC`
		args = append(args, lib)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadDiffReport returns the diff report stored under id.
func (s *Store) ReadDiffReport(ctx context.Context, id string) (*ir.DiffReport, error) {
	data, err := s.readReport(ctx, id, KindDiff)
	if err != nil {
		return nil, err
	}
	return unmarshalReport(data)
}

// ReadMergedReport returns the merged report stored under id.
func (s *Store) ReadMergedReport(ctx context.Context, id string) (*ir.MergedReport, error) {
	data, err := s.readReport(ctx, id, KindMerge)
	if err != nil {
		return nil, err
	}
	return unmarshalMerged(data)
}

func (s *Store) readReport(ctx context.Context, id, kind string) ([]byte, error) {
	var gotKind string
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT kind, report FROM runs WHERE id = ?`, id).Scan(&gotKind, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	if gotKind != kind {
		return nil, fmt.Errorf("run %s is a %s run, not %s", id, gotKind, kind)
	}
	return data, nil
}

func (s *Store) findRun(ctx context.Context, kind, lib, arch, fingerprint string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs
		WHERE kind = ? AND lib_name = ? AND arch = ? AND fingerprint = ?`,
		kind, lib, arch, fingerprint)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind, fingerprint)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var status, severity, createdAt int64
	if err := sc.Scan(&run.ID, &run.Kind, &run.LibName, &run.Arch,
		&status, &severity, &run.Fingerprint, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	st, err := safecast.Conv[int](status)
	if err != nil {
		return Run{}, fmt.Errorf("run %s status: %w", run.ID, err)
	}
	sev, err := safecast.Conv[int](severity)
	if err != nil {
		return Run{}, fmt.Errorf("run %s severity: %w", run.ID, err)
	}
	run.Status = ir.CompatibilityStatus(st)
	run.Severity = ir.Severity(sev)
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return run, nil
}
