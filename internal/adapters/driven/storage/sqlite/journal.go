package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// syncJournal implements driven.SyncJournal.
type syncJournal struct {
	store *Store
}

var _ driven.SyncJournal = (*syncJournal)(nil)

// RecordRun stores a run and its results in one transaction. Every result
// must have reached DONE or FAILED.
func (j *syncJournal) RecordRun(ctx context.Context, run domain.SyncRun) error {
	for i := range run.Report.Results {
		if state := run.Report.Results[i].State; !state.IsTerminal() {
			return fmt.Errorf("%w: sync result %d is in state %q", domain.ErrInvalidInput, i, state)
		}
	}

	tx, err := j.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := run.Report
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, dry_run, created, updated, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		r.DryRun, r.Created, r.Updated, r.Skipped, r.Failed)
	if err != nil {
		return fmt.Errorf("saving sync run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sync_results (run_id, seq, fingerprint, title, filename, decision, state, remote_id, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range r.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, res.Fingerprint, res.Title, res.Filename,
			string(res.Decision), string(res.State), res.RemoteID, errText); err != nil {
			return fmt.Errorf("saving sync result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sync run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, without results.
// A non-positive limit returns every run.
func (j *syncJournal) ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.store.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, created, updated, skipped, failed
		FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run with its results in batch order.
func (j *syncJournal) GetRun(ctx context.Context, runID string) (*domain.SyncRun, error) {
	row := j.store.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, created, updated, skipped, failed
		FROM sync_runs WHERE id = ?
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run %s: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := j.store.db.QueryContext(ctx, `
		SELECT fingerprint, title, filename, decision, state, remote_id, error
		FROM sync_results WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying sync results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.SyncResult
		var decision, state, errText string
		if err := rows.Scan(&res.Fingerprint, &res.Title, &res.Filename,
			&decision, &state, &res.RemoteID, &errText); err != nil {
			return nil, fmt.Errorf("scanning sync result: %w", err)
		}
		res.Decision = domain.SyncDecision(decision)
		res.State = domain.SyncState(state)
		res.DryRun = run.Report.DryRun
		if errText != "" {
			res.Err = errors.New(errText)
		}
		run.Report.Results = append(run.Report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync results: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var started, finished string
	var dryRun bool
	r := &run.Report
	err := row.Scan(&run.ID, &started, &finished, &dryRun, &r.Created, &r.Updated, &r.Skipped, &r.Failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}
	r.RunID = run.ID
	r.DryRun = dryRun
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stored time %q: %w", domain.ErrParse, s, err)
	}
	return t, nil
}
