package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SyncJournal records the history of reconciliation batches.
// It is an audit trail only: decisions always come from a live remote query.
type SyncJournal interface {
	// RecordRun stores a finished batch with its per-record results.
	RecordRun(ctx context.Context, run domain.SyncRun) error

	// ListRuns returns the most recent runs, newest first.
	// Results are not populated.
	ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// GetRun returns a run with its results.
	GetRun(ctx context.Context, runID string) (*domain.SyncRun, error)
}
