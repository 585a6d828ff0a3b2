package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SyncService reconciles entries with the remote system of record.
type SyncService interface {
	// SyncStore reconciles every entry in the local store.
	SyncStore(ctx context.Context, opts domain.SyncOptions) (*domain.SyncReport, error)

	// SyncEntries reconciles the given entries in order. Items that failed
	// to load before reaching the service are recorded as failed results of
	// the same run.
	SyncEntries(ctx context.Context, entries []domain.Entry, failed []*domain.ItemError, opts domain.SyncOptions) (*domain.SyncReport, error)

	// History returns recent recorded runs, newest first.
	History(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// Run returns one recorded run with its per-record results.
	Run(ctx context.Context, runID string) (*domain.SyncRun, error)
}
