package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SyncService feeds store entries through the reconciler and records
// finished runs in the journal.
type SyncService struct {
	store      driven.EntryStore
	reconciler *Reconciler
	journal    driven.SyncJournal
	now        func() time.Time
}

// NewSyncService creates a new sync service.
// The journal is optional (can be nil), in which case runs are not recorded.
func NewSyncService(store driven.EntryStore, remote driven.RemoteStore, journal driven.SyncJournal) *SyncService {
	return &SyncService{
		store:      store,
		reconciler: NewReconciler(remote),
		journal:    journal,
		now:        time.Now,
	}
}

// SyncStore reconciles every indexed entry, optionally limited to one
// category. Entries whose record file cannot be read count as failed.
func (s *SyncService) SyncStore(ctx context.Context, opts domain.SyncOptions) (*domain.SyncReport, error) {
	records, err := s.store.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	category := domain.NormaliseCategory(opts.Category)

	run := s.begin(opts)
	for i := range records {
		rec := &records[i]
		if category != "" && rec.Category != category {
			continue
		}
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, run, err)
		}

		entry, err := s.store.ReadEntry(ctx, rec.Filename)
		if err != nil {
			logger.Warn("sync %s: %v", rec.Filename, err)
			run.Report.Add(domain.SyncResult{
				Fingerprint: rec.Fingerprint,
				Title:       rec.Title,
				Filename:    rec.Filename,
				State:       domain.SyncFailed,
				DryRun:      opts.DryRun,
				Err:         err,
			})
			continue
		}
		run.Report.Add(s.reconciler.Reconcile(ctx, entry, opts))
	}
	return s.finish(ctx, run, nil)
}

// SyncEntries reconciles the given entries in order, then appends one
// failed result per load failure so that the journalled run matches the
// report.
func (s *SyncService) SyncEntries(ctx context.Context, entries []domain.Entry, failed []*domain.ItemError, opts domain.SyncOptions) (*domain.SyncReport, error) {
	run := s.begin(opts)
	report, err := s.reconciler.ReconcileAll(ctx, entries, opts)
	report.RunID = run.Report.RunID
	for _, itemErr := range failed {
		report.Add(domain.SyncResult{
			Filename: itemErr.Path,
			State:    domain.SyncFailed,
			DryRun:   opts.DryRun,
			Err:      itemErr,
		})
	}
	run.Report = *report
	return s.finish(ctx, run, err)
}

// History returns recent recorded runs, newest first.
func (s *SyncService) History(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListRuns(ctx, limit)
}

// Run returns one recorded run with its results. Without a journal every
// run is unknown.
func (s *SyncService) Run(ctx context.Context, runID string) (*domain.SyncRun, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("%w: sync run %s", domain.ErrNotFound, runID)
	}
	return s.journal.GetRun(ctx, runID)
}

func (s *SyncService) begin(opts domain.SyncOptions) *domain.SyncRun {
	id := uuid.New().String()
	logger.Section("Sync " + id)
	return &domain.SyncRun{
		ID:        id,
		StartedAt: s.now(),
		Report:    domain.SyncReport{RunID: id, DryRun: opts.DryRun},
	}
}

// finish stamps the run and journals it. Dry runs are not journalled.
// A journal failure is logged; it never hides the report.
func (s *SyncService) finish(ctx context.Context, run *domain.SyncRun, cause error) (*domain.SyncReport, error) {
	run.FinishedAt = s.now()
	if s.journal != nil && !run.Report.DryRun && run.Report.Total() > 0 {
		if err := s.journal.RecordRun(context.WithoutCancel(ctx), *run); err != nil {
			logger.Warn("record sync run %s: %v", run.ID, err)
		}
	}
	return &run.Report, cause
}
