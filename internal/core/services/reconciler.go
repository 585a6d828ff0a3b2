package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Reconciler decides, per entry, whether the remote needs a create, an
// update or nothing, and carries the decision out. Records are handled
// sequentially so that a record created earlier in a batch is visible to
// later ones.
type Reconciler struct {
	remote driven.RemoteStore
}

// NewReconciler creates a reconciler writing to remote.
func NewReconciler(remote driven.RemoteStore) *Reconciler {
	return &Reconciler{remote: remote}
}

// Reconcile drives one entry through
// UNSYNCED → QUERIED → {CREATE, UPDATE, SKIP} → {DONE, FAILED}.
// Failures are reported in the result, never returned.
func (r *Reconciler) Reconcile(ctx context.Context, entry *domain.Entry, opts domain.SyncOptions) domain.SyncResult {
	fingerprint := entry.Fingerprint
	if fingerprint == "" {
		fingerprint = domain.EntryFingerprint(entry)
	}

	res := domain.SyncResult{
		Fingerprint: fingerprint,
		Title:       entry.Title,
		Filename:    entry.Filename,
		State:       domain.SyncUnsynced,
		DryRun:      opts.DryRun,
	}

	match, err := r.find(ctx, fingerprint)
	if err != nil {
		return fail(res, fmt.Errorf("query remote: %w", err))
	}
	res.State = domain.SyncQueried

	switch {
	case match == nil:
		res.Decision, res.State = domain.DecisionCreate, domain.SyncCreate
	case opts.Update:
		res.Decision, res.State = domain.DecisionUpdate, domain.SyncUpdate
		res.RemoteID = match.ID
	default:
		res.Decision, res.State = domain.DecisionSkip, domain.SyncSkip
		res.RemoteID = match.ID
	}

	if opts.DryRun || res.Decision == domain.DecisionSkip {
		logger.Debug("%s %q (%s)", res.Decision, res.Title, fingerprint)
		res.State = domain.SyncDone
		return res
	}

	payload := *entry
	payload.Fingerprint = fingerprint

	switch res.Decision {
	case domain.DecisionCreate:
		id, err := r.remote.Create(ctx, &payload)
		if err != nil {
			return fail(res, fmt.Errorf("create remote record: %w", err))
		}
		res.RemoteID = id
	case domain.DecisionUpdate:
		if err := r.remote.Update(ctx, res.RemoteID, &payload); err != nil {
			return fail(res, fmt.Errorf("update remote record %s: %w", res.RemoteID, err))
		}
	}

	logger.Debug("%s %q remote=%s", res.Decision, res.Title, res.RemoteID)
	res.State = domain.SyncDone
	return res
}

// ReconcileAll reconciles entries in order. A failing record never stops
// the batch; only context cancellation does, in which case the partial
// report is returned with the context error.
func (r *Reconciler) ReconcileAll(ctx context.Context, entries []domain.Entry, opts domain.SyncOptions) (*domain.SyncReport, error) {
	report := &domain.SyncReport{DryRun: opts.DryRun}
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Add(r.Reconcile(ctx, &entries[i], opts))
	}
	return report, nil
}

// find pages through query results until a record matches fingerprint or
// the results run out. A record without a readable fingerprint is trusted
// as a match, since the remote filter already selected it.
func (r *Reconciler) find(ctx context.Context, fingerprint string) (*domain.RemoteRecord, error) {
	cursor := ""
	for {
		page, err := r.remote.Query(ctx, fingerprint, cursor)
		if err != nil {
			return nil, err
		}
		for i := range page.Records {
			rec := page.Records[i]
			if rec.Fingerprint == fingerprint || rec.Fingerprint == "" {
				return &rec, nil
			}
		}
		if !page.HasMore || page.NextCursor == "" {
			return nil, nil
		}
		cursor = page.NextCursor
	}
}

func fail(res domain.SyncResult, err error) domain.SyncResult {
	logger.Warn("sync %q failed: %v", res.Title, err)
	res.State = domain.SyncFailed
	res.Err = err
	return res
}
