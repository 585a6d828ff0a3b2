package domain

// SyncDecision is what the reconciler decided to do with a record.
type SyncDecision string

// Reconciler decisions.
const (
	// DecisionNone means no decision was reached (the query or read failed).
	DecisionNone SyncDecision = ""

	// DecisionCreate means no remote record carries the fingerprint.
	DecisionCreate SyncDecision = "create"

	// DecisionUpdate means a remote record matched and updates were requested.
	DecisionUpdate SyncDecision = "update"

	// DecisionSkip means a remote record matched and updates were not requested.
	DecisionSkip SyncDecision = "skip"
)

// SyncState is a position in the per-record reconciliation state machine:
// UNSYNCED → QUERIED → {CREATE, UPDATE, SKIP} → {DONE, FAILED}.
type SyncState string

// Reconciliation states.
const (
	SyncUnsynced SyncState = "unsynced"
	SyncQueried  SyncState = "queried"
	SyncCreate   SyncState = "create"
	SyncUpdate   SyncState = "update"
	SyncSkip     SyncState = "skip"
	SyncDone     SyncState = "done"
	SyncFailed   SyncState = "failed"
)

// IsTerminal reports whether no further transition follows s.
func (s SyncState) IsTerminal() bool {
	return s == SyncDone || s == SyncFailed
}

// SyncOptions controls a reconciliation pass.
type SyncOptions struct {
	// Update replaces mutable remote fields when a match exists.
	Update bool

	// DryRun computes decisions without any remote write.
	DryRun bool

	// Category restricts a store sync to one category. Empty means all.
	Category string
}

// SyncResult is the outcome of reconciling one record.
type SyncResult struct {
	Fingerprint string
	Title       string
	Filename    string
	Decision    SyncDecision
	State       SyncState
	RemoteID    string
	DryRun      bool
	Err         error
}

// Failed reports whether the record ended FAILED.
func (r *SyncResult) Failed() bool {
	return r.State == SyncFailed
}

// SyncReport accumulates per-outcome counts for a batch.
type SyncReport struct {
	RunID   string
	DryRun  bool
	Created int
	Updated int
	Skipped int
	Failed  int
	Results []SyncResult
}

// Add folds one result into the report.
func (r *SyncReport) Add(res SyncResult) {
	r.Results = append(r.Results, res)
	if res.Failed() {
		r.Failed++
		return
	}
	switch res.Decision {
	case DecisionCreate:
		r.Created++
	case DecisionUpdate:
		r.Updated++
	case DecisionSkip:
		r.Skipped++
	}
}

// Total returns the number of records in the batch.
func (r *SyncReport) Total() int {
	return len(r.Results)
}

// HasFailures reports whether any record ended FAILED.
func (r *SyncReport) HasFailures() bool {
	return r.Failed > 0
}
