package domain

import "time"

// RemoteRecord is the part of a remote page the reconciler needs.
type RemoteRecord struct {
	// ID is the remote page identifier.
	ID string

	// Fingerprint is the external-id property as stored remotely.
	// Empty when the remote did not return the property.
	Fingerprint string
}

// RemotePage is one page of fingerprint query results.
type RemotePage struct {
	Records    []RemoteRecord
	HasMore    bool
	NextCursor string
}

// SyncRun is a recorded reconciliation batch.
type SyncRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Report     SyncReport
}
