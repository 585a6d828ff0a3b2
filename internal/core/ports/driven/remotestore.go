package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// RemoteStore is the remote system of record entries are projected into.
// Implementations own transport concerns (auth, retry, backoff); callers
// never retry.
type RemoteStore interface {
	// Query returns one page of remote records whose fingerprint property
	// equals fingerprint. An empty cursor requests the first page.
	Query(ctx context.Context, fingerprint, cursor string) (*domain.RemotePage, error)

	// Create writes a new remote record for the entry and returns its ID.
	Create(ctx context.Context, entry *domain.Entry) (string, error)

	// Update replaces the mutable fields of an existing remote record.
	// The fingerprint property is never written.
	Update(ctx context.Context, remoteID string, entry *domain.Entry) error
}
