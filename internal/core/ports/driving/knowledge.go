package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// KnowledgeService manages knowledge-base entries.
type KnowledgeService interface {
	// Add writes a new entry unless its fingerprint is already indexed.
	Add(ctx context.Context, req AddRequest) (*AddResult, error)

	// Rebuild regenerates the index from the record files.
	Rebuild(ctx context.Context) (*domain.RebuildReport, error)

	// Search filters the index.
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.Entry, error)

	// Categories lists the categories present in the store.
	Categories(ctx context.Context) ([]string, error)
}

// AddRequest describes an entry to write.
type AddRequest struct {
	Category       string
	Title          string
	Content        string
	Tags           []string
	URL            string
	AttachmentPath string

	// AllowDuplicate writes the entry even when its fingerprint exists.
	AllowDuplicate bool
}

// AddResult is the outcome of Add.
type AddResult struct {
	// Path is the written file. Empty when Duplicate is set.
	Path string

	// Fingerprint is the entry's derived identity.
	Fingerprint string

	// Duplicate is set when nothing was written because the fingerprint exists.
	Duplicate bool

	// Rebuild is the index rebuild that followed the write.
	Rebuild *domain.RebuildReport
}
