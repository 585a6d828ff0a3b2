package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// EntryStore persists knowledge-base entries and their derived index.
// Record files are the source of truth; the index is a disposable cache
// rebuilt from them.
type EntryStore interface {
	// Write persists a new entry, copying the attachment at attachmentPath
	// (if non-empty) into fingerprint-scoped storage. It fills in the
	// entry's Attachment and Filename and returns the written path.
	// Write does not rebuild the index.
	Write(ctx context.Context, entry *domain.Entry, attachmentPath string) (string, error)

	// Rebuild regenerates the whole index from the record files.
	// Per-file problems are reported, not returned.
	Rebuild(ctx context.Context) (*domain.RebuildReport, error)

	// Exists reports whether the current index holds the fingerprint.
	// A missing or corrupt index is treated as empty.
	Exists(ctx context.Context, fingerprint string) (bool, error)

	// Index returns the current index records, newest first.
	// A missing or corrupt index yields an empty slice.
	Index(ctx context.Context) ([]domain.Entry, error)

	// ReadEntry loads a full entry, including its content, by filename
	// relative to the store root.
	ReadEntry(ctx context.Context, filename string) (*domain.Entry, error)

	// Categories lists the category directories present in the store.
	Categories(ctx context.Context) ([]string, error)
}
