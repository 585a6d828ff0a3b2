package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure RemoteStore implements the interface.
var _ driven.RemoteStore = (*RemoteStore)(nil)

// defaultPageSize mirrors the remote's maximum page size.
const defaultPageSize = 100

// RemotePage is a record held by the in-memory remote.
type RemotePage struct {
	ID    string
	Entry domain.Entry
}

// RemoteStore is an in-memory stand-in for the remote system of record.
type RemoteStore struct {
	mu       sync.Mutex
	pages    []RemotePage
	pageSize int
	loose    bool

	// Error injection.
	QueryErr  error
	CreateErr error
	UpdateErr error

	// Call counters.
	Queries int
	Creates int
	Updates int
}

// RemoteOption configures a RemoteStore.
type RemoteOption func(*RemoteStore)

// WithPageSize sets how many records a query page holds.
func WithPageSize(n int) RemoteOption {
	return func(s *RemoteStore) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLooseFilter makes queries return every record, matching or not,
// so callers must check fingerprints themselves across pages.
func WithLooseFilter() RemoteOption {
	return func(s *RemoteStore) {
		s.loose = true
	}
}

// NewRemoteStore creates an empty in-memory remote.
func NewRemoteStore(opts ...RemoteOption) *RemoteStore {
	s := &RemoteStore{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed adds a record as if it had been created earlier. Returns its ID.
func (s *RemoteStore) Seed(entry domain.Entry) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.pages = append(s.pages, RemotePage{ID: id, Entry: entry})
	return id
}

// Pages returns a copy of all remote records.
func (s *RemoteStore) Pages() []RemotePage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RemotePage, len(s.pages))
	copy(out, s.pages)
	return out
}

// Query pages through records whose fingerprint equals fingerprint.
// The cursor is the offset of the next page.
func (s *RemoteStore) Query(_ context.Context, fingerprint, cursor string) (*domain.RemotePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}

	var matched []RemotePage
	for _, p := range s.pages {
		if s.loose || p.Entry.Fingerprint == fingerprint {
			matched = append(matched, p)
		}
	}

	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(matched) {
			return nil, fmt.Errorf("%w: bad cursor %q", domain.ErrRemoteRejected, cursor)
		}
		start = n
	}
	end := start + s.pageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := &domain.RemotePage{}
	for _, p := range matched[start:end] {
		page.Records = append(page.Records, domain.RemoteRecord{ID: p.ID, Fingerprint: p.Entry.Fingerprint})
	}
	if end < len(matched) {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

// Create stores a new record.
func (s *RemoteStore) Create(_ context.Context, entry *domain.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Creates++
	if s.CreateErr != nil {
		return "", s.CreateErr
	}
	id := uuid.New().String()
	s.pages = append(s.pages, RemotePage{ID: id, Entry: *entry})
	return id, nil
}

// Update replaces a record's mutable fields, keeping its fingerprint.
func (s *RemoteStore) Update(_ context.Context, remoteID string, entry *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates++
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	for i := range s.pages {
		if s.pages[i].ID == remoteID {
			fingerprint := s.pages[i].Entry.Fingerprint
			s.pages[i].Entry = *entry
			s.pages[i].Entry.Fingerprint = fingerprint
			return nil
		}
	}
	return fmt.Errorf("%w: page %s", domain.ErrNotFound, remoteID)
}
