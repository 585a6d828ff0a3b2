package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure EntryStore implements the interface.
var _ driven.EntryStore = (*EntryStore)(nil)

// EntryStore is an in-memory implementation of driven.EntryStore.
// Like the file store, Exists and Index only see what the last Rebuild saw.
type EntryStore struct {
	mu      sync.RWMutex
	records map[string]domain.Entry
	order   []string
	index   []domain.Entry

	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

// NewEntryStore creates a new in-memory entry store.
func NewEntryStore() *EntryStore {
	return &EntryStore{
		records: make(map[string]domain.Entry),
	}
}

// Write stores the entry under <category>/<n>.md.
func (s *EntryStore) Write(_ context.Context, entry *domain.Entry, attachmentPath string) (string, error) {
	if s.WriteErr != nil {
		return "", s.WriteErr
	}
	if entry.Category == "" || entry.Fingerprint == "" {
		return "", fmt.Errorf("%w: category and fingerprint are required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if attachmentPath != "" {
		name := attachmentPath[strings.LastIndex(attachmentPath, "/")+1:]
		entry.Attachment = "_attachments/" + entry.Fingerprint + "/" + name
	}
	entry.Filename = fmt.Sprintf("%s/%d.md", entry.Category, len(s.order)+1)
	s.records[entry.Filename] = *entry
	s.order = append(s.order, entry.Filename)
	return entry.Filename, nil
}

// Put stores an entry directly without touching the index, the way an
// external edit would drop a file into the store.
func (s *EntryStore) Put(entry domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[entry.Filename]; !ok {
		s.order = append(s.order, entry.Filename)
	}
	s.records[entry.Filename] = entry
}

// Rebuild regenerates the index from the stored records, newest first.
func (s *EntryStore) Rebuild(_ context.Context) (*domain.RebuildReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make([]domain.Entry, 0, len(s.order))
	for _, name := range s.order {
		e := s.records[name]
		e.Content = ""
		index = append(index, e)
	}
	sort.SliceStable(index, func(i, j int) bool {
		return index[i].CreatedAt.After(index[j].CreatedAt.Time)
	})
	s.index = index

	return &domain.RebuildReport{Indexed: len(index)}, nil
}

// Exists reports whether the last rebuilt index holds fingerprint.
func (s *EntryStore) Exists(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.index {
		if s.index[i].Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// Index returns a copy of the last rebuilt index.
func (s *EntryStore) Index(_ context.Context) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Entry, len(s.index))
	copy(out, s.index)
	return out, nil
}

// ReadEntry returns the stored entry including content.
func (s *EntryStore) ReadEntry(_ context.Context, filename string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[filename]
	if !ok {
		return nil, domain.NewIOError(filename, domain.ErrNotFound)
	}
	return &e, nil
}

// Categories lists the categories of stored records.
func (s *EntryStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, name := range s.order {
		c := s.records[name].Category
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes a record without touching the index.
func (s *EntryStore) Delete(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, filename)
	for i, name := range s.order {
		if name == filename {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
