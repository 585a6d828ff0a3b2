package flatfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.EntryStore = (*Store)(nil)

const (
	// AttachmentsDir holds fingerprint-scoped attachment copies.
	AttachmentsDir = "_attachments"

	// IndexFile is the derived index, relative to the root.
	IndexFile = "index.json"

	recordExt = ".md"
)

// DefaultCategories are created on every open so the common categories
// always exist, even in a pre-existing root.
var DefaultCategories = []string{"gpt", "claude", "gemini", "copilot", "bsm"}

// Store is the flat-file implementation of driven.EntryStore.
type Store struct {
	mu         sync.Mutex
	root       string
	now        func() time.Time
	categories []string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCategories replaces the categories created on open.
func WithCategories(categories ...string) Option {
	return func(s *Store) {
		s.categories = categories
	}
}

// NewStore opens (creating if needed) a knowledge base rooted at root.
// The root, the attachments directory, the default category directories
// and an empty index are created when absent.
func NewStore(root string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		root = domain.DefaultStoreRoot
	}

	s := &Store{
		root:       root,
		now:        time.Now,
		categories: DefaultCategories,
	}
	for _, opt := range opts {
		opt(s)
	}

	dirs := []string{root, filepath.Join(root, AttachmentsDir)}
	for _, c := range s.categories {
		dirs = append(dirs, filepath.Join(root, c))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(s.indexPath()); errors.Is(err, fs.ErrNotExist) {
		if err := s.writeIndex(nil); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Write persists a new record file. It never overwrites an existing file:
// a name collision within the same second gets a numeric suffix.
func (s *Store) Write(ctx context.Context, entry *domain.Entry, attachmentPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if entry.Category == "" {
		return "", fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if entry.Category != domain.NormaliseCategory(entry.Category) {
		return "", fmt.Errorf("%w: category %q is not a plain directory name", domain.ErrInvalidInput, entry.Category)
	}
	if entry.Fingerprint == "" {
		return "", fmt.Errorf("%w: fingerprint is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = domain.NewTimestamp(s.now())
	}
	entry.ID = entry.CreatedAt.Format(domain.EntryIDLayout)
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	categoryDir := filepath.Join(s.root, entry.Category)
	if err := os.MkdirAll(categoryDir, 0755); err != nil {
		return "", fmt.Errorf("create category %s: %w", entry.Category, err)
	}

	written := false
	if attachmentPath != "" {
		copied, err := s.copyAttachment(entry.Fingerprint, attachmentPath)
		if err != nil {
			return "", err
		}
		entry.Attachment = copied.rel
		defer func() {
			if !written {
				copied.discard()
				entry.Attachment = ""
			}
		}()
	}

	data, err := encodeRecord(entry)
	if err != nil {
		return "", err
	}

	base := entry.ID + "_" + Slugify(entry.Title)
	name, err := createRecord(categoryDir, base, data)
	if err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	written = true

	entry.Filename = entry.Category + "/" + name
	return filepath.Join(categoryDir, name), nil
}

// createRecord is replaced in tests to simulate write failures.
var createRecord = createExclusive

// createExclusive writes data to dir/base.md, or base_2.md, base_3.md...
// when the name is taken. It returns the chosen file name.
func createExclusive(dir, base string, data []byte) (string, error) {
	for n := 1; ; n++ {
		name := base + recordExt
		if n > 1 {
			name = fmt.Sprintf("%s_%d%s", base, n, recordExt)
		}

		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return name, nil
	}
}

// ReadEntry loads the full entry stored at filename (relative to the root).
func (s *Store) ReadEntry(_ context.Context, filename string) (*domain.Entry, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewIOError(filename, err)
	}
	entry, err := decodeRecord(data)
	if err != nil {
		return nil, domain.NewParseError(filename, err)
	}

	entry.Filename = filepath.ToSlash(filepath.Clean(filename))
	if entry.Category == "" {
		entry.Category = strings.SplitN(entry.Filename, "/", 2)[0]
	}
	return entry, nil
}

// Categories lists the category directories under the root.
func (s *Store) Categories(_ context.Context) ([]string, error) {
	return s.categoryDirs()
}

// categoryDirs returns category directory names in lexical order.
func (s *Store) categoryDirs() ([]string, error) {
	items, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read store root: %w", err)
	}

	var dirs []string
	for _, item := range items {
		name := item.Name()
		if !item.IsDir() || name == AttachmentsDir || strings.HasPrefix(name, ".") {
			continue
		}
		dirs = append(dirs, name)
	}
	return dirs, nil
}

// resolve maps a root-relative filename to a path, refusing paths that
// escape the root.
func (s *Store) resolve(filename string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(filename))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the store", domain.ErrInvalidInput, filename)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, IndexFile)
}
