package flatfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Rebuild regenerates index.json from every record file. A file that cannot
// be read or parsed is left out and reported; it never aborts the rebuild.
// Entries are sorted newest first; entries with equal timestamps keep scan
// order (lexical by directory, then by file name, as os.ReadDir returns them).
// That tie order is an implementation detail, not a contract.
func (s *Store) Rebuild(ctx context.Context) (*domain.RebuildReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Rebuild index")

	categories, err := s.categoryDirs()
	if err != nil {
		return nil, err
	}

	report := &domain.RebuildReport{}
	var entries []domain.Entry

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files, err := os.ReadDir(filepath.Join(s.root, category))
		if err != nil {
			report.Skipped = append(report.Skipped, domain.NewIOError(category, err))
			logger.Warn("skipping category %s: %v", category, err)
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), recordExt) {
				continue
			}
			rel := category + "/" + f.Name()

			entry, itemErr := s.scanRecord(category, rel)
			if itemErr != nil {
				report.Skipped = append(report.Skipped, itemErr)
				logger.Warn("excluding %s from index: %v", rel, itemErr.Err)
				continue
			}
			entries = append(entries, *entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt.Time)
	})

	if err := s.writeIndex(entries); err != nil {
		return nil, err
	}

	report.Indexed = len(entries)
	logger.Debug("indexed %d entries, skipped %d files", report.Indexed, len(report.Skipped))
	return report, nil
}

// scanRecord reads one record file's header for the index.
func (s *Store) scanRecord(category, rel string) (*domain.Entry, *domain.ItemError) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, domain.NewIOError(rel, err)
	}
	entry, err := decodeRecord(data)
	if err != nil {
		return nil, domain.NewParseError(rel, err)
	}
	if entry.Category == "" {
		entry.Category = category
	}
	entry.Filename = rel
	entry.Content = ""
	return entry, nil
}

// Exists reports whether the last rebuilt index holds fingerprint.
func (s *Store) Exists(ctx context.Context, fingerprint string) (bool, error) {
	entries, err := s.Index(ctx)
	if err != nil {
		return false, err
	}
	for i := range entries {
		if entries[i].Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// Index loads the index. A missing or corrupt index is treated as empty.
func (s *Store) Index(_ context.Context) ([]domain.Entry, error) {
	data, err := os.ReadFile(s.indexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var entries []domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("index %s is corrupt, treating as empty: %v", s.indexPath(), err)
		return []domain.Entry{}, nil
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// writeIndex replaces index.json atomically: the new content goes to a
// temporary file in the root which is then renamed over the index.
func (s *Store) writeIndex(entries []domain.Entry) error {
	if entries == nil {
		entries = []domain.Entry{}
	}
	data, err := marshalJSON(entries)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp index: %w", err)
	}
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpName, s.indexPath()); err != nil {
		cleanup()
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
