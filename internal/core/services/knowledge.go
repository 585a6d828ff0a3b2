package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// KnowledgeService writes, indexes and searches entries.
type KnowledgeService struct {
	store driven.EntryStore
}

// NewKnowledgeService creates a new knowledge service.
func NewKnowledgeService(store driven.EntryStore) *KnowledgeService {
	return &KnowledgeService{store: store}
}

// Add normalises the request, skips known fingerprints unless duplicates
// are allowed, writes the record and rebuilds the index.
func (s *KnowledgeService) Add(ctx context.Context, req driving.AddRequest) (*driving.AddResult, error) {
	category := domain.NormaliseCategory(req.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}

	entry := &domain.Entry{
		Category: category,
		Title:    domain.NormaliseTitle(req.Title),
		Content:  strings.TrimSpace(req.Content),
		Tags:     domain.NormaliseTags(req.Tags),
		URL:      strings.TrimSpace(req.URL),
	}
	entry.Fingerprint = domain.EntryFingerprint(entry)

	if !req.AllowDuplicate {
		exists, err := s.store.Exists(ctx, entry.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			logger.Info("Skipping duplicate entry %q (%s)", entry.Title, entry.Fingerprint)
			return &driving.AddResult{Fingerprint: entry.Fingerprint, Duplicate: true}, nil
		}
	}

	path, err := s.store.Write(ctx, entry, strings.TrimSpace(req.AttachmentPath))
	if err != nil {
		return nil, fmt.Errorf("write entry: %w", err)
	}
	logger.Debug("Wrote %s", path)

	report, err := s.store.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}

	return &driving.AddResult{
		Path:        path,
		Fingerprint: entry.Fingerprint,
		Rebuild:     report,
	}, nil
}

// Rebuild regenerates the index from the record files.
func (s *KnowledgeService) Rebuild(ctx context.Context) (*domain.RebuildReport, error) {
	return s.store.Rebuild(ctx)
}

// Search returns index records matching every set field of query, in
// index order (newest first).
func (s *KnowledgeService) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Entry, error) {
	records, err := s.store.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	text := strings.ToLower(strings.TrimSpace(query.Text))
	category := domain.NormaliseCategory(query.Category)
	tag := strings.TrimSpace(query.Tag)

	results := make([]domain.Entry, 0, len(records))
	for i := range records {
		e := &records[i]
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if tag != "" && !e.HasTag(tag) {
			continue
		}
		if text != "" && !matchesText(e, text) {
			continue
		}
		results = append(results, *e)
	}
	return results, nil
}

// Categories lists the categories present in the store.
func (s *KnowledgeService) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

// matchesText reports whether the lowercase needle occurs in the title,
// filename or URL.
func matchesText(e *domain.Entry, needle string) bool {
	for _, field := range []string{e.Title, e.Filename, e.URL} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
