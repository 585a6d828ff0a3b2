package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/flatfile"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

func TestKnowledgeService_AddThenDuplicate(t *testing.T) {
	root := t.TempDir()
	clock := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	store, err := flatfile.NewStore(root, flatfile.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)
	svc := NewKnowledgeService(store)
	ctx := context.Background()

	req := driving.AddRequest{Category: "GPT", Title: "Test", Content: "hello world"}

	first, err := svc.Add(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, domain.Fingerprint("gpt", "Test", "", "hello world"), first.Fingerprint)
	assert.FileExists(t, first.Path)
	require.NotNil(t, first.Rebuild)
	assert.Equal(t, 1, first.Rebuild.Indexed)

	second, err := svc.Add(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Empty(t, second.Path)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	index, err := store.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, index, 1)

	files, err := os.ReadDir(filepath.Join(root, "gpt"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestKnowledgeService_AddSlugsCategory(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "kb")
	store, err := flatfile.NewStore(root)
	require.NoError(t, err)
	svc := NewKnowledgeService(store)
	ctx := context.Background()

	tests := []struct {
		category string
		dir      string
	}{
		{"team/gpt", "team_gpt"},
		{"../escaped", "escaped"},
		{"_attachments", "attachments"},
		{".x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			req := driving.AddRequest{Category: tt.category, Title: "Test", Content: "hello " + tt.dir}

			first, err := svc.Add(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, tt.dir), filepath.Dir(first.Path))
			assert.Equal(t, domain.Fingerprint(tt.dir, "Test", "", req.Content), first.Fingerprint)

			second, err := svc.Add(ctx, req)
			require.NoError(t, err)
			assert.True(t, second.Duplicate, "record must be indexed so the retry is deduplicated")
		})
	}

	_, err = os.Stat(filepath.Join(parent, "escaped"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	index, err := store.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, index, len(tests))
}

func TestKnowledgeService_AddRejectsEmptySlug(t *testing.T) {
	svc := NewKnowledgeService(memory.NewEntryStore())

	_, err := svc.Add(context.Background(), driving.AddRequest{Category: "../..", Content: "x"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKnowledgeService_AllowDuplicate(t *testing.T) {
	store := memory.NewEntryStore()
	svc := NewKnowledgeService(store)
	ctx := context.Background()

	req := driving.AddRequest{Category: "claude", Title: "Same", Content: "body"}
	_, err := svc.Add(ctx, req)
	require.NoError(t, err)

	req.AllowDuplicate = true
	res, err := svc.Add(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	index, err := store.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, index, 2)
}

func TestKnowledgeService_AddNormalises(t *testing.T) {
	store := memory.NewEntryStore()
	svc := NewKnowledgeService(store)

	res, err := svc.Add(context.Background(), driving.AddRequest{
		Category: "  Gemini ",
		Title:    "   ",
		Content:  "\n  text  \n",
		Tags:     []string{" a ", "", "b"},
		URL:      " https://example.com ",
	})
	require.NoError(t, err)

	entry, err := store.ReadEntry(context.Background(), res.Path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", entry.Category)
	assert.Equal(t, domain.DefaultTitle, entry.Title)
	assert.Equal(t, "text", entry.Content)
	assert.Equal(t, []string{"a", "b"}, entry.Tags)
	assert.Equal(t, "https://example.com", entry.URL)
	assert.Equal(t, domain.Fingerprint("gemini", domain.DefaultTitle, "https://example.com", "text"), res.Fingerprint)
}

func TestKnowledgeService_AddRequiresCategory(t *testing.T) {
	svc := NewKnowledgeService(memory.NewEntryStore())

	_, err := svc.Add(context.Background(), driving.AddRequest{Category: " ", Content: "x"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKnowledgeService_AddWriteFailure(t *testing.T) {
	store := memory.NewEntryStore()
	store.WriteErr = domain.NewIOError("gpt", os.ErrPermission)
	svc := NewKnowledgeService(store)

	_, err := svc.Add(context.Background(), driving.AddRequest{Category: "gpt", Content: "x"})

	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestKnowledgeService_Search(t *testing.T) {
	store := memory.NewEntryStore()
	store.Put(domain.Entry{Filename: "gpt/1.md", Category: "gpt", Title: "Go generics", Tags: []string{"Go"}, Fingerprint: "a"})
	store.Put(domain.Entry{Filename: "claude/2.md", Category: "claude", Title: "Rust traits", Tags: []string{"rust"}, Fingerprint: "b"})
	store.Put(domain.Entry{Filename: "gpt/3.md", Category: "gpt", Title: "Cooking", URL: "https://go.dev/blog", Fingerprint: "c"})
	_, err := store.Rebuild(context.Background())
	require.NoError(t, err)
	svc := NewKnowledgeService(store)

	tests := []struct {
		name  string
		query domain.SearchQuery
		want  []string
	}{
		{"empty query returns all", domain.SearchQuery{}, []string{"a", "b", "c"}},
		{"text matches title", domain.SearchQuery{Text: "GENERICS"}, []string{"a"}},
		{"text matches url", domain.SearchQuery{Text: "go.dev"}, []string{"c"}},
		{"text matches filename", domain.SearchQuery{Text: "claude/"}, []string{"b"}},
		{"category", domain.SearchQuery{Category: "GPT"}, []string{"a", "c"}},
		{"tag ignores case", domain.SearchQuery{Tag: "go"}, []string{"a"}},
		{"all fields must match", domain.SearchQuery{Category: "claude", Tag: "go"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := svc.Search(context.Background(), tt.query)
			require.NoError(t, err)
			var got []string
			for _, r := range results {
				got = append(got, r.Fingerprint)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestKnowledgeService_Categories(t *testing.T) {
	store := memory.NewEntryStore()
	store.Put(domain.Entry{Filename: "gpt/1.md", Category: "gpt"})
	store.Put(domain.Entry{Filename: "bsm/2.md", Category: "bsm"})
	svc := NewKnowledgeService(store)

	categories, err := svc.Categories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"bsm", "gpt"}, categories)
}
