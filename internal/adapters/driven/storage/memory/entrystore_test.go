package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestEntryStore_WriteIsInvisibleUntilRebuild(t *testing.T) {
	store := NewEntryStore()
	ctx := context.Background()

	e := &domain.Entry{Category: "gpt", Title: "T", Fingerprint: "fp-1", Content: "body"}
	name, err := store.Write(ctx, e, "")
	require.NoError(t, err)
	assert.Equal(t, "gpt/1.md", name)

	ok, err := store.Exists(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, ok)

	report, err := store.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)

	ok, err = store.Exists(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, ok)

	index, err := store.Index(ctx)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Empty(t, index[0].Content)

	read, err := store.ReadEntry(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "body", read.Content)
}

func TestEntryStore_RebuildOrdersNewestFirst(t *testing.T) {
	store := NewEntryStore()
	ctx := context.Background()
	now := time.Now()

	store.Put(domain.Entry{Filename: "gpt/a.md", Category: "gpt", Fingerprint: "a", CreatedAt: domain.NewTimestamp(now.Add(-time.Hour))})
	store.Put(domain.Entry{Filename: "claude/b.md", Category: "claude", Fingerprint: "b", CreatedAt: domain.NewTimestamp(now)})

	_, err := store.Rebuild(ctx)
	require.NoError(t, err)

	index, err := store.Index(ctx)
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, "b", index[0].Fingerprint)

	cats, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"claude", "gpt"}, cats)
}

func TestEntryStore_ReadMissing(t *testing.T) {
	_, err := NewEntryStore().ReadEntry(context.Background(), "gpt/none.md")
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestEntryStore_WriteErr(t *testing.T) {
	store := NewEntryStore()
	store.WriteErr = errors.New("disk full")

	_, err := store.Write(context.Background(), &domain.Entry{Category: "gpt", Fingerprint: "x"}, "")
	assert.EqualError(t, err, "disk full")
}

func TestEntryStore_Delete(t *testing.T) {
	store := NewEntryStore()
	ctx := context.Background()
	store.Put(domain.Entry{Filename: "gpt/a.md", Category: "gpt", Fingerprint: "a"})
	store.Delete("gpt/a.md")

	report, err := store.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
}
