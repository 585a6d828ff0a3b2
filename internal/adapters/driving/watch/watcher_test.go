package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type countingRebuilder struct {
	calls atomic.Int32
}

func (r *countingRebuilder) Rebuild(context.Context) (*domain.RebuildReport, error) {
	r.calls.Add(1)
	return &domain.RebuildReport{}, nil
}

func TestWatcher_Relevant(t *testing.T) {
	root := "/kb"
	w := New(root, &countingRebuilder{})

	tests := []struct {
		name  string
		path  string
		op    fsnotify.Op
		wants bool
	}{
		{"create record", "/kb/gpt/a.md", fsnotify.Create, true},
		{"write record", "/kb/gpt/a.md", fsnotify.Write, true},
		{"remove record", "/kb/gpt/a.md", fsnotify.Remove, true},
		{"rename record", "/kb/gpt/a.md", fsnotify.Rename, true},
		{"chmod ignored", "/kb/gpt/a.md", fsnotify.Chmod, false},
		{"index ignored", "/kb/index.json", fsnotify.Write, false},
		{"temp index ignored", "/kb/.index-123.tmp", fsnotify.Create, false},
		{"hidden file ignored", "/kb/gpt/.a.md", fsnotify.Create, false},
		{"attachment ignored", "/kb/_attachments/fp/notes.md", fsnotify.Create, false},
		{"other extension ignored", "/kb/gpt/a.txt", fsnotify.Create, false},
		{"upper-case extension", "/kb/claude/B.MD", fsnotify.Write, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.relevant(fsnotify.Event{Name: filepath.FromSlash(tt.path), Op: tt.op})
			assert.Equal(t, tt.wants, got)
		})
	}
}

func TestWatcher_RebuildsAfterWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "gpt"), 0755))

	rebuilder := &countingRebuilder{}
	rebuilt := make(chan struct{}, 10)
	w := New(root, rebuilder,
		WithDebounce(20*time.Millisecond),
		WithOnRebuild(func(*domain.RebuildReport, error) { rebuilt <- struct{}{} }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "gpt", "note.md"), []byte("x"), 0644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after writing a record")
	}
	assert.GreaterOrEqual(t, rebuilder.calls.Load(), int32(1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), &countingRebuilder{})

	err := w.Run(context.Background())

	assert.ErrorIs(t, err, domain.ErrIO)
}
