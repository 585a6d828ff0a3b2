// Package watch rebuilds the index when record files change on disk, so
// that edits made outside the CLI show up in search and dedup.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before rebuilding.
const DefaultDebounce = 500 * time.Millisecond

// attachmentsDir holds attachment copies, never records.
const attachmentsDir = "_attachments"

// Rebuilder regenerates the index.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*domain.RebuildReport, error)
}

// Watcher watches the store root and its category directories.
type Watcher struct {
	root      string
	rebuilder Rebuilder
	debounce  time.Duration
	onRebuild func(*domain.RebuildReport, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnRebuild registers a callback invoked after every rebuild.
func WithOnRebuild(fn func(*domain.RebuildReport, error)) Option {
	return func(w *Watcher) {
		w.onRebuild = fn
	}
}

// New creates a watcher for the store at root.
func New(root string, rebuilder Rebuilder, opts ...Option) *Watcher {
	w := &Watcher{
		root:      root,
		rebuilder: rebuilder,
		debounce:  DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return domain.NewIOError(w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return domain.NewIOError(w.root, err)
	}
	for _, e := range entries {
		if e.IsDir() && w.isCategoryDir(e.Name()) {
			if err := fsw.Add(filepath.Join(w.root, e.Name())); err != nil {
				logger.Warn("watch %s: %v", e.Name(), err)
			}
		}
	}
	logger.Info("Watching %s", w.root)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.addCategory(fsw, event) {
				timer.Reset(w.debounce)
				continue
			}
			if w.relevant(event) {
				logger.Debug("%s %s", event.Op, event.Name)
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			report, err := w.rebuilder.Rebuild(ctx)
			if err != nil {
				logger.Error("rebuild index: %v", err)
			} else {
				logger.Info("Rebuilt index: %d entries, %d skipped", report.Indexed, len(report.Skipped))
			}
			if w.onRebuild != nil {
				w.onRebuild(report, err)
			}
		}
	}
}

// addCategory starts watching a category directory created under the root.
func (w *Watcher) addCategory(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) || filepath.Dir(event.Name) != filepath.Clean(w.root) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() || !w.isCategoryDir(info.Name()) {
		return false
	}
	if err := fsw.Add(event.Name); err != nil {
		logger.Warn("watch %s: %v", event.Name, err)
		return false
	}
	return true
}

// relevant reports whether event touches a record file, i.e. a .md file
// directly inside a category directory.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || !w.isCategoryDir(parts[0]) {
		return false
	}
	name := parts[1]
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".md")
}

func (w *Watcher) isCategoryDir(name string) bool {
	return name != attachmentsDir && !strings.HasPrefix(name, ".")
}
