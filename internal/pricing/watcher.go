package pricing

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the active pricing table and can be swapped atomically.
type Store struct {
	table atomic.Pointer[Table]
}

// NewStore returns a store initialised with t, or the built-in table when t is nil.
func NewStore(t *Table) *Store {
	if t == nil {
		t = Default()
	}
	s := &Store{}
	s.table.Store(t)
	return s
}

// Table returns the current table.
func (s *Store) Table() *Table {
	return s.table.Load()
}

// Replace swaps in a new table.
func (s *Store) Replace(t *Table) {
	s.table.Store(t)
}

// Watcher reloads a pricing file into a Store whenever it changes on disk.
// A file that fails to parse leaves the previous table in place.
type Watcher struct {
	Path   string
	Store  *Store
	Logger *zap.Logger
}

// Load reads Path once into the store.
func (w *Watcher) Load() error {
	t, err := LoadFile(w.Path)
	if err != nil {
		return err
	}
	w.Store.Replace(t)
	return nil
}

// Run watches the directory of Path until ctx is cancelled. The directory is
// watched rather than the file so that editors replacing the file by rename
// and ConfigMap symlink swaps are both picked up.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}
	target := filepath.Clean(w.Path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target && filepath.Base(event.Name) != "..data" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := w.Load(); err != nil {
				logger.Warn("failed to reload pricing table", zap.String("path", w.Path), zap.Error(err))
				continue
			}
			logger.Info("reloaded pricing table",
				zap.String("path", w.Path),
				zap.String("lastUpdated", w.Store.Table().LastUpdated))
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("pricing watcher error", zap.Error(err))
		}
	}
}
