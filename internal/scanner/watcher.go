package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/library"
)

// renameWindow is how long a rename's old path is held waiting for the
// matching create. An old path still unclaimed after this is a removal.
const renameWindow = 2 * time.Second

type pendingRename struct {
	oldPath string
	at      time.Time
}

// Watcher keeps one library current by reacting to filesystem events on
// its roots. Event-source failures are logged and skipped; only context
// cancellation stops the watcher.
type Watcher struct {
	libraryID int64
	store     *library.Store
	scanner   *Scanner
	provider  catalog.Provider
	logger    *slog.Logger

	// The notify API reports a rename as an old-path event followed by a
	// create for the new path; pairing the two turns them back into a
	// move. An old path no create claims within the window is a removal.
	pending *pendingRename
}

// NewWatcher creates a watcher for one library.
func NewWatcher(libraryID int64, store *library.Store, sc *Scanner, provider catalog.Provider, logger *slog.Logger) *Watcher {
	return &Watcher{
		libraryID: libraryID,
		store:     store,
		scanner:   sc,
		provider:  provider,
		logger:    logger.With("component", "watcher", "library_id", libraryID),
	}
}

// Run watches the library's roots until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	lib, err := w.store.GetLibrary(w.libraryID)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range lib.Locations {
		w.addRecursive(fsw, root)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	w.logger.Info("watching", "roots", lib.Locations)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, lib, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("event source error", "error", err)
		case <-ticker.C:
			w.expireRenames(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, lib *library.Library, ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		w.handleCreate(ctx, fsw, ev.Name)
	case ev.Op.Has(fsnotify.Rename):
		w.handleRenameOld(ctx, ev.Name)
	case ev.Op.Has(fsnotify.Remove):
		w.handleRemove(ctx, ev.Name)
	}
}

func (w *Watcher) handleCreate(ctx context.Context, fsw *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.logger.Warn("created entry vanished", "path", path, "error", err)
		return
	}

	if info.IsDir() {
		w.addRecursive(fsw, path)
		if err := w.scanner.ScanPath(ctx, w.libraryID, path, w.provider); err != nil {
			w.logger.Warn("directory scan failed", "path", path, "error", err)
		}
		return
	}
	if !supportedFile(path) {
		return
	}

	// A create right after a rename event is the second half of a move;
	// keep the row and only update its path.
	if w.pending != nil && time.Since(w.pending.at) < renameWindow {
		oldPath := w.pending.oldPath
		w.pending = nil
		if err := w.movePath(ctx, oldPath, path); err != nil {
			w.logger.Warn("path update failed", "old", oldPath, "new", path, "error", err)
		}
		return
	}

	if err := w.scanner.AddFile(ctx, w.libraryID, path, w.provider); err != nil {
		w.logger.Warn("staging created file failed", "path", path, "error", err)
	}
}

// handleRenameOld records the disappearing side of a rename. If no
// create claims it within the window it is treated as a removal.
func (w *Watcher) handleRenameOld(ctx context.Context, path string) {
	if !supportedFile(path) {
		return
	}
	w.expireRenames(ctx)
	w.pending = &pendingRename{oldPath: path, at: time.Now()}
}

func (w *Watcher) handleRemove(ctx context.Context, path string) {
	if !supportedFile(path) {
		return
	}
	if err := w.removePath(ctx, path); err != nil {
		w.logger.Warn("removing deleted file failed", "path", path, "error", err)
	}
}

// expireRenames turns an unclaimed rename into a removal once its
// window has passed.
func (w *Watcher) expireRenames(ctx context.Context) {
	if w.pending == nil || time.Since(w.pending.at) < renameWindow {
		return
	}
	oldPath := w.pending.oldPath
	w.pending = nil
	if err := w.removePath(ctx, oldPath); err != nil {
		w.logger.Warn("removing renamed-away file failed", "path", oldPath, "error", err)
	}
}

// movePath rewrites a mediafile's path after a rename, leaving its
// match intact.
func (w *Watcher) movePath(ctx context.Context, oldPath, newPath string) error {
	row, err := w.store.GetMediaFileByPath(oldPath)
	if errors.Is(err, library.ErrNotFound) {
		// Never staged; treat the new path as a fresh file.
		return w.scanner.AddFile(ctx, w.libraryID, newPath, w.provider)
	}
	if err != nil {
		return err
	}

	tx, err := w.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.UpdateMediaFile(row.ID, library.MediaFileUpdate{Path: &newPath}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// removePath deletes a mediafile row and, when its media record has no
// other files, the record itself.
func (w *Watcher) removePath(ctx context.Context, path string) error {
	row, err := w.store.GetMediaFileByPath(path)
	if errors.Is(err, library.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	tx, err := w.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.DeleteMediaFile(row.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if row.MediaID != nil {
		if _, err := tx.DeleteMediaIfOrphan(*row.MediaID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// addRecursive registers watches for a directory tree. Watch failures
// are logged; a partially watched tree still produces events for the
// parts that registered.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("watch walk error", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("watch failed", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("watch walk failed", "root", root, "error", err)
	}
}
