package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/catalog/mocks"
	"github.com/vmunix/reel/internal/events"
	"github.com/vmunix/reel/internal/library"
)

func TestWatcher_CreateRenameRemove(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	root := t.TempDir()
	lib := addLibrary(t, store, library.MediaTypeFilm, root)

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindFilm, "Zodiac", ptr(2007)).
		Return([]*catalog.ExternalMedia{{ID: 1, Title: "Zodiac", Year: ptr(2007)}}, nil)

	bus := events.NewBus(discard())
	defer bus.Close()
	sc := newTestScanner(t, store, bus)
	w := NewWatcher(lib.ID, store, sc, provider, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give the watcher time to register its watches.
	time.Sleep(200 * time.Millisecond)

	// Create: the file is staged and matched.
	oldPath := filepath.Join(root, "Zodiac (2007).mkv")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))

	var mediaID int64
	require.Eventually(t, func() bool {
		row, err := store.GetMediaFileByPath(oldPath)
		if err != nil || row.MediaID == nil {
			return false
		}
		mediaID = *row.MediaID
		return true
	}, 5*time.Second, 50*time.Millisecond, "created file staged and linked")

	// Rename: the row keeps its identity and match, only the path moves.
	newPath := filepath.Join(root, "Zodiac (2007) [remastered].mkv")
	require.NoError(t, os.Rename(oldPath, newPath))

	require.Eventually(t, func() bool {
		row, err := store.GetMediaFileByPath(newPath)
		return err == nil && row.MediaID != nil && *row.MediaID == mediaID
	}, 5*time.Second, 50*time.Millisecond, "renamed file keeps its match")

	files, err := store.MediaFilesByLibrary(lib.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1, "rename does not duplicate the row")

	// Remove: the row goes, and the now-childless media record with it.
	require.NoError(t, os.Remove(newPath))

	require.Eventually(t, func() bool {
		_, err := store.GetMediaFileByPath(newPath)
		return errors.Is(err, library.ErrNotFound)
	}, 5*time.Second, 50*time.Millisecond, "removed file deleted")

	require.Eventually(t, func() bool {
		_, err := store.GetMedia(mediaID)
		return errors.Is(err, library.ErrNotFound)
	}, 5*time.Second, 50*time.Millisecond, "orphaned media deleted")
}

func TestWatcher_CreateDirectoryTriggersScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	root := t.TempDir()
	lib := addLibrary(t, store, library.MediaTypeFilm, root)

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindFilm, "Moon", ptr(2009)).
		Return([]*catalog.ExternalMedia{{ID: 2, Title: "Moon", Year: ptr(2009)}}, nil)

	bus := events.NewBus(discard())
	defer bus.Close()
	sc := newTestScanner(t, store, bus)
	w := NewWatcher(lib.ID, store, sc, provider, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(200 * time.Millisecond)

	// Populate a directory outside the tree, then move it in; the
	// watcher sees one directory create and scans the subtree.
	staging := filepath.Join(t.TempDir(), "Moon (2009)")
	require.NoError(t, os.MkdirAll(staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "Moon (2009).mkv"), []byte("x"), 0o644))
	require.NoError(t, os.Rename(staging, filepath.Join(root, "Moon (2009)")))

	require.Eventually(t, func() bool {
		row, err := store.GetMediaFileByPath(filepath.Join(root, "Moon (2009)", "Moon (2009).mkv"))
		return err == nil && row.MediaID != nil
	}, 5*time.Second, 50*time.Millisecond, "file in created directory staged and matched")
}
