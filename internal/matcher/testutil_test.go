package matcher

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/internal/migrations"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T) *library.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// With in-memory SQLite, multiple connections create separate databases.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return library.NewStore(db)
}

func addLibrary(t *testing.T, store *library.Store, mediaType library.MediaType) *library.Library {
	t.Helper()
	l := &library.Library{Name: "Test", MediaType: mediaType, Locations: []string{"/media"}}
	if err := store.AddLibrary(l); err != nil {
		t.Fatalf("AddLibrary: %v", err)
	}
	return l
}

func stageFile(t *testing.T, store *library.Store, libraryID int64, path, rawName string) *library.MediaFile {
	t.Helper()
	f := &library.MediaFile{LibraryID: libraryID, Path: path, RawName: rawName}
	if err := store.AddMediaFile(f); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}
	return f
}

func beginTx(t *testing.T, store *library.Store) *library.Tx {
	t.Helper()
	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func ptr[T any](v T) *T {
	return &v
}
