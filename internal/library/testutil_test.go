package library

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/reel/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
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
	return db
}

// addTestLibrary inserts a film library rooted at /movies.
func addTestLibrary(t *testing.T, store *Store) *Library {
	t.Helper()
	l := &Library{Name: "Movies", MediaType: MediaTypeFilm, Locations: []string{"/movies"}}
	if err := store.AddLibrary(l); err != nil {
		t.Fatalf("AddLibrary: %v", err)
	}
	return l
}

// beginTx opens a write transaction that is rolled back on cleanup unless
// committed by the test.
func beginTx(t *testing.T, store *Store) *Tx {
	t.Helper()
	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}
