package library

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxWriters bounds the number of concurrently open write transactions so
// that scan batches and watcher updates do not pile up on the single
// sqlite writer lock.
const maxWriters = 12

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store provides access to library data.
type Store struct {
	db      *sql.DB
	writers *semaphore.Weighted
}

// NewStore creates a new library store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		writers: semaphore.NewWeighted(maxWriters),
	}
}

// Begin starts a write transaction. It blocks while maxWriters
// transactions are already open; the slot is released on Commit or
// Rollback.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if err := s.writers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.writers.Release(1)
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, release: func() { s.writers.Release(1) }}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx      *sql.Tx
	once    sync.Once
	release func()
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	defer t.once.Do(t.release)
	return t.tx.Commit()
}

// Rollback aborts the transaction. Safe to defer after Commit.
func (t *Tx) Rollback() error {
	defer t.once.Do(t.release)
	return t.tx.Rollback()
}
