package library

import (
	"fmt"
)

func addLibrary(q querier, l *Library) error {
	result, err := q.Exec(`
		INSERT INTO libraries (name, media_type, hidden)
		VALUES (?, ?, ?)`,
		l.Name, l.MediaType, l.Hidden,
	)
	if err != nil {
		return fmt.Errorf("insert library: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	l.ID = id
	for _, loc := range l.Locations {
		if _, err := q.Exec(
			"INSERT INTO library_locations (library_id, path) VALUES (?, ?)",
			id, loc,
		); err != nil {
			return fmt.Errorf("insert library location: %w", mapSQLiteError(err))
		}
	}
	return nil
}

// AddLibrary inserts a new library and its locations.
// Sets ID on the struct.
func (s *Store) AddLibrary(l *Library) error { return addLibrary(s.db, l) }

// AddLibrary inserts a new library within a transaction.
func (t *Tx) AddLibrary(l *Library) error { return addLibrary(t.tx, l) }

func getLibrary(q querier, id int64) (*Library, error) {
	l := &Library{}
	err := q.QueryRow(`
		SELECT id, name, media_type, hidden FROM libraries WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.MediaType, &l.Hidden)
	if err != nil {
		return nil, fmt.Errorf("get library %d: %w", id, mapSQLiteError(err))
	}
	rows, err := q.Query(
		"SELECT path FROM library_locations WHERE library_id = ? ORDER BY id", id,
	)
	if err != nil {
		return nil, fmt.Errorf("get library locations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan library location: %w", err)
		}
		l.Locations = append(l.Locations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate library locations: %w", err)
	}
	return l, nil
}

// GetLibrary retrieves a library with its locations.
// Returns ErrNotFound if the library does not exist.
func (s *Store) GetLibrary(id int64) (*Library, error) { return getLibrary(s.db, id) }

// GetLibrary retrieves a library within a transaction.
func (t *Tx) GetLibrary(id int64) (*Library, error) { return getLibrary(t.tx, id) }

func listLibraries(q querier) ([]*Library, error) {
	rows, err := q.Query("SELECT id, name, media_type, hidden FROM libraries WHERE hidden = 0 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Library
	for rows.Next() {
		l := &Library{}
		if err := rows.Scan(&l.ID, &l.Name, &l.MediaType, &l.Hidden); err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate libraries: %w", err)
	}
	for _, l := range results {
		full, err := getLibrary(q, l.ID)
		if err != nil {
			return nil, err
		}
		l.Locations = full.Locations
	}
	return results, nil
}

// ListLibraries returns all visible libraries with their locations.
func (s *Store) ListLibraries() ([]*Library, error) { return listLibraries(s.db) }

// ListLibraries returns all visible libraries within a transaction.
func (t *Tx) ListLibraries() ([]*Library, error) { return listLibraries(t.tx) }

func hideLibrary(q querier, id int64) error {
	result, err := q.Exec("UPDATE libraries SET hidden = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("hide library %d: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("hide library %d: %w", id, ErrNotFound)
	}
	return nil
}

// HideLibrary marks a library hidden so the media view stops exposing its
// rows while deletion is in progress.
func (s *Store) HideLibrary(id int64) error { return hideLibrary(s.db, id) }

// HideLibrary marks a library hidden within a transaction.
func (t *Tx) HideLibrary(id int64) error { return hideLibrary(t.tx, id) }

func deleteLibrary(q querier, id int64) error {
	// Seasons and episodes hang off _tblmedia rows; mediafiles and
	// locations cascade off the library row itself.
	if _, err := q.Exec("DELETE FROM _tblmedia WHERE library_id = ?", id); err != nil {
		return fmt.Errorf("delete library media %d: %w", id, mapSQLiteError(err))
	}
	if _, err := q.Exec("DELETE FROM libraries WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete library %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteLibrary removes a library and, through cascades, its mediafiles,
// media, seasons, and episodes. Callers hide the library first so readers
// never observe a half-deleted tree.
func (s *Store) DeleteLibrary(id int64) error { return deleteLibrary(s.db, id) }

// DeleteLibrary removes a library within a transaction.
func (t *Tx) DeleteLibrary(id int64) error { return deleteLibrary(t.tx, id) }
