package library

import (
	"errors"
	"fmt"
	"time"
)

const mediaColumns = "id, library_id, name, description, rating, year, added_at, poster_path, backdrop_path, kind"

func scanMedia(row interface{ Scan(...any) error }) (*Media, error) {
	m := &Media{}
	err := row.Scan(
		&m.ID, &m.LibraryID, &m.Name, &m.Description, &m.Rating, &m.Year,
		&m.AddedAt, &m.PosterPath, &m.BackdropPath, &m.Kind,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func addMedia(q querier, m *Media) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO _tblmedia (library_id, name, description, rating, year, added_at, poster_path, backdrop_path, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.LibraryID, m.Name, m.Description, m.Rating, m.Year, now, m.PosterPath, m.BackdropPath, m.Kind,
	)
	if err != nil {
		return fmt.Errorf("insert media: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	m.ID = id
	m.AddedAt = now
	return nil
}

// AddMedia inserts a new media record.
// Sets ID and AddedAt on the struct.
func (s *Store) AddMedia(m *Media) error { return addMedia(s.db, m) }

// AddMedia inserts a new media record within a transaction.
func (t *Tx) AddMedia(m *Media) error { return addMedia(t.tx, m) }

// UpsertMedia inserts the record unless a media row with the same name
// already exists in the library, in which case the existing row's ID is
// reused and written back to the struct. Matchers key films and shows by
// (library, name); two files parsing to the same title share one media
// row.
func (t *Tx) UpsertMedia(m *Media) error { return upsertMedia(t.tx, m) }

func upsertMedia(q querier, m *Media) error {
	existing, err := getMediaByName(q, m.LibraryID, m.Name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		m.ID = existing.ID
		m.AddedAt = existing.AddedAt
		return nil
	}
	return addMedia(q, m)
}

func getMedia(q querier, id int64) (*Media, error) {
	m, err := scanMedia(q.QueryRow("SELECT "+mediaColumns+" FROM media WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get media %d: %w", id, mapSQLiteError(err))
	}
	return m, nil
}

// GetMedia retrieves a media record through the live view; rows of hidden
// libraries are invisible. Returns ErrNotFound if the record does not exist.
func (s *Store) GetMedia(id int64) (*Media, error) { return getMedia(s.db, id) }

// GetMedia retrieves a media record within a transaction.
func (t *Tx) GetMedia(id int64) (*Media, error) { return getMedia(t.tx, id) }

func getMediaByName(q querier, libraryID int64, name string) (*Media, error) {
	m, err := scanMedia(q.QueryRow(
		"SELECT "+mediaColumns+" FROM media WHERE library_id = ? AND name = ?", libraryID, name,
	))
	if err != nil {
		return nil, fmt.Errorf("get media %q: %w", name, mapSQLiteError(err))
	}
	return m, nil
}

// GetMediaByName retrieves a media record by library and name.
func (s *Store) GetMediaByName(libraryID int64, name string) (*Media, error) {
	return getMediaByName(s.db, libraryID, name)
}

// GetMediaByName retrieves a media record by name within a transaction.
func (t *Tx) GetMediaByName(libraryID int64, name string) (*Media, error) {
	return getMediaByName(t.tx, libraryID, name)
}

func listMediaByLibrary(q querier, libraryID int64) ([]*Media, error) {
	rows, err := q.Query("SELECT "+mediaColumns+" FROM media WHERE library_id = ? ORDER BY id", libraryID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return results, nil
}

// ListMediaByLibrary returns all visible media records of a library.
func (s *Store) ListMediaByLibrary(libraryID int64) ([]*Media, error) {
	return listMediaByLibrary(s.db, libraryID)
}

// ListMediaByLibrary returns a library's media within a transaction.
func (t *Tx) ListMediaByLibrary(libraryID int64) ([]*Media, error) {
	return listMediaByLibrary(t.tx, libraryID)
}

func deleteMedia(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM _tblmedia WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete media %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteMedia removes a media record by ID. Seasons and episodes hanging
// off the record are removed by cascade.
// This operation is idempotent - no error is returned if the record does not exist.
func (s *Store) DeleteMedia(id int64) error { return deleteMedia(s.db, id) }

// DeleteMedia removes a media record within a transaction.
func (t *Tx) DeleteMedia(id int64) error { return deleteMedia(t.tx, id) }

// DeleteMediaIfOrphan removes a media record when no mediafile references
// it any more, and sweeps upward: an episode's empty season is removed,
// and a show with no remaining seasons goes with it. Reports whether the
// record was deleted.
func (t *Tx) DeleteMediaIfOrphan(id int64) (bool, error) {
	var refs int
	if err := t.tx.QueryRow("SELECT COUNT(*) FROM mediafiles WHERE media_id = ?", id).Scan(&refs); err != nil {
		return false, fmt.Errorf("count media refs: %w", err)
	}
	if refs > 0 {
		return false, nil
	}

	// An episode-kind record drags its episode row along; remember the
	// season so empties can be swept.
	var seasonID *int64
	err := t.tx.QueryRow("SELECT season_id FROM episodes WHERE media_id = ?", id).Scan(&seasonID)
	if err != nil && mapSQLiteError(err) != ErrNotFound {
		return false, fmt.Errorf("find episode of media %d: %w", id, err)
	}

	if err := deleteMedia(t.tx, id); err != nil {
		return false, err
	}

	if seasonID != nil {
		if err := t.sweepSeason(*seasonID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// sweepSeason deletes a season that has no episodes left, and the owning
// show when it has no seasons left.
func (t *Tx) sweepSeason(seasonID int64) error {
	var episodes int
	if err := t.tx.QueryRow("SELECT COUNT(*) FROM episodes WHERE season_id = ?", seasonID).Scan(&episodes); err != nil {
		return fmt.Errorf("count season episodes: %w", err)
	}
	if episodes > 0 {
		return nil
	}

	var showID int64
	if err := t.tx.QueryRow("SELECT media_id FROM seasons WHERE id = ?", seasonID).Scan(&showID); err != nil {
		if mapSQLiteError(err) == ErrNotFound {
			return nil
		}
		return fmt.Errorf("get season show: %w", err)
	}
	if err := deleteSeason(t.tx, seasonID); err != nil {
		return err
	}

	var seasons int
	if err := t.tx.QueryRow("SELECT COUNT(*) FROM seasons WHERE media_id = ?", showID).Scan(&seasons); err != nil {
		return fmt.Errorf("count show seasons: %w", err)
	}
	if seasons == 0 {
		return deleteMedia(t.tx, showID)
	}
	return nil
}
