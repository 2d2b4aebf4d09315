package library

import (
	"errors"
	"fmt"
	"time"
)

func addSeason(q querier, s *Season) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO seasons (media_id, season_number, added_at, poster_path)
		VALUES (?, ?, ?, ?)`,
		s.MediaID, s.SeasonNumber, now, s.PosterPath,
	)
	if err != nil {
		return fmt.Errorf("insert season: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	s.ID = id
	s.AddedAt = now
	return nil
}

// AddSeason inserts a new season.
// Sets ID and AddedAt on the struct. Returns ErrDuplicate if the show
// already has the season number.
func (s *Store) AddSeason(season *Season) error { return addSeason(s.db, season) }

// AddSeason inserts a new season within a transaction.
func (t *Tx) AddSeason(season *Season) error { return addSeason(t.tx, season) }

// EnsureSeason returns the show's season with the given number, creating
// it when absent.
func (t *Tx) EnsureSeason(showID int64, number int, posterPath *string) (*Season, error) {
	existing, err := getSeasonByNumber(t.tx, showID, number)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	season := &Season{MediaID: showID, SeasonNumber: number, PosterPath: posterPath}
	if err := addSeason(t.tx, season); err != nil {
		return nil, err
	}
	return season, nil
}

func getSeason(q querier, id int64) (*Season, error) {
	s := &Season{}
	err := q.QueryRow(`
		SELECT id, media_id, season_number, added_at, poster_path
		FROM seasons WHERE id = ?`, id,
	).Scan(&s.ID, &s.MediaID, &s.SeasonNumber, &s.AddedAt, &s.PosterPath)
	if err != nil {
		return nil, fmt.Errorf("get season %d: %w", id, mapSQLiteError(err))
	}
	return s, nil
}

// GetSeason retrieves a season by ID.
// Returns ErrNotFound if the season does not exist.
func (s *Store) GetSeason(id int64) (*Season, error) { return getSeason(s.db, id) }

// GetSeason retrieves a season within a transaction.
func (t *Tx) GetSeason(id int64) (*Season, error) { return getSeason(t.tx, id) }

func getSeasonByNumber(q querier, showID int64, number int) (*Season, error) {
	s := &Season{}
	err := q.QueryRow(`
		SELECT id, media_id, season_number, added_at, poster_path
		FROM seasons WHERE media_id = ? AND season_number = ?`, showID, number,
	).Scan(&s.ID, &s.MediaID, &s.SeasonNumber, &s.AddedAt, &s.PosterPath)
	if err != nil {
		return nil, fmt.Errorf("get season %d of show %d: %w", number, showID, mapSQLiteError(err))
	}
	return s, nil
}

// GetSeasonByNumber retrieves a show's season by its number.
func (s *Store) GetSeasonByNumber(showID int64, number int) (*Season, error) {
	return getSeasonByNumber(s.db, showID, number)
}

// GetSeasonByNumber retrieves a season by number within a transaction.
func (t *Tx) GetSeasonByNumber(showID int64, number int) (*Season, error) {
	return getSeasonByNumber(t.tx, showID, number)
}

func listSeasons(q querier, showID int64) ([]*Season, error) {
	rows, err := q.Query(`
		SELECT id, media_id, season_number, added_at, poster_path
		FROM seasons WHERE media_id = ? ORDER BY season_number`, showID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Season
	for rows.Next() {
		s := &Season{}
		if err := rows.Scan(&s.ID, &s.MediaID, &s.SeasonNumber, &s.AddedAt, &s.PosterPath); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return results, nil
}

// ListSeasons returns a show's seasons ordered by season number.
func (s *Store) ListSeasons(showID int64) ([]*Season, error) { return listSeasons(s.db, showID) }

// ListSeasons returns a show's seasons within a transaction.
func (t *Tx) ListSeasons(showID int64) ([]*Season, error) { return listSeasons(t.tx, showID) }

func deleteSeason(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM seasons WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete season %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteSeason removes a season by ID; its episodes cascade.
// This operation is idempotent - no error is returned if the season does not exist.
func (s *Store) DeleteSeason(id int64) error { return deleteSeason(s.db, id) }

// DeleteSeason removes a season within a transaction.
func (t *Tx) DeleteSeason(id int64) error { return deleteSeason(t.tx, id) }
