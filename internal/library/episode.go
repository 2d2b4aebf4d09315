package library

import (
	"errors"
	"fmt"
)

func addEpisode(q querier, e *Episode) error {
	result, err := q.Exec(`
		INSERT INTO episodes (media_id, season_id, episode)
		VALUES (?, ?, ?)`,
		e.MediaID, e.SeasonID, e.Episode,
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// AddEpisode inserts a new episode.
// Sets ID on the struct. Returns ErrDuplicate if the season already has
// the episode number.
func (s *Store) AddEpisode(e *Episode) error { return addEpisode(s.db, e) }

// AddEpisode inserts a new episode within a transaction.
func (t *Tx) AddEpisode(e *Episode) error { return addEpisode(t.tx, e) }

// EnsureEpisode returns the season's episode with the given number,
// creating both the episode row and its underlying media record when
// absent. The media argument supplies the episode record's fields on
// creation and must carry KindEpisode.
func (t *Tx) EnsureEpisode(seasonID int64, number int, media *Media) (*Episode, error) {
	existing, err := getEpisodeByNumber(t.tx, seasonID, number)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	media.Kind = KindEpisode
	if err := addMedia(t.tx, media); err != nil {
		return nil, err
	}
	episode := &Episode{MediaID: media.ID, SeasonID: seasonID, Episode: number}
	if err := addEpisode(t.tx, episode); err != nil {
		return nil, err
	}
	return episode, nil
}

func getEpisode(q querier, id int64) (*Episode, error) {
	e := &Episode{}
	err := q.QueryRow(`
		SELECT id, media_id, season_id, episode FROM episodes WHERE id = ?`, id,
	).Scan(&e.ID, &e.MediaID, &e.SeasonID, &e.Episode)
	if err != nil {
		return nil, fmt.Errorf("get episode %d: %w", id, mapSQLiteError(err))
	}
	return e, nil
}

// GetEpisode retrieves an episode by ID.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) GetEpisode(id int64) (*Episode, error) { return getEpisode(s.db, id) }

// GetEpisode retrieves an episode within a transaction.
func (t *Tx) GetEpisode(id int64) (*Episode, error) { return getEpisode(t.tx, id) }

func getEpisodeByNumber(q querier, seasonID int64, number int) (*Episode, error) {
	e := &Episode{}
	err := q.QueryRow(`
		SELECT id, media_id, season_id, episode
		FROM episodes WHERE season_id = ? AND episode = ?`, seasonID, number,
	).Scan(&e.ID, &e.MediaID, &e.SeasonID, &e.Episode)
	if err != nil {
		return nil, fmt.Errorf("get episode %d of season %d: %w", number, seasonID, mapSQLiteError(err))
	}
	return e, nil
}

// GetEpisodeByNumber retrieves a season's episode by its number.
func (s *Store) GetEpisodeByNumber(seasonID int64, number int) (*Episode, error) {
	return getEpisodeByNumber(s.db, seasonID, number)
}

// GetEpisodeByNumber retrieves an episode by number within a transaction.
func (t *Tx) GetEpisodeByNumber(seasonID int64, number int) (*Episode, error) {
	return getEpisodeByNumber(t.tx, seasonID, number)
}

func listEpisodes(q querier, seasonID int64) ([]*Episode, error) {
	rows, err := q.Query(`
		SELECT id, media_id, season_id, episode
		FROM episodes WHERE season_id = ? ORDER BY episode`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Episode
	for rows.Next() {
		e := &Episode{}
		if err := rows.Scan(&e.ID, &e.MediaID, &e.SeasonID, &e.Episode); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return results, nil
}

// ListEpisodes returns a season's episodes ordered by episode number.
func (s *Store) ListEpisodes(seasonID int64) ([]*Episode, error) { return listEpisodes(s.db, seasonID) }

// ListEpisodes returns a season's episodes within a transaction.
func (t *Tx) ListEpisodes(seasonID int64) ([]*Episode, error) { return listEpisodes(t.tx, seasonID) }

func deleteEpisode(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM episodes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete episode %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteEpisode removes an episode by ID. The underlying media record is
// left for DeleteMediaIfOrphan.
// This operation is idempotent - no error is returned if the episode does not exist.
func (s *Store) DeleteEpisode(id int64) error { return deleteEpisode(s.db, id) }

// DeleteEpisode removes an episode within a transaction.
func (t *Tx) DeleteEpisode(id int64) error { return deleteEpisode(t.tx, id) }
