package library

import (
	"errors"
	"fmt"
	"time"
)

const mediaFileColumns = `id, library_id, media_id, path, raw_name, raw_year, season, episode,
	container, video_codec, video_profile, audio_codec, audio_language,
	resolution, duration, channels, corrupt, added_at`

func scanMediaFile(row interface{ Scan(...any) error }) (*MediaFile, error) {
	f := &MediaFile{}
	err := row.Scan(
		&f.ID, &f.LibraryID, &f.MediaID, &f.Path, &f.RawName, &f.RawYear, &f.Season, &f.Episode,
		&f.Container, &f.VideoCodec, &f.VideoProfile, &f.AudioCodec, &f.AudioLanguage,
		&f.Resolution, &f.Duration, &f.Channels, &f.Corrupt, &f.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func mediaFileExists(q querier, path string) (bool, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM mediafiles WHERE path = ?", path).Scan(&n); err != nil {
		return false, fmt.Errorf("mediafile exists: %w", err)
	}
	return n > 0, nil
}

// MediaFileExists reports whether a mediafile row exists for the path.
func (s *Store) MediaFileExists(path string) (bool, error) { return mediaFileExists(s.db, path) }

// MediaFileExists reports path existence within a transaction.
func (t *Tx) MediaFileExists(path string) (bool, error) { return mediaFileExists(t.tx, path) }

func addMediaFile(q querier, f *MediaFile) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO mediafiles (library_id, media_id, path, raw_name, raw_year, season, episode,
			container, video_codec, video_profile, audio_codec, audio_language,
			resolution, duration, channels, corrupt, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.LibraryID, f.MediaID, f.Path, f.RawName, f.RawYear, f.Season, f.Episode,
		f.Container, f.VideoCodec, f.VideoProfile, f.AudioCodec, f.AudioLanguage,
		f.Resolution, f.Duration, f.Channels, f.Corrupt, now,
	)
	if err != nil {
		return fmt.Errorf("insert mediafile: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	f.ID = id
	f.AddedAt = now
	return nil
}

// AddMediaFile inserts a new mediafile.
// Sets ID and AddedAt on the struct. Returns ErrDuplicate if the path is
// already staged.
func (s *Store) AddMediaFile(f *MediaFile) error { return addMediaFile(s.db, f) }

// AddMediaFile inserts a new mediafile within a transaction.
func (t *Tx) AddMediaFile(f *MediaFile) error { return addMediaFile(t.tx, f) }

// AddMediaFiles inserts a batch of mediafiles, skipping records whose path
// is already staged. The duplicate check rides on the path UNIQUE
// constraint, so a concurrent writer staging the same path between walk
// and insert is a skip, not a failure. Returns the files actually
// persisted, with IDs set. Callers run this inside one transaction so a
// scan batch is atomic.
func (t *Tx) AddMediaFiles(files []*MediaFile) ([]*MediaFile, error) {
	inserted := make([]*MediaFile, 0, len(files))
	for _, f := range files {
		if err := addMediaFile(t.tx, f); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return nil, err
		}
		inserted = append(inserted, f)
	}
	return inserted, nil
}

// MediaFileUpdate carries partial updates; nil fields leave the column
// unchanged. MediaID and linked fields use a double pointer so the link
// can be cleared explicitly.
type MediaFileUpdate struct {
	MediaID       **int64
	Path          *string
	Season        *int
	Episode       *int
	Container     *string
	VideoCodec    *string
	VideoProfile  *string
	AudioCodec    *string
	AudioLanguage *string
	Resolution    *string
	Duration      *int
	Channels      *int
	Corrupt       *bool
}

func updateMediaFile(q querier, id int64, u MediaFileUpdate) error {
	var sets []string
	var args []any

	if u.MediaID != nil {
		sets = append(sets, "media_id = ?")
		args = append(args, *u.MediaID)
	}
	if u.Path != nil {
		sets = append(sets, "path = ?")
		args = append(args, *u.Path)
	}
	if u.Season != nil {
		sets = append(sets, "season = ?")
		args = append(args, *u.Season)
	}
	if u.Episode != nil {
		sets = append(sets, "episode = ?")
		args = append(args, *u.Episode)
	}
	if u.Container != nil {
		sets = append(sets, "container = ?")
		args = append(args, *u.Container)
	}
	if u.VideoCodec != nil {
		sets = append(sets, "video_codec = ?")
		args = append(args, *u.VideoCodec)
	}
	if u.VideoProfile != nil {
		sets = append(sets, "video_profile = ?")
		args = append(args, *u.VideoProfile)
	}
	if u.AudioCodec != nil {
		sets = append(sets, "audio_codec = ?")
		args = append(args, *u.AudioCodec)
	}
	if u.AudioLanguage != nil {
		sets = append(sets, "audio_language = ?")
		args = append(args, *u.AudioLanguage)
	}
	if u.Resolution != nil {
		sets = append(sets, "resolution = ?")
		args = append(args, *u.Resolution)
	}
	if u.Duration != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *u.Duration)
	}
	if u.Channels != nil {
		sets = append(sets, "channels = ?")
		args = append(args, *u.Channels)
	}
	if u.Corrupt != nil {
		sets = append(sets, "corrupt = ?")
		args = append(args, *u.Corrupt)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE mediafiles SET " + joinSets(sets) + " WHERE id = ?"
	args = append(args, id)

	result, err := q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update mediafile %d: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update mediafile %d: %w", id, ErrNotFound)
	}
	return nil
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

// UpdateMediaFile applies a partial update to a mediafile.
// Returns ErrNotFound if the mediafile does not exist.
func (s *Store) UpdateMediaFile(id int64, u MediaFileUpdate) error {
	return updateMediaFile(s.db, id, u)
}

// UpdateMediaFile applies a partial update within a transaction.
func (t *Tx) UpdateMediaFile(id int64, u MediaFileUpdate) error {
	return updateMediaFile(t.tx, id, u)
}

func getMediaFile(q querier, id int64) (*MediaFile, error) {
	f, err := scanMediaFile(q.QueryRow(
		"SELECT "+mediaFileColumns+" FROM mediafiles WHERE id = ?", id,
	))
	if err != nil {
		return nil, fmt.Errorf("get mediafile %d: %w", id, mapSQLiteError(err))
	}
	return f, nil
}

// GetMediaFile retrieves a mediafile by ID.
// Returns ErrNotFound if the mediafile does not exist.
func (s *Store) GetMediaFile(id int64) (*MediaFile, error) { return getMediaFile(s.db, id) }

// GetMediaFile retrieves a mediafile within a transaction.
func (t *Tx) GetMediaFile(id int64) (*MediaFile, error) { return getMediaFile(t.tx, id) }

func getMediaFileByPath(q querier, path string) (*MediaFile, error) {
	f, err := scanMediaFile(q.QueryRow(
		"SELECT "+mediaFileColumns+" FROM mediafiles WHERE path = ?", path,
	))
	if err != nil {
		return nil, fmt.Errorf("get mediafile by path %q: %w", path, mapSQLiteError(err))
	}
	return f, nil
}

// GetMediaFileByPath retrieves a mediafile by its absolute path.
// Returns ErrNotFound if no row exists for the path.
func (s *Store) GetMediaFileByPath(path string) (*MediaFile, error) {
	return getMediaFileByPath(s.db, path)
}

// GetMediaFileByPath retrieves a mediafile by path within a transaction.
func (t *Tx) GetMediaFileByPath(path string) (*MediaFile, error) {
	return getMediaFileByPath(t.tx, path)
}

func listMediaFiles(q querier, where string, args ...any) ([]*MediaFile, error) {
	rows, err := q.Query("SELECT "+mediaFileColumns+" FROM mediafiles WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("list mediafiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*MediaFile
	for rows.Next() {
		f, err := scanMediaFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mediafile: %w", err)
		}
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mediafiles: %w", err)
	}
	return results, nil
}

// MediaFilesOfMedia returns all mediafiles linked to a media record.
func (s *Store) MediaFilesOfMedia(mediaID int64) ([]*MediaFile, error) {
	return listMediaFiles(s.db, "media_id = ?", mediaID)
}

// MediaFilesOfMedia returns linked mediafiles within a transaction.
func (t *Tx) MediaFilesOfMedia(mediaID int64) ([]*MediaFile, error) {
	return listMediaFiles(t.tx, "media_id = ?", mediaID)
}

// MediaFilesOfShow returns all mediafiles under a show's episodes.
func (s *Store) MediaFilesOfShow(showID int64) ([]*MediaFile, error) {
	return mediaFilesOfShow(s.db, showID)
}

// MediaFilesOfShow returns a show's mediafiles within a transaction.
func (t *Tx) MediaFilesOfShow(showID int64) ([]*MediaFile, error) {
	return mediaFilesOfShow(t.tx, showID)
}

func mediaFilesOfShow(q querier, showID int64) ([]*MediaFile, error) {
	return listMediaFiles(q, `media_id IN (
		SELECT e.media_id FROM episodes e
		JOIN seasons s ON s.id = e.season_id
		WHERE s.media_id = ?)`, showID)
}

// MediaFilesByLibrary returns all mediafiles staged for a library.
func (s *Store) MediaFilesByLibrary(libraryID int64) ([]*MediaFile, error) {
	return listMediaFiles(s.db, "library_id = ?", libraryID)
}

// MediaFilesByLibrary returns a library's mediafiles within a transaction.
func (t *Tx) MediaFilesByLibrary(libraryID int64) ([]*MediaFile, error) {
	return listMediaFiles(t.tx, "library_id = ?", libraryID)
}

func deleteMediaFile(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM mediafiles WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete mediafile %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteMediaFile removes a mediafile by ID.
// This operation is idempotent - no error is returned if the row does not exist.
func (s *Store) DeleteMediaFile(id int64) error { return deleteMediaFile(s.db, id) }

// DeleteMediaFile removes a mediafile within a transaction.
func (t *Tx) DeleteMediaFile(id int64) error { return deleteMediaFile(t.tx, id) }

func deleteMediaFilesByLibrary(q querier, libraryID int64) error {
	if _, err := q.Exec("DELETE FROM mediafiles WHERE library_id = ?", libraryID); err != nil {
		return fmt.Errorf("delete mediafiles of library %d: %w", libraryID, mapSQLiteError(err))
	}
	return nil
}

// DeleteMediaFilesByLibrary removes every mediafile staged for a library.
func (s *Store) DeleteMediaFilesByLibrary(libraryID int64) error {
	return deleteMediaFilesByLibrary(s.db, libraryID)
}

// DeleteMediaFilesByLibrary removes a library's mediafiles within a transaction.
func (t *Tx) DeleteMediaFilesByLibrary(libraryID int64) error {
	return deleteMediaFilesByLibrary(t.tx, libraryID)
}
