package library

import (
	"errors"
	"testing"
	"time"
)

func testMediaFile(libraryID int64, path string) *MediaFile {
	return &MediaFile{
		LibraryID:  libraryID,
		Path:       path,
		RawName:    "Blade Runner 2049",
		RawYear:    ptr(2017),
		Container:  ptr("matroska"),
		VideoCodec: ptr("h264"),
		Duration:   ptr(9720),
		Channels:   ptr(2),
	}
}

func TestStore_AddMediaFile(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	f := testMediaFile(lib.ID, "/movies/Blade Runner 2049 (2017).mkv")

	before := time.Now()
	if err := store.AddMediaFile(f); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}
	after := time.Now()

	if f.ID == 0 {
		t.Error("ID should be set after AddMediaFile")
	}
	if f.AddedAt.Before(before) || f.AddedAt.After(after) {
		t.Errorf("AddedAt %v not in expected range [%v, %v]", f.AddedAt, before, after)
	}
}

func TestStore_AddMediaFile_DuplicatePath(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	f := testMediaFile(lib.ID, "/movies/dupe.mkv")
	if err := store.AddMediaFile(f); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}

	again := testMediaFile(lib.ID, "/movies/dupe.mkv")
	err := store.AddMediaFile(again)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddMediaFile(duplicate) = %v, want ErrDuplicate", err)
	}
}

func TestTx_AddMediaFiles_SkipsExisting(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	if err := store.AddMediaFile(testMediaFile(lib.ID, "/movies/a.mkv")); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}

	tx := beginTx(t, store)
	inserted, err := tx.AddMediaFiles([]*MediaFile{
		testMediaFile(lib.ID, "/movies/a.mkv"),
		testMediaFile(lib.ID, "/movies/b.mkv"),
		testMediaFile(lib.ID, "/movies/c.mkv"),
	})
	if err != nil {
		t.Fatalf("AddMediaFiles: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(inserted) != 2 {
		t.Fatalf("inserted %d rows, want 2", len(inserted))
	}
	for _, f := range inserted {
		if f.ID == 0 {
			t.Errorf("inserted file %q has zero ID", f.Path)
		}
	}

	files, err := store.MediaFilesByLibrary(lib.ID)
	if err != nil {
		t.Fatalf("MediaFilesByLibrary: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("library has %d files, want 3", len(files))
	}
}

func TestTx_AddMediaFiles_DuplicateWithinBatch(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	// Two entries race for the same path inside one batch; the loser of
	// the UNIQUE constraint is skipped and the rest of the batch lands.
	tx := beginTx(t, store)
	inserted, err := tx.AddMediaFiles([]*MediaFile{
		testMediaFile(lib.ID, "/movies/d.mkv"),
		testMediaFile(lib.ID, "/movies/d.mkv"),
		testMediaFile(lib.ID, "/movies/e.mkv"),
	})
	if err != nil {
		t.Fatalf("AddMediaFiles: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(inserted) != 2 {
		t.Fatalf("inserted %d rows, want 2", len(inserted))
	}

	files, err := store.MediaFilesByLibrary(lib.ID)
	if err != nil {
		t.Fatalf("MediaFilesByLibrary: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("library has %d files, want 2", len(files))
	}
}

func TestStore_MediaFileExists(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	if err := store.AddMediaFile(testMediaFile(lib.ID, "/movies/x.mkv")); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}

	exists, err := store.MediaFileExists("/movies/x.mkv")
	if err != nil {
		t.Fatalf("MediaFileExists: %v", err)
	}
	if !exists {
		t.Error("expected path to exist")
	}

	exists, err = store.MediaFileExists("/movies/missing.mkv")
	if err != nil {
		t.Fatalf("MediaFileExists: %v", err)
	}
	if exists {
		t.Error("expected missing path to not exist")
	}
}

func TestStore_UpdateMediaFile_Partial(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	f := testMediaFile(lib.ID, "/movies/old.mkv")
	if err := store.AddMediaFile(f); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}

	newPath := "/movies/renamed/new.mkv"
	if err := store.UpdateMediaFile(f.ID, MediaFileUpdate{Path: &newPath}); err != nil {
		t.Fatalf("UpdateMediaFile: %v", err)
	}

	got, err := store.GetMediaFile(f.ID)
	if err != nil {
		t.Fatalf("GetMediaFile: %v", err)
	}
	if got.Path != newPath {
		t.Errorf("Path = %q, want %q", got.Path, newPath)
	}
	// Untouched columns survive a partial update.
	if got.RawName != f.RawName {
		t.Errorf("RawName = %q, want %q", got.RawName, f.RawName)
	}
	if got.Container == nil || *got.Container != "matroska" {
		t.Errorf("Container = %v, want matroska", got.Container)
	}
}

func TestStore_UpdateMediaFile_LinkMedia(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)

	m := &Media{LibraryID: lib.ID, Name: "Blade Runner 2049", Kind: KindFilm}
	if err := store.AddMedia(m); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	f := testMediaFile(lib.ID, "/movies/br.mkv")
	if err := store.AddMediaFile(f); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}

	mediaID := &m.ID
	if err := store.UpdateMediaFile(f.ID, MediaFileUpdate{MediaID: &mediaID}); err != nil {
		t.Fatalf("UpdateMediaFile: %v", err)
	}

	got, err := store.GetMediaFile(f.ID)
	if err != nil {
		t.Fatalf("GetMediaFile: %v", err)
	}
	if got.MediaID == nil || *got.MediaID != m.ID {
		t.Errorf("MediaID = %v, want %d", got.MediaID, m.ID)
	}

	linked, err := store.MediaFilesOfMedia(m.ID)
	if err != nil {
		t.Fatalf("MediaFilesOfMedia: %v", err)
	}
	if len(linked) != 1 || linked[0].ID != f.ID {
		t.Errorf("MediaFilesOfMedia = %v, want one row %d", linked, f.ID)
	}
}

func TestStore_UpdateMediaFile_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	p := "/nowhere.mkv"
	err := store.UpdateMediaFile(9999, MediaFileUpdate{Path: &p})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateMediaFile(missing) = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteMediaFilesByLibrary(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := addTestLibrary(t, store)
	other := &Library{Name: "More", MediaType: MediaTypeFilm, Locations: []string{"/more"}}
	if err := store.AddLibrary(other); err != nil {
		t.Fatalf("AddLibrary: %v", err)
	}

	if err := store.AddMediaFile(testMediaFile(lib.ID, "/movies/one.mkv")); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}
	if err := store.AddMediaFile(testMediaFile(other.ID, "/more/two.mkv")); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}

	if err := store.DeleteMediaFilesByLibrary(lib.ID); err != nil {
		t.Fatalf("DeleteMediaFilesByLibrary: %v", err)
	}

	files, err := store.MediaFilesByLibrary(lib.ID)
	if err != nil {
		t.Fatalf("MediaFilesByLibrary: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("library still has %d files", len(files))
	}
	kept, err := store.MediaFilesByLibrary(other.ID)
	if err != nil {
		t.Fatalf("MediaFilesByLibrary: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("other library has %d files, want 1", len(kept))
	}
}

func TestStore_MediaFilesOfShow(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := &Library{Name: "TV", MediaType: MediaTypeShow, Locations: []string{"/tv"}}
	if err := store.AddLibrary(lib); err != nil {
		t.Fatalf("AddLibrary: %v", err)
	}

	tx := beginTx(t, store)
	show := &Media{LibraryID: lib.ID, Name: "The Expanse", Kind: KindShow}
	if err := tx.AddMedia(show); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	season, err := tx.EnsureSeason(show.ID, 1, nil)
	if err != nil {
		t.Fatalf("EnsureSeason: %v", err)
	}
	ep, err := tx.EnsureEpisode(season.ID, 1, &Media{LibraryID: lib.ID, Name: "Dulcinea"})
	if err != nil {
		t.Fatalf("EnsureEpisode: %v", err)
	}
	f := testMediaFile(lib.ID, "/tv/TheExpanse.S01E01.mkv")
	f.MediaID = &ep.MediaID
	if err := tx.AddMediaFile(f); err != nil {
		t.Fatalf("AddMediaFile: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	files, err := store.MediaFilesOfShow(show.ID)
	if err != nil {
		t.Fatalf("MediaFilesOfShow: %v", err)
	}
	if len(files) != 1 || files[0].ID != f.ID {
		t.Errorf("MediaFilesOfShow = %v, want one row %d", files, f.ID)
	}
}
