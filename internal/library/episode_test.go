package library

import (
	"errors"
	"testing"
)

func TestTx_EnsureEpisode_CreatesMedia(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib, show := addTestShow(t, store)

	tx := beginTx(t, store)
	season, err := tx.EnsureSeason(show.ID, 1, nil)
	if err != nil {
		t.Fatalf("EnsureSeason: %v", err)
	}
	ep, err := tx.EnsureEpisode(season.ID, 4, &Media{LibraryID: lib.ID, Name: "CQB"})
	if err != nil {
		t.Fatalf("EnsureEpisode: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	m, err := store.GetMedia(ep.MediaID)
	if err != nil {
		t.Fatalf("GetMedia: %v", err)
	}
	if m.Kind != KindEpisode {
		t.Errorf("Kind = %q, want %q", m.Kind, KindEpisode)
	}
	if m.Name != "CQB" {
		t.Errorf("Name = %q, want CQB", m.Name)
	}
}

func TestTx_EnsureEpisode_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib, show := addTestShow(t, store)

	tx := beginTx(t, store)
	season, err := tx.EnsureSeason(show.ID, 1, nil)
	if err != nil {
		t.Fatalf("EnsureSeason: %v", err)
	}
	first, err := tx.EnsureEpisode(season.ID, 1, &Media{LibraryID: lib.ID, Name: "Dulcinea"})
	if err != nil {
		t.Fatalf("EnsureEpisode: %v", err)
	}
	second, err := tx.EnsureEpisode(season.ID, 1, &Media{LibraryID: lib.ID, Name: "Dulcinea"})
	if err != nil {
		t.Fatalf("EnsureEpisode: %v", err)
	}
	if second.ID != first.ID || second.MediaID != first.MediaID {
		t.Errorf("second ensure got (%d, %d), want (%d, %d)",
			second.ID, second.MediaID, first.ID, first.MediaID)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	episodes, err := store.ListEpisodes(season.ID)
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Errorf("season has %d episodes, want 1", len(episodes))
	}
}

func TestStore_AddEpisode_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib, show := addTestShow(t, store)

	tx := beginTx(t, store)
	season, err := tx.EnsureSeason(show.ID, 1, nil)
	if err != nil {
		t.Fatalf("EnsureSeason: %v", err)
	}
	if _, err := tx.EnsureEpisode(season.ID, 1, &Media{LibraryID: lib.ID, Name: "Dulcinea"}); err != nil {
		t.Fatalf("EnsureEpisode: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	other := &Media{LibraryID: lib.ID, Name: "Dulcinea (again)", Kind: KindEpisode}
	if err := store.AddMedia(other); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	err = store.AddEpisode(&Episode{MediaID: other.ID, SeasonID: season.ID, Episode: 1})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddEpisode(duplicate) = %v, want ErrDuplicate", err)
	}
}
