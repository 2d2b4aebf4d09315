package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/catalog/mocks"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/pkg/filename"
)

func TestShowMatcher_BatchMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	lib := addLibrary(t, store, library.MediaTypeShow)
	file := stageFile(t, store, lib.ID, "/media/The.Expanse.S01E02.mkv", "The Expanse")
	file.Season, file.Episode = ptr(1), ptr(2)

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindShow, "The Expanse", gomock.Nil()).
		Return([]*catalog.ExternalMedia{{ID: 100, Title: "The Expanse", Year: ptr(2015), PosterPath: ptr("/show.jpg")}}, nil)
	provider.EXPECT().
		Seasons(gomock.Any(), int64(100)).
		Return([]*catalog.ExternalSeason{
			{SeasonNumber: 1, PosterPath: ptr("/s1.jpg")},
			{SeasonNumber: 2, PosterPath: ptr("/s2.jpg")},
		}, nil)
	provider.EXPECT().
		Episodes(gomock.Any(), int64(100), 1).
		Return([]*catalog.ExternalEpisode{
			{Episode: 1, Name: ptr("Dulcinea")},
			{Episode: 2, Name: ptr("The Big Empty"), Description: ptr("Adrift.")},
		}, nil)

	unit := &WorkUnit{File: file, Candidates: []filename.Candidate{
		{Title: "The Expanse", Season: ptr(1), Episode: ptr(2)},
	}}

	m := NewShowMatcher(nil, discard())
	tx := beginTx(t, store)
	require.NoError(t, m.BatchMatch(context.Background(), tx, provider, []*WorkUnit{unit}))
	require.NoError(t, tx.Commit())

	show, err := store.GetMediaByName(lib.ID, "The Expanse")
	require.NoError(t, err)
	assert.Equal(t, library.KindShow, show.Kind)

	season, err := store.GetSeasonByNumber(show.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "/s1.jpg", *season.PosterPath)

	episode, err := store.GetEpisodeByNumber(season.ID, 2)
	require.NoError(t, err)
	epMedia, err := store.GetMedia(episode.MediaID)
	require.NoError(t, err)
	assert.Equal(t, "The Big Empty", epMedia.Name)
	assert.Equal(t, "Adrift.", *epMedia.Description)
	assert.Equal(t, library.KindEpisode, epMedia.Kind)

	got, err := store.GetMediaFile(file.ID)
	require.NoError(t, err)
	assert.Equal(t, episode.MediaID, *got.MediaID)
}

func TestShowMatcher_AnimeFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	lib := addLibrary(t, store, library.MediaTypeShow)
	file := stageFile(t, store, lib.ID, "/media/[Group] Chainsaw Man - 05.mkv", "Group Chainsaw Man 05")

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindShow, "Group Chainsaw Man 05", gomock.Nil()).
		Return(nil, catalog.ErrNotFound)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindShow, "Chainsaw Man", gomock.Nil()).
		Return([]*catalog.ExternalMedia{{ID: 200, Title: "Chainsaw Man"}}, nil)
	provider.EXPECT().
		Seasons(gomock.Any(), int64(200)).
		Return(nil, catalog.ErrNotFound)
	provider.EXPECT().
		Episodes(gomock.Any(), int64(200), 1).
		Return([]*catalog.ExternalEpisode{{Episode: 5, Name: ptr("Gun Devil")}}, nil)

	unit := &WorkUnit{File: file, Candidates: []filename.Candidate{
		{Title: "Group Chainsaw Man 05"},
		{Title: "Chainsaw Man", Season: ptr(1), Episode: ptr(5)},
	}}

	m := NewShowMatcher(nil, discard())
	tx := beginTx(t, store)
	require.NoError(t, m.BatchMatch(context.Background(), tx, provider, []*WorkUnit{unit}))
	require.NoError(t, tx.Commit())

	// The anime candidate's parse is written back to the file row.
	got, err := store.GetMediaFile(file.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Season)
	require.NotNil(t, got.Episode)
	assert.Equal(t, 1, *got.Season)
	assert.Equal(t, 5, *got.Episode)

	show, err := store.GetMediaByName(lib.ID, "Chainsaw Man")
	require.NoError(t, err)
	season, err := store.GetSeasonByNumber(show.ID, 1)
	require.NoError(t, err)
	episode, err := store.GetEpisodeByNumber(season.ID, 5)
	require.NoError(t, err)
	epMedia, err := store.GetMedia(episode.MediaID)
	require.NoError(t, err)
	assert.Equal(t, "Gun Devil", epMedia.Name)
}

func TestShowMatcher_DefaultSeasonAndEpisode(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	lib := addLibrary(t, store, library.MediaTypeShow)
	file := stageFile(t, store, lib.ID, "/media/Cowboy Bebop.mkv", "Cowboy Bebop")

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindShow, "Cowboy Bebop", gomock.Nil()).
		Return([]*catalog.ExternalMedia{{ID: 30, Title: "Cowboy Bebop"}}, nil)
	provider.EXPECT().
		Seasons(gomock.Any(), int64(30)).
		Return(nil, catalog.ErrNotFound)
	provider.EXPECT().
		Episodes(gomock.Any(), int64(30), 1).
		Return(nil, catalog.ErrNotFound)

	unit := &WorkUnit{File: file, Candidates: []filename.Candidate{{Title: "Cowboy Bebop"}}}

	m := NewShowMatcher(nil, discard())
	tx := beginTx(t, store)
	require.NoError(t, m.BatchMatch(context.Background(), tx, provider, []*WorkUnit{unit}))
	require.NoError(t, tx.Commit())

	show, err := store.GetMediaByName(lib.ID, "Cowboy Bebop")
	require.NoError(t, err)
	season, err := store.GetSeasonByNumber(show.ID, 1)
	require.NoError(t, err, "season defaults to 1")
	episode, err := store.GetEpisodeByNumber(season.ID, 1)
	require.NoError(t, err, "episode defaults to 1")

	// The catalog had no episode detail; the fallback name is used.
	epMedia, err := store.GetMedia(episode.MediaID)
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop S01E01", epMedia.Name)
}

func TestShowMatcher_SharedShowAcrossEpisodes(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	lib := addLibrary(t, store, library.MediaTypeShow)
	e1 := stageFile(t, store, lib.ID, "/media/show.s01e01.mkv", "Severance")
	e2 := stageFile(t, store, lib.ID, "/media/show.s01e02.mkv", "Severance")

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().
		Search(gomock.Any(), catalog.KindShow, "Severance", gomock.Nil()).
		Return([]*catalog.ExternalMedia{{ID: 40, Title: "Severance"}}, nil).
		Times(2)
	provider.EXPECT().
		Seasons(gomock.Any(), int64(40)).
		Return([]*catalog.ExternalSeason{{SeasonNumber: 1}}, nil).
		Times(2)
	provider.EXPECT().
		Episodes(gomock.Any(), int64(40), 1).
		Return([]*catalog.ExternalEpisode{
			{Episode: 1, Name: ptr("Good News About Hell")},
			{Episode: 2, Name: ptr("Half Loop")},
		}, nil).
		Times(2)

	units := []*WorkUnit{
		{File: e1, Candidates: []filename.Candidate{{Title: "Severance", Season: ptr(1), Episode: ptr(1)}}},
		{File: e2, Candidates: []filename.Candidate{{Title: "Severance", Season: ptr(1), Episode: ptr(2)}}},
	}

	m := NewShowMatcher(nil, discard())
	tx := beginTx(t, store)
	require.NoError(t, m.BatchMatch(context.Background(), tx, provider, units))
	require.NoError(t, tx.Commit())

	all, err := store.ListMediaByLibrary(lib.ID)
	require.NoError(t, err)
	// One show plus two episode records.
	assert.Len(t, all, 3)

	show, err := store.GetMediaByName(lib.ID, "Severance")
	require.NoError(t, err)
	files, err := store.MediaFilesOfShow(show.ID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
