// Package library manages the media library: libraries, on-disk mediafiles,
// and the logical media/season/episode tree.
package library

import (
	"time"
)

// MediaType distinguishes film libraries from show libraries.
type MediaType string

const (
	MediaTypeFilm MediaType = "film"
	MediaTypeShow MediaType = "show"
)

// MediaKind tags a media row as a film, a show, or an episode's own record.
type MediaKind string

const (
	KindFilm    MediaKind = "film"
	KindShow    MediaKind = "show"
	KindEpisode MediaKind = "episode"
)

// Library is a named set of filesystem roots holding one media type.
// Hidden libraries are excluded from the media view while their rows are
// being torn down.
type Library struct {
	ID        int64
	Name      string
	MediaType MediaType
	Hidden    bool
	Locations []string
}

// MediaFile is a concrete file on disk, staged by the scanner before it is
// matched to a media record. Path is unique across the process.
type MediaFile struct {
	ID        int64
	LibraryID int64
	MediaID   *int64 // nil until matched
	Path      string
	RawName   string
	RawYear   *int
	Season    *int
	Episode   *int

	// Probed container data; all nil for corrupt files.
	Container     *string
	VideoCodec    *string
	VideoProfile  *string
	AudioCodec    *string
	AudioLanguage *string
	Resolution    *string
	Duration      *int
	Channels      *int
	Corrupt       bool

	AddedAt time.Time
}

// Media is the logical title as the user sees it: a film, a show, or the
// per-episode record underlying an Episode.
type Media struct {
	ID           int64
	LibraryID    int64
	Name         string
	Description  *string
	Rating       *float64
	Year         *int
	AddedAt      time.Time
	PosterPath   *string
	BackdropPath *string
	Kind         MediaKind
}

// Season belongs to a show media record; unique by (show, number).
type Season struct {
	ID           int64
	MediaID      int64 // owning show
	SeasonNumber int
	AddedAt      time.Time
	PosterPath   *string
}

// Episode belongs to a season and carries its own media record so that
// episodes share the Media shape; unique by (season, number).
type Episode struct {
	ID       int64
	MediaID  int64 // underlying media record of kind episode
	SeasonID int64
	Episode  int
}
