// Package catalog talks to the external metadata API that media files
// are matched against. All requests are rate limited, coalesced, and
// cached; callers see plain typed results.
package catalog

import "context"

// Kind selects the catalog namespace a request runs against.
type Kind string

const (
	KindFilm Kind = "film"
	KindShow Kind = "tv"
)

// ExternalMedia is a film or show as the catalog describes it.
type ExternalMedia struct {
	ID           int64
	Title        string
	Description  *string
	Year         *int
	Rating       *float64
	PosterPath   *string
	BackdropPath *string
	Genres       []string
	Duration     *int
}

// ExternalSeason is one season of a show.
type ExternalSeason struct {
	SeasonNumber int
	Name         *string
	Description  *string
	PosterPath   *string
}

// ExternalEpisode is one episode within a season.
type ExternalEpisode struct {
	Episode     int
	Name        *string
	Description *string
	StillPath   *string
}

// ExternalActor is a cast credit.
type ExternalActor struct {
	Name      string
	Character *string
	Photo     *string
}

// Provider is the catalog surface the matchers depend on.
//
//go:generate mockgen -source=catalog.go -destination=mocks/provider.go -package=mocks
type Provider interface {
	// Search returns candidates for a title, best match first. An empty
	// result set reports ErrNotFound.
	Search(ctx context.Context, kind Kind, title string, year *int) ([]*ExternalMedia, error)
	// Lookup fetches one record by its catalog id.
	Lookup(ctx context.Context, kind Kind, id int64) (*ExternalMedia, error)
	// Seasons lists a show's seasons ordered by season number.
	Seasons(ctx context.Context, showID int64) ([]*ExternalSeason, error)
	// Episodes lists a season's episodes ordered by episode number.
	Episodes(ctx context.Context, showID int64, seasonNumber int) ([]*ExternalEpisode, error)
	// Cast lists the credited actors of a record.
	Cast(ctx context.Context, kind Kind, id int64) ([]*ExternalActor, error)
}
