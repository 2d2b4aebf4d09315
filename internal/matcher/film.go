package matcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/events"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/pkg/filename"
)

// FilmMatcher resolves mediafiles in film libraries. Films upsert by
// (library, name): two cuts of the same title share one media row.
type FilmMatcher struct {
	bus    *events.Bus
	logger *slog.Logger
}

// NewFilmMatcher creates a film matcher. The bus may be nil when no one
// listens for new cards.
func NewFilmMatcher(bus *events.Bus, logger *slog.Logger) *FilmMatcher {
	return &FilmMatcher{bus: bus, logger: logger.With("component", "film_matcher")}
}

// BatchMatch resolves each unit, logging and skipping failures.
func (m *FilmMatcher) BatchMatch(ctx context.Context, tx *library.Tx, provider catalog.Provider, units []*WorkUnit) error {
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.matchUnit(ctx, tx, provider, unit); err != nil {
			m.logger.Warn("match failed", "path", unit.File.Path, "error", err)
			continue
		}
		m.logger.Debug("matched film", "path", unit.File.Path, "media_id", *unit.File.MediaID)
	}
	return nil
}

func (m *FilmMatcher) matchUnit(ctx context.Context, tx *library.Tx, provider catalog.Provider, unit *WorkUnit) error {
	if len(unit.Candidates) == 0 {
		return ErrNoCandidates
	}
	cand := unit.Candidates[0]
	results, err := provider.Search(ctx, catalog.KindFilm, filename.NormalizeQuery(cand.Title), cand.Year)
	if err != nil {
		return err
	}
	return m.commit(ctx, tx, unit.File, bestResult(results, cand.Title))
}

// MatchToID force-matches the unit to a specific catalog id.
func (m *FilmMatcher) MatchToID(ctx context.Context, tx *library.Tx, provider catalog.Provider, unit *WorkUnit, externalID int64) error {
	result, err := provider.Lookup(ctx, catalog.KindFilm, externalID)
	if err != nil {
		return err
	}
	return m.commit(ctx, tx, unit.File, result)
}

func (m *FilmMatcher) commit(ctx context.Context, tx *library.Tx, file *library.MediaFile, result *catalog.ExternalMedia) error {
	_, err := tx.GetMediaByName(file.LibraryID, result.Title)
	fresh := errors.Is(err, library.ErrNotFound)
	if err != nil && !fresh {
		return err
	}

	media := &library.Media{
		LibraryID:    file.LibraryID,
		Name:         result.Title,
		Description:  result.Description,
		Rating:       result.Rating,
		Year:         result.Year,
		PosterPath:   result.PosterPath,
		BackdropPath: result.BackdropPath,
		Kind:         library.KindFilm,
	}
	if err := tx.UpsertMedia(media); err != nil {
		return err
	}
	if err := relink(tx, file, media.ID); err != nil {
		return err
	}

	if fresh && m.bus != nil {
		_ = m.bus.Publish(ctx, events.NewNewCard(media.ID))
	}
	return nil
}

var _ Matcher = (*FilmMatcher)(nil)
