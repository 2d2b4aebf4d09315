package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/events"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/pkg/filename"
)

// ShowMatcher resolves mediafiles in show libraries: it ensures the
// show, season, and episode rows exist and links the file to the
// episode's media record.
type ShowMatcher struct {
	bus    *events.Bus
	logger *slog.Logger
}

// NewShowMatcher creates a show matcher. The bus may be nil when no one
// listens for new cards.
func NewShowMatcher(bus *events.Bus, logger *slog.Logger) *ShowMatcher {
	return &ShowMatcher{bus: bus, logger: logger.With("component", "show_matcher")}
}

// BatchMatch resolves each unit, logging and skipping failures.
func (m *ShowMatcher) BatchMatch(ctx context.Context, tx *library.Tx, provider catalog.Provider, units []*WorkUnit) error {
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.matchUnit(ctx, tx, provider, unit); err != nil {
			m.logger.Warn("match failed", "path", unit.File.Path, "error", err)
			continue
		}
		m.logger.Debug("matched episode", "path", unit.File.Path, "media_id", *unit.File.MediaID)
	}
	return nil
}

func (m *ShowMatcher) matchUnit(ctx context.Context, tx *library.Tx, provider catalog.Provider, unit *WorkUnit) error {
	if len(unit.Candidates) == 0 {
		return ErrNoCandidates
	}
	cand := unit.Candidates[0]
	results, err := provider.Search(ctx, catalog.KindShow, filename.NormalizeQuery(cand.Title), cand.Year)

	// Release-style parses often mangle anime names; when the primary
	// candidate finds nothing, retry with each differently-titled
	// alternative in extractor order.
	retried := false
	if errors.Is(err, catalog.ErrNotFound) {
		for _, alt := range unit.Candidates[1:] {
			if alt.Title == cand.Title {
				continue
			}
			results, err = provider.Search(ctx, catalog.KindShow, filename.NormalizeQuery(alt.Title), alt.Year)
			if err == nil {
				cand = alt
				retried = true
				break
			}
			if !errors.Is(err, catalog.ErrNotFound) {
				return err
			}
		}
	}
	if err != nil {
		return err
	}
	return m.commit(ctx, tx, provider, unit.File, bestResult(results, cand.Title), cand, retried)
}

// MatchToID force-matches the unit to a specific catalog id, keeping
// the unit's parsed season and episode numbers.
func (m *ShowMatcher) MatchToID(ctx context.Context, tx *library.Tx, provider catalog.Provider, unit *WorkUnit, externalID int64) error {
	result, err := provider.Lookup(ctx, catalog.KindShow, externalID)
	if err != nil {
		return err
	}
	cand := filename.Candidate{Title: result.Title, Season: unit.File.Season, Episode: unit.File.Episode}
	if len(unit.Candidates) > 0 {
		cand.Season = unit.Candidates[0].Season
		cand.Episode = unit.Candidates[0].Episode
	}
	return m.commit(ctx, tx, provider, unit.File, result, cand, false)
}

func (m *ShowMatcher) commit(ctx context.Context, tx *library.Tx, provider catalog.Provider, file *library.MediaFile, result *catalog.ExternalMedia, cand filename.Candidate, writeback bool) error {
	_, err := tx.GetMediaByName(file.LibraryID, result.Title)
	fresh := errors.Is(err, library.ErrNotFound)
	if err != nil && !fresh {
		return err
	}

	show := &library.Media{
		LibraryID:    file.LibraryID,
		Name:         result.Title,
		Description:  result.Description,
		Rating:       result.Rating,
		Year:         result.Year,
		PosterPath:   result.PosterPath,
		BackdropPath: result.BackdropPath,
		Kind:         library.KindShow,
	}
	if err := tx.UpsertMedia(show); err != nil {
		return err
	}

	// Files with no parsed season or episode number land in S1/E1,
	// which is where single-season releases usually belong.
	seasonNum, episodeNum := 1, 1
	if cand.Season != nil {
		seasonNum = *cand.Season
	}
	if cand.Episode != nil {
		episodeNum = *cand.Episode
	}

	var poster *string
	if seasons, err := provider.Seasons(ctx, result.ID); err == nil {
		for _, s := range seasons {
			if s.SeasonNumber == seasonNum {
				poster = s.PosterPath
				break
			}
		}
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}
	season, err := tx.EnsureSeason(show.ID, seasonNum, poster)
	if err != nil {
		return err
	}

	epMedia := &library.Media{
		LibraryID: file.LibraryID,
		Name:      fmt.Sprintf("%s S%02dE%02d", result.Title, seasonNum, episodeNum),
	}
	if episodes, err := provider.Episodes(ctx, result.ID, seasonNum); err == nil {
		for _, e := range episodes {
			if e.Episode != episodeNum {
				continue
			}
			if e.Name != nil {
				epMedia.Name = *e.Name
			}
			epMedia.Description = e.Description
			epMedia.BackdropPath = e.StillPath
			break
		}
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	episode, err := tx.EnsureEpisode(season.ID, episodeNum, epMedia)
	if err != nil {
		return err
	}
	if err := relink(tx, file, episode.MediaID); err != nil {
		return err
	}

	if writeback {
		update := library.MediaFileUpdate{Season: &seasonNum, Episode: &episodeNum}
		if err := tx.UpdateMediaFile(file.ID, update); err != nil {
			return err
		}
		file.Season = &seasonNum
		file.Episode = &episodeNum
	}

	if fresh && m.bus != nil {
		_ = m.bus.Publish(ctx, events.NewNewCard(show.ID))
	}
	return nil
}

var _ Matcher = (*ShowMatcher)(nil)
