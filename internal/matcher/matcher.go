// Package matcher resolves staged mediafiles against the external
// catalog and writes the resulting media tree.
package matcher

import (
	"context"
	"errors"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/pkg/filename"
)

// ErrNoCandidates means the filename extractor produced nothing usable
// for a unit.
var ErrNoCandidates = errors.New("matcher: no filename candidates")

// WorkUnit pairs a staged mediafile with its parse candidates, best
// guess first.
type WorkUnit struct {
	File       *library.MediaFile
	Candidates []filename.Candidate
}

// Matcher resolves work units against a catalog provider. BatchMatch
// isolates per-unit failures: a unit that cannot be resolved is logged
// and skipped, and only context cancellation stops the batch.
type Matcher interface {
	BatchMatch(ctx context.Context, tx *library.Tx, provider catalog.Provider, units []*WorkUnit) error
	MatchToID(ctx context.Context, tx *library.Tx, provider catalog.Provider, unit *WorkUnit, externalID int64) error
}

// bestResult picks the search result whose title is closest to the
// parsed one. Results arrive relevance-ordered, so ties keep the
// catalog's ranking.
func bestResult(results []*catalog.ExternalMedia, title string) *catalog.ExternalMedia {
	norm := filename.CleanTitle(title)
	best := results[0]
	bestScore := float64(-1)
	for _, r := range results {
		score := float64(edlib.JaroWinklerSimilarity(norm, filename.CleanTitle(r.Title)))
		if score > bestScore {
			best = r
			bestScore = score
		}
	}
	return best
}

// relink points the mediafile at mediaID and deletes the previously
// linked media when no other file references it.
func relink(tx *library.Tx, file *library.MediaFile, mediaID int64) error {
	old := file.MediaID
	target := &mediaID
	if err := tx.UpdateMediaFile(file.ID, library.MediaFileUpdate{MediaID: &target}); err != nil {
		return err
	}
	file.MediaID = &mediaID
	if old != nil && *old != mediaID {
		if _, err := tx.DeleteMediaIfOrphan(*old); err != nil {
			return err
		}
	}
	return nil
}
