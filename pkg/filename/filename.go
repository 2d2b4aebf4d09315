// Package filename extracts media metadata candidates from file names.
//
// Three strategies run over every name: a scene/torrent style parser, an
// anime fansub style parser, and a combined heuristic fallback. Their
// non-empty results are concatenated in that order; the first candidate
// is what the scanner stages, the rest are retry material for matchers.
package filename

import (
	"sync"
	"unicode/utf8"
)

// Candidate is one interpretation of a file name.
type Candidate struct {
	Title   string
	Year    *int
	Season  *int
	Episode *int
}

// Strategy maps a file name (without extension) to zero or more candidates.
type Strategy interface {
	Extract(name string) []Candidate
}

// defaultStrategies in authoritative order: torrent, anime, combined.
var defaultStrategies = []Strategy{
	TorrentStrategy{},
	AnimeStrategy{},
	CombinedStrategy{},
}

// Extract runs all strategies in parallel and concatenates their results
// in strategy order. Returns nil for names that are not valid UTF-8 or
// that no strategy can interpret.
func Extract(name string) []Candidate {
	if !utf8.ValidString(name) {
		return nil
	}

	results := make([][]Candidate, len(defaultStrategies))
	var wg sync.WaitGroup
	for i, s := range defaultStrategies {
		wg.Add(1)
		go func(i int, s Strategy) {
			defer wg.Done()
			results[i] = s.Extract(name)
		}(i, s)
	}
	wg.Wait()

	var out []Candidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// ptr is a small helper for optional fields.
func ptr[T any](v T) *T { return &v }
