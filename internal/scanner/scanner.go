// Package scanner walks library roots, stages what it finds, and hands
// the staged files to the matchers.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/events"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/internal/matcher"
	"github.com/vmunix/reel/internal/probe"
	"github.com/vmunix/reel/pkg/filename"
)

const (
	// Extract and probe run concurrently within a group this size.
	defaultGroupSize = 4
	// Staged records are inserted this many per write transaction.
	defaultStageBatch = 256
	// Work units are matched this many per write transaction, so a
	// cancelled scan keeps every chunk that already committed.
	defaultMatchChunk = 128
)

// Scanner drives the stage-then-match pipeline for one or more
// libraries.
type Scanner struct {
	store  *library.Store
	prober *probe.Prober
	bus    *events.Bus
	logger *slog.Logger

	filmMatcher matcher.Matcher
	showMatcher matcher.Matcher

	groupSize  int
	stageBatch int
	matchChunk int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithBatchSizes overrides the pipeline batch sizes (for testing).
func WithBatchSizes(group, stage, match int) Option {
	return func(s *Scanner) {
		s.groupSize = group
		s.stageBatch = stage
		s.matchChunk = match
	}
}

// WithMatchers overrides the matchers (for testing).
func WithMatchers(film, show matcher.Matcher) Option {
	return func(s *Scanner) {
		s.filmMatcher = film
		s.showMatcher = show
	}
}

// New creates a Scanner.
func New(store *library.Store, prober *probe.Prober, bus *events.Bus, logger *slog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		store:       store,
		prober:      prober,
		bus:         bus,
		logger:      logger.With("component", "scanner"),
		filmMatcher: matcher.NewFilmMatcher(bus, logger),
		showMatcher: matcher.NewShowMatcher(bus, logger),
		groupSize:   defaultGroupSize,
		stageBatch:  defaultStageBatch,
		matchChunk:  defaultMatchChunk,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// parsed is a walked file after extraction and probing, ready to stage.
type parsed struct {
	file       *library.MediaFile
	candidates []filename.Candidate
}

// Scan walks every root of the library, stages new files, and matches
// them against the catalog. StartedScanning and StoppedScanning frame
// the run; StoppedScanning is emitted on failure too.
func (s *Scanner) Scan(ctx context.Context, libraryID int64, provider catalog.Provider) error {
	lib, err := s.store.GetLibrary(libraryID)
	if err != nil {
		return err
	}

	if err := s.bus.Publish(ctx, events.NewStartedScanning(libraryID)); err != nil {
		return fmt.Errorf("dispatch scan start: %w", err)
	}
	defer func() {
		_ = s.bus.Publish(context.WithoutCancel(ctx), events.NewStoppedScanning(libraryID))
	}()

	s.logger.Info("scan started", "library_id", libraryID, "roots", lib.Locations)
	if err := s.scanRoots(ctx, lib, lib.Locations, provider); err != nil {
		s.logger.Error("scan failed", "library_id", libraryID, "error", err)
		return err
	}
	s.logger.Info("scan finished", "library_id", libraryID)
	return nil
}

// ScanPath stages and matches a single subtree of the library, as used
// by the watcher when a directory appears.
func (s *Scanner) ScanPath(ctx context.Context, libraryID int64, root string, provider catalog.Provider) error {
	lib, err := s.store.GetLibrary(libraryID)
	if err != nil {
		return err
	}
	return s.scanRoots(ctx, lib, []string{root}, provider)
}

// AddFile stages and matches one file, as used by the watcher when a
// file appears. Already-staged paths are a no-op.
func (s *Scanner) AddFile(ctx context.Context, libraryID int64, path string, provider catalog.Provider) error {
	lib, err := s.store.GetLibrary(libraryID)
	if err != nil {
		return err
	}
	results, err := s.processGroup(ctx, lib.ID, []string{path})
	if err != nil || len(results) == 0 {
		return err
	}
	units, err := s.stage(ctx, lib.ID, results)
	if err != nil {
		return err
	}
	return s.match(ctx, lib, units, provider)
}

func (s *Scanner) scanRoots(ctx context.Context, lib *library.Library, roots []string, provider catalog.Provider) error {
	paths := make(chan string, 64)

	// The walker blocks on disk; it gets its own goroutine while this
	// one consumes.
	walkErr := make(chan error, 1)
	go func() {
		defer close(paths)
		for _, root := range roots {
			if err := s.walk(ctx, root, paths); err != nil {
				walkErr <- err
				return
			}
		}
		walkErr <- nil
	}()

	var units []*matcher.WorkUnit
	var pending []parsed
	group := make([]string, 0, s.groupSize)

	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		results, err := s.processGroup(ctx, lib.ID, group)
		group = group[:0]
		if err != nil {
			return err
		}
		pending = append(pending, results...)
		if len(pending) >= s.stageBatch {
			staged, err := s.stage(ctx, lib.ID, pending)
			pending = pending[:0]
			if err != nil {
				return err
			}
			units = append(units, staged...)
		}
		return nil
	}

	for path := range paths {
		group = append(group, path)
		if len(group) == s.groupSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := <-walkErr; err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	if len(pending) > 0 {
		staged, err := s.stage(ctx, lib.ID, pending)
		if err != nil {
			return err
		}
		units = append(units, staged...)
	}

	return s.match(ctx, lib, units, provider)
}

// processGroup extracts and probes a group of paths concurrently. Files
// no extractor can parse are dropped with a warning.
func (s *Scanner) processGroup(ctx context.Context, libraryID int64, group []string) ([]parsed, error) {
	results := make([]*parsed, len(group))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range group {
		g.Go(func() error {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			candidates := filename.Extract(name)
			if len(candidates) == 0 {
				s.logger.Warn("filename unparsed, dropping", "path", path)
				return nil
			}
			report, err := s.prober.Probe(gctx, path)
			if err != nil {
				return err
			}
			results[i] = &parsed{
				file:       buildMediaFile(libraryID, path, candidates[0], report),
				candidates: candidates,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]parsed, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// stage inserts a batch of parsed files in one write transaction,
// skipping paths that are already present, and returns work units for
// the rows that were actually inserted.
func (s *Scanner) stage(ctx context.Context, libraryID int64, batch []parsed) ([]*matcher.WorkUnit, error) {
	files := make([]*library.MediaFile, len(batch))
	byPath := make(map[string][]filename.Candidate, len(batch))
	for i, p := range batch {
		files[i] = p.file
		byPath[p.file.Path] = p.candidates
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	inserted, err := tx.AddMediaFiles(files)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.Debug("staged batch", "library_id", libraryID, "walked", len(batch), "inserted", len(inserted))

	units := make([]*matcher.WorkUnit, 0, len(inserted))
	for _, f := range inserted {
		units = append(units, &matcher.WorkUnit{File: f, Candidates: byPath[f.Path]})
	}
	return units, nil
}

// match dispatches work units to the library's matcher in chunks, one
// write transaction per chunk. Cancellation between chunks leaves the
// committed chunks durable.
func (s *Scanner) match(ctx context.Context, lib *library.Library, units []*matcher.WorkUnit, provider catalog.Provider) error {
	m := s.filmMatcher
	if lib.MediaType == library.MediaTypeShow {
		m = s.showMatcher
	}

	for start := 0; start < len(units); start += s.matchChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + s.matchChunk
		if end > len(units) {
			end = len(units)
		}

		tx, err := s.store.Begin(ctx)
		if err != nil {
			return err
		}
		if err := m.BatchMatch(ctx, tx, provider, units[start:end]); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func buildMediaFile(libraryID int64, path string, cand filename.Candidate, report *probe.Report) *library.MediaFile {
	f := &library.MediaFile{
		LibraryID: libraryID,
		Path:      path,
		RawName:   cand.Title,
		RawYear:   cand.Year,
		Season:    cand.Season,
		Episode:   cand.Episode,
		Corrupt:   report.Corrupt,
	}
	f.Container = optStr(report.Container)
	f.VideoCodec = optStr(report.VideoCodec)
	f.VideoProfile = optStr(report.VideoProfile)
	f.AudioCodec = optStr(report.AudioCodec)
	f.AudioLanguage = optStr(report.AudioLanguage)
	f.Resolution = optStr(report.Resolution())
	f.Duration = optInt(report.Duration)
	f.Channels = optInt(report.Channels)
	return f
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
