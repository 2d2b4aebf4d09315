package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/config"
	"github.com/vmunix/reel/internal/events"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/internal/migrations"
	"github.com/vmunix/reel/internal/probe"
	"github.com/vmunix/reel/internal/scanner"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		configPath = discovered
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store := library.NewStore(db)

	bus := events.NewBus(logger)
	defer bus.Close()

	catalogOpts := []catalog.Option{
		catalog.WithUserAgent(fmt.Sprintf("reel/%s", version)),
	}
	if cfg.Catalog.BaseURL != "" {
		catalogOpts = append(catalogOpts, catalog.WithBaseURL(cfg.Catalog.BaseURL))
	}
	if cfg.Catalog.CacheTTL > 0 {
		catalogOpts = append(catalogOpts, catalog.WithCacheTTL(cfg.Catalog.CacheTTL))
	}
	provider := catalog.NewClient(cfg.Catalog.APIKey, logger, catalogOpts...)
	defer provider.Close()

	prober := probe.New(logger, probe.WithBinary(cfg.Scanner.FFprobe))
	sc := scanner.New(store, prober, bus, logger)

	libs, err := syncLibraries(context.Background(), cfg, store, bus, logger)
	if err != nil {
		return fmt.Errorf("sync libraries: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("daemon starting",
		"config", configPath,
		"database", cfg.Database.Path,
		"libraries", len(libs),
		"watch", *cfg.Scanner.Watch,
		"log_level", cfg.Server.LogLevel,
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, lib := range libs {
		g.Go(func() error {
			if err := sc.Scan(gctx, lib.ID, provider); err != nil {
				return fmt.Errorf("scan library %d: %w", lib.ID, err)
			}
			return nil
		})
		if *cfg.Scanner.Watch {
			g.Go(func() error {
				w := scanner.NewWatcher(lib.ID, store, sc, provider, logger)
				return w.Run(gctx)
			})
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("daemon stopped")
	return nil
}

// syncLibraries reconciles the configured libraries with the store:
// missing ones are created, and stored libraries no longer configured
// are hidden and then torn down.
func syncLibraries(ctx context.Context, cfg *config.Config, store *library.Store, bus *events.Bus, logger *slog.Logger) ([]*library.Library, error) {
	existing, err := store.ListLibraries()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*library.Library, len(existing))
	for _, lib := range existing {
		byName[lib.Name] = lib
	}

	var active []*library.Library
	configured := make(map[string]bool, len(cfg.Libraries))
	for _, lc := range cfg.Libraries {
		configured[lc.Name] = true
		if lib, ok := byName[lc.Name]; ok {
			active = append(active, lib)
			continue
		}
		lib := &library.Library{
			Name:      lc.Name,
			MediaType: library.MediaType(lc.Type),
			Locations: lc.Paths,
		}
		if err := store.AddLibrary(lib); err != nil {
			return nil, fmt.Errorf("add library %q: %w", lc.Name, err)
		}
		logger.Info("library created", "library_id", lib.ID, "name", lib.Name)
		_ = bus.Publish(ctx, events.NewNewLibrary(lib.ID))
		active = append(active, lib)
	}

	for _, lib := range existing {
		if configured[lib.Name] {
			continue
		}
		// Hide first so the media view stops serving the library while
		// its rows are deleted.
		if err := store.HideLibrary(lib.ID); err != nil {
			return nil, fmt.Errorf("hide library %q: %w", lib.Name, err)
		}
		if err := store.DeleteLibrary(lib.ID); err != nil {
			return nil, fmt.Errorf("delete library %q: %w", lib.Name, err)
		}
		logger.Info("library removed", "library_id", lib.ID, "name", lib.Name)
		_ = bus.Publish(ctx, events.NewRemoveLibrary(lib.ID))
	}

	return active, nil
}
