package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vmunix/reel/internal/catalog"
	"github.com/vmunix/reel/internal/config"
	"github.com/vmunix/reel/internal/events"
	"github.com/vmunix/reel/internal/library"
	"github.com/vmunix/reel/internal/migrations"
	"github.com/vmunix/reel/internal/probe"
	"github.com/vmunix/reel/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan [library-id]",
	Short: "Scan one library, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store := library.NewStore(db)
	bus := events.NewBus(logger)
	defer bus.Close()

	provider := catalog.NewClient(cfg.Catalog.APIKey, logger,
		catalog.WithUserAgent(fmt.Sprintf("reel/%s", version)))
	defer provider.Close()

	prober := probe.New(logger, probe.WithBinary(cfg.Scanner.FFprobe))
	sc := scanner.New(store, prober, bus, logger)

	var libs []*library.Library
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("library-id: %w", err)
		}
		lib, err := store.GetLibrary(id)
		if err != nil {
			return fmt.Errorf("library %d: %w", id, err)
		}
		libs = append(libs, lib)
	} else {
		libs, err = store.ListLibraries()
		if err != nil {
			return err
		}
	}

	for _, lib := range libs {
		fmt.Printf("scanning %q (library %d)...\n", lib.Name, lib.ID)
		if err := sc.Scan(cmd.Context(), lib.ID, provider); err != nil {
			return fmt.Errorf("scan library %d: %w", lib.ID, err)
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
