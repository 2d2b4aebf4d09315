package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/reel/internal/library"
)

// libraryJSON is the JSON-friendly representation of a library.
type libraryJSON struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	MediaType string   `json:"media_type"`
	Locations []string `json:"locations"`
}

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List the configured libraries",
	Args:  cobra.NoArgs,
	RunE:  runLibraries,
}

func init() {
	rootCmd.AddCommand(librariesCmd)
}

func runLibraries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	libs, err := library.NewStore(db).ListLibraries()
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]libraryJSON, 0, len(libs))
		for _, l := range libs {
			out = append(out, libraryJSON{
				ID:        l.ID,
				Name:      l.Name,
				MediaType: string(l.MediaType),
				Locations: l.Locations,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(libs) == 0 {
		fmt.Println("no libraries")
		return nil
	}
	for _, l := range libs {
		fmt.Printf("%d  %-20s %-5s %s\n", l.ID, l.Name, l.MediaType, strings.Join(l.Locations, ", "))
	}
	return nil
}
