package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/reel/pkg/filename"
)

// candidateJSON is the JSON-friendly representation of a candidate.
type candidateJSON struct {
	Title   string `json:"title"`
	Year    *int   `json:"year,omitempty"`
	Season  *int   `json:"season,omitempty"`
	Episode *int   `json:"episode,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <filename>...",
	Short: "Extract title metadata from filenames (local, no daemon needed)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		name := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		candidates := filename.Extract(name)

		if jsonOutput {
			out := make([]candidateJSON, 0, len(candidates))
			for _, c := range candidates {
				out = append(out, candidateJSON{Title: c.Title, Year: c.Year, Season: c.Season, Episode: c.Episode})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}

		if len(candidates) == 0 {
			fmt.Printf("%s: no candidates\n", arg)
			continue
		}
		fmt.Printf("%s:\n", arg)
		for i, c := range candidates {
			line := fmt.Sprintf("  %d. %s", i+1, c.Title)
			if c.Year != nil {
				line += fmt.Sprintf(" (%d)", *c.Year)
			}
			if c.Season != nil && c.Episode != nil {
				line += fmt.Sprintf(" S%02dE%02d", *c.Season, *c.Episode)
			}
			fmt.Println(line)
		}
	}
	return nil
}
