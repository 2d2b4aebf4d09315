package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/reel/internal/probe"
)

var probeBinary string

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Inspect a media file with ffprobe",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeBinary, "ffprobe", "ffprobe", "Probe binary")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prober := probe.New(logger, probe.WithBinary(probeBinary))

	report, err := prober.Probe(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.Corrupt {
		fmt.Println("corrupt: probe could not read the file")
		return nil
	}
	fmt.Printf("container:  %s\n", report.Container)
	fmt.Printf("duration:   %ds\n", report.Duration)
	fmt.Printf("video:      %s %s %s\n", report.VideoCodec, report.VideoProfile, report.Resolution())
	fmt.Printf("audio:      %s %dch %s\n", report.AudioCodec, report.Channels, report.AudioLanguage)
	fmt.Printf("streams:    %d video, %d audio, %d subtitle\n",
		len(report.VideoStreams), len(report.AudioStreams), len(report.SubtitleStreams))
	return nil
}
