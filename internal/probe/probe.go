// Package probe extracts container and stream metadata from media files
// by shelling out to ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Report is the structured result of probing one file. A file the tool
// could not read comes back with Corrupt set and every other field at
// its zero value; callers insert such files anyway and surface the flag.
type Report struct {
	Container     string
	VideoCodec    string
	VideoProfile  string
	Width         int
	Height        int
	AudioCodec    string
	Channels      int
	AudioLanguage string
	VideoLanguage string
	Duration      int
	Corrupt       bool

	VideoStreams    []Stream
	AudioStreams    []Stream
	SubtitleStreams []Stream
}

// Stream is the raw per-stream detail as reported by the tool.
type Stream struct {
	Index         int               `json:"index"`
	CodecType     string            `json:"codec_type"`
	CodecName     string            `json:"codec_name"`
	Profile       string            `json:"profile"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	Tags          map[string]string `json:"tags"`
}

// Resolution renders the primary video dimensions as "WxH", or an empty
// string when the file has no video stream.
func (r *Report) Resolution() string {
	if r.Width == 0 && r.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

type rawOutput struct {
	Format  rawFormat `json:"format"`
	Streams []Stream  `json:"streams"`
}

type rawFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Prober runs the external probe tool.
type Prober struct {
	bin    string
	logger *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithBinary overrides the probe executable path.
func WithBinary(path string) Option {
	return func(p *Prober) { p.bin = path }
}

// New creates a Prober. The default binary is ffprobe resolved from PATH.
func New(logger *slog.Logger, opts ...Option) *Prober {
	p := &Prober{
		bin:    "ffprobe",
		logger: logger.With("component", "probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe inspects the file at path. Tool failures and unparseable output
// yield a corrupt report, not an error; the error return is reserved for
// context cancellation.
func (p *Prober) Probe(ctx context.Context, path string) (*Report, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("probe tool failed", "path", path, "error", err)
		return &Report{Corrupt: true}, nil
	}

	var raw rawOutput
	if err := json.Unmarshal(output, &raw); err != nil {
		p.logger.Warn("probe output unparseable", "path", path, "error", err)
		return &Report{Corrupt: true}, nil
	}
	return buildReport(&raw), nil
}

func buildReport(raw *rawOutput) *Report {
	r := &Report{Container: primaryFormat(raw.Format.FormatName)}
	if d, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
		r.Duration = int(d)
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if len(r.VideoStreams) == 0 {
				r.VideoCodec = s.CodecName
				r.VideoProfile = s.Profile
				r.Width = s.Width
				r.Height = s.Height
				r.VideoLanguage = s.Tags["language"]
			}
			r.VideoStreams = append(r.VideoStreams, s)
		case "audio":
			if len(r.AudioStreams) == 0 {
				r.AudioCodec = s.CodecName
				r.Channels = s.Channels
				r.AudioLanguage = s.Tags["language"]
			}
			r.AudioStreams = append(r.AudioStreams, s)
		case "subtitle":
			r.SubtitleStreams = append(r.SubtitleStreams, s)
		}
	}
	return r
}

// primaryFormat picks the first name from ffprobe's comma-separated
// format_name list, e.g. "matroska,webm" reports as "matroska".
func primaryFormat(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		return name[:i]
	}
	return name
}
