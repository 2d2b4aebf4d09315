// Package stream tracks playback sessions and compiles their virtual
// DASH manifests. Segment production belongs to the transcoder; this
// package only owns session identity and the manifest.
package stream

import "context"

// Track describes one stream of a session's virtual manifest.
type Track struct {
	ID          string
	SetID       int
	ContentType string // "video", "audio", "subtitle"
	MimeType    string
	Codecs      string
	Bandwidth   int64
	Lang        string
	Default     bool

	// Duration is the presentation length in seconds; the first
	// track's value declares the manifest duration.
	Duration int
	// TargetDuration is the segment length in seconds.
	TargetDuration int

	InitSegment string
	ChunkPath   string

	// Label and DirectPlay are carried for the player surface; neither
	// affects the compiled manifest.
	Label      string
	DirectPlay bool

	// Args are passed through as extra Representation attributes.
	Args map[string]string
}

// Transcoder is the capability the tracker addresses when sessions are
// torn down. Starting work is the caller's business; the tracker only
// ever kills.
//
//go:generate mockgen -source=track.go -destination=mocks/transcoder.go -package=mocks
type Transcoder interface {
	Die(ctx context.Context, id string) error
	// DieIgnoreGC kills without scheduling cleanup of produced
	// segments.
	DieIgnoreGC(ctx context.Context, id string) error
}
