package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTracks() []*Track {
	return []*Track{
		{
			ID:             "v0",
			ContentType:    "video",
			MimeType:       "video/mp4",
			Codecs:         "avc1.640028",
			Bandwidth:      5_000_000,
			Duration:       600,
			TargetDuration: 5,
			InitSegment:    "v0/init.mp4",
			ChunkPath:      "v0/$Number$.m4s",
			Args:           map[string]string{"width": "1920", "height": "1080"},
		},
		{
			ID:             "a0",
			ContentType:    "audio",
			MimeType:       "audio/mp4",
			Codecs:         "mp4a.40.2",
			Bandwidth:      128_000,
			Lang:           "en",
			Default:        true,
			Duration:       600,
			TargetDuration: 5,
			InitSegment:    "a0/init.mp4",
			ChunkPath:      "a0/$Number$.m4s",
		},
		{
			ID:          "s0",
			ContentType: "subtitle",
			MimeType:    "text/vtt",
			Bandwidth:   256,
			Lang:        "en",
			ChunkPath:   "s0/stream.vtt",
		},
	}
}

func TestRegistry_Compile(t *testing.T) {
	r := NewRegistry()
	for _, track := range sampleTracks() {
		r.Insert("sess", track)
	}
	r.AssignSetIDs("sess")

	doc, ok := r.Compile("sess", 0)
	require.True(t, ok)

	assert.Contains(t, doc, `xmlns="urn:mpeg:dash:schema:mpd:2011"`)
	assert.Contains(t, doc, `profiles="urn:mpeg:dash:profile:full:2011"`)
	assert.Contains(t, doc, `type="static"`)
	assert.Contains(t, doc, `mediaPresentationDuration="PT10M"`)
	assert.Contains(t, doc, `minBufferTime="PT20S"`)
	assert.Contains(t, doc, `maxSegmentDuration="PT20S"`)
	assert.Contains(t, doc, `<BaseURL>/api/v1/stream/</BaseURL>`)

	// Dense set ids in insertion order.
	assert.Contains(t, doc, `<AdaptationSet id="0" contentType="video"`)
	assert.Contains(t, doc, `<AdaptationSet id="1" contentType="audio" lang="en"`)
	assert.Contains(t, doc, `<AdaptationSet id="2" mimeType="text/vtt" lang="en"`)

	// Argument-map attributes land on the video representation.
	assert.Contains(t, doc, `height="1080"`)
	assert.Contains(t, doc, `width="1920"`)

	// The default audio track declares stereo and the main role.
	assert.Contains(t, doc, `<AudioChannelConfiguration schemeIdUri="urn:mpeg:dash:23003:3:audio_channel_configuration:2011" value="2">`)
	assert.Contains(t, doc, `value="main"`)

	// The subtitle set carries its chunk path as a BaseURL child.
	assert.Contains(t, doc, `<BaseURL>s0/stream.vtt</BaseURL>`)
}

func TestRegistry_CompileSegmentNumbering(t *testing.T) {
	r := NewRegistry()
	r.Insert("sess", sampleTracks()[0])
	r.AssignSetIDs("sess")

	doc, ok := r.Compile("sess", 42)
	require.True(t, ok)

	assert.Contains(t, doc, `initialization="v0/init.mp4?start_num=42"`)
	assert.Contains(t, doc, `startNumber="42"`)
	assert.Contains(t, doc, `timescale="1"`)
	assert.Contains(t, doc, `duration="5"`)
	assert.Contains(t, doc, `media="v0/$Number$.m4s"`)
}

func TestRegistry_CompileNoInitSegment(t *testing.T) {
	r := NewRegistry()
	track := sampleTracks()[0]
	track.InitSegment = ""
	r.Insert("sess", track)
	r.AssignSetIDs("sess")

	doc, ok := r.Compile("sess", 1)
	require.True(t, ok)

	assert.NotContains(t, doc, "initialization=")
	assert.Contains(t, doc, `startNumber="1"`)
	assert.Contains(t, doc, `media="v0/$Number$.m4s"`)
}

func TestRegistry_CompileIsDeterministic(t *testing.T) {
	r := NewRegistry()
	for _, track := range sampleTracks() {
		r.Insert("sess", track)
	}
	r.AssignSetIDs("sess")

	first, ok := r.Compile("sess", 0)
	require.True(t, ok)
	second, ok := r.Compile("sess", 0)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestRegistry_CompileUnknownSession(t *testing.T) {
	r := NewRegistry()
	doc, ok := r.Compile("nope", 0)
	assert.False(t, ok)
	assert.Empty(t, doc)
}

func TestRegistry_AssignSetIDs(t *testing.T) {
	r := NewRegistry()
	r.Insert("sess", &Track{ID: "a", SetID: 9})
	r.Insert("sess", &Track{ID: "b", SetID: 9})
	r.Insert("sess", &Track{ID: "c", SetID: 9})
	r.AssignSetIDs("sess")

	tracks := r.Tracks("sess")
	require.Len(t, tracks, 3)
	for i, track := range tracks {
		assert.Equal(t, i, track.SetID)
	}
}

func TestRegistry_TracksSnapshotIsolated(t *testing.T) {
	r := NewRegistry()
	r.Insert("sess", &Track{ID: "a", Args: map[string]string{"k": "v"}})

	snap := r.Tracks("sess")
	require.Len(t, snap, 1)
	snap[0].ID = "mutated"
	snap[0].Args["k"] = "mutated"

	again := r.Tracks("sess")
	require.Len(t, again, 1)
	assert.Equal(t, "a", again[0].ID)
	assert.Equal(t, "v", again[0].Args["k"])

	assert.Nil(t, r.Tracks("unknown"))
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "PT"},
		{59, "PT59S"},
		{60, "PT1M"},
		{600, "PT10M"},
		{3600, "PT1H"},
		{3661, "PT1H1M1S"},
		{7322, "PT2H2M2S"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.seconds); got != tc.want {
			t.Errorf("formatSeconds(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
