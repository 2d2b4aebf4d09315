package stream

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Tracker binds session identities to their manifests and knows how to
// address the transcoder when a session is torn down. It never spawns
// transcoding work; dropping a session without killing it first leaks
// transcoder sessions.
type Tracker struct {
	registry   *Registry
	transcoder Transcoder
	logger     *slog.Logger
}

// NewTracker creates a tracker around the given transcoder capability.
func NewTracker(tc Transcoder, logger *slog.Logger) *Tracker {
	return &Tracker{
		registry:   NewRegistry(),
		transcoder: tc,
		logger:     logger.With("component", "stream"),
	}
}

// NewSession mints a fresh session id.
func (t *Tracker) NewSession() string {
	return uuid.NewString()
}

// Insert appends a track to the session's manifest.
func (t *Tracker) Insert(session string, track *Track) {
	t.registry.Insert(session, track)
}

// AssignSetIDs renumbers the session's adaptation sets densely.
func (t *Tracker) AssignSetIDs(session string) {
	t.registry.AssignSetIDs(session)
}

// Tracks returns a snapshot of the session's tracks.
func (t *Tracker) Tracks(session string) []Track {
	return t.registry.Tracks(session)
}

// Compile renders the session's manifest. It reports false for an
// unknown session.
func (t *Tracker) Compile(session string, start int) (string, bool) {
	return t.registry.Compile(session, start)
}

// Kill tears down the named tracks of a session. Every id is forwarded
// even when an earlier one fails; failures are joined.
func (t *Tracker) Kill(ctx context.Context, session string, trackIDs []string, ignoreGC bool) error {
	var errs []error
	for _, id := range trackIDs {
		if err := t.die(ctx, id, ignoreGC); err != nil {
			t.logger.Warn("transcoder kill failed", "session", session, "track_id", id, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KillAll tears down every track of the session and drops its registry
// entry. The entry is kept when any kill fails so a retry can still
// address the tracks.
func (t *Tracker) KillAll(ctx context.Context, session string, ignoreGC bool) error {
	var ids []string
	for _, track := range t.registry.Tracks(session) {
		ids = append(ids, track.ID)
	}
	if err := t.Kill(ctx, session, ids, ignoreGC); err != nil {
		return err
	}
	t.registry.Remove(session)
	return nil
}

func (t *Tracker) die(ctx context.Context, id string, ignoreGC bool) error {
	if ignoreGC {
		return t.transcoder.DieIgnoreGC(ctx, id)
	}
	return t.transcoder.Die(ctx, id)
}
