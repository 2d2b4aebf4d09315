package stream

import "sync"

// Registry holds the ordered track list of every live session. Inserts
// are append-only; order is the compilation order.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string][]*Track
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string][]*Track)}
}

// Insert appends a track to the session, creating the session on first
// use. The registry keeps its own copy.
func (r *Registry) Insert(session string, t *Track) {
	cp := copyTrack(t)
	r.mu.Lock()
	r.sessions[session] = append(r.sessions[session], cp)
	r.mu.Unlock()
}

// AssignSetIDs rewrites the set ids of the session's tracks to a dense
// 0..n sequence in insertion order.
func (r *Registry) AssignSetIDs(session string) {
	r.mu.Lock()
	for i, t := range r.sessions[session] {
		t.SetID = i
	}
	r.mu.Unlock()
}

// Tracks returns a snapshot of the session's tracks, in order. An
// unknown session yields nil.
func (r *Registry) Tracks(session string) []Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracks := r.sessions[session]
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = *copyTrack(t)
	}
	return out
}

// Remove drops the session entry. The caller is responsible for having
// killed the session's transcoder work first.
func (r *Registry) Remove(session string) {
	r.mu.Lock()
	delete(r.sessions, session)
	r.mu.Unlock()
}

// Compile renders the session's manifest with segment numbering
// starting at start. It reports false for an unknown session.
func (r *Registry) Compile(session string, start int) (string, bool) {
	r.mu.RLock()
	tracks, ok := r.sessions[session]
	if !ok {
		r.mu.RUnlock()
		return "", false
	}
	doc := buildMPD(tracks, start)
	r.mu.RUnlock()

	return doc, true
}

func copyTrack(t *Track) *Track {
	cp := *t
	if t.Args != nil {
		cp.Args = make(map[string]string, len(t.Args))
		for k, v := range t.Args {
			cp.Args[k] = v
		}
	}
	return &cp
}
