package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
)

// ErrSessionNotFound is returned for unknown or closed session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Session is one open editor. Tool calls on a session hold its lock, so
// history mutations are applied one at a time and in arrival order.
type Session struct {
	ID       string    `json:"session_id"`
	Origin   string    `json:"origin"`
	OpenedAt time.Time `json:"opened_at"`

	mu     sync.Mutex
	editor *editor.Editor
}

// Do runs fn with the session locked.
func (s *Session) Do(fn func(ed *editor.Editor) (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

// Sessions is a registry of open sessions keyed by ULID.
type Sessions struct {
	mu    sync.RWMutex
	items map[string]*Session
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{items: make(map[string]*Session)}
}

// Open registers ed and returns its session.
func (r *Sessions) Open(ed *editor.Editor, origin string) *Session {
	s := &Session{
		ID:       ulid.Make().String(),
		Origin:   origin,
		OpenedAt: time.Now().UTC(),
		editor:   ed,
	}
	r.mu.Lock()
	r.items[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close removes the session with the given ID.
func (r *Sessions) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	delete(r.items, id)
	return nil
}

// CloseAll removes every session.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	r.items = make(map[string]*Session)
	r.mu.Unlock()
}

// List returns the open sessions, oldest first. ULIDs sort by creation time.
func (r *Sessions) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
