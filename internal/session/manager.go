// Package session maps workout session IDs to independently owned rep
// counters. Each session is single-writer: its mutex serializes callers, but
// delivering frames in order is the transport's job.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/claude/pullupcoach/internal/counter"
	"github.com/claude/pullupcoach/internal/pose"
	"github.com/google/uuid"
)

// Session owns the counting state for one tracked workout.
type Session struct {
	ID string

	mu       sync.Mutex
	counter  *counter.Counter
	repTimes []time.Time
}

// FrameResult is what one processed frame reports back to the caller.
type FrameResult struct {
	Count     int
	Position  counter.Position
	Direction counter.Direction
	Frame     int
}

// Snapshot is a point-in-time copy of a session's visible state.
type Snapshot struct {
	ID        string            `json:"id"`
	Count     int               `json:"count"`
	Position  counter.Position  `json:"position"`
	Direction counter.Direction `json:"direction"`
	Frames    int               `json:"frame_count"`
}

func newSession(id string, cfg counter.Config) *Session {
	return &Session{ID: id, counter: counter.New(cfg)}
}

// ProcessFrame feeds one frame's keypoints through the counter. kps may be
// nil when no person was detected; the frame counter still advances, the
// counting state does not.
func (s *Session) ProcessFrame(kps []pose.Keypoint, now time.Time) FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := s.counter.RecordFrame()
	before := s.counter.Count()
	count, position := s.counter.Process(kps, now)
	if count > before {
		s.repTimes = append(s.repTimes, now)
	}
	return FrameResult{
		Count:     count,
		Position:  position,
		Direction: s.counter.Direction(),
		Frame:     frame,
	}
}

// Reset restores the session's counter to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter.Reset()
	s.repTimes = nil
}

// Snapshot returns the session's current visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.ID,
		Count:     s.counter.Count(),
		Position:  s.counter.Position(),
		Direction: s.counter.Direction(),
		Frames:    s.counter.Frames(),
	}
}

// Manager owns all live sessions. Sessions are created on first use and
// destroyed explicitly; there is no shared mutable state between them, so
// distinct sessions may be processed in parallel.
type Manager struct {
	mu       sync.Mutex
	cfg      counter.Config
	sessions map[string]*Session
}

// NewManager creates an empty manager whose sessions use cfg.
func NewManager(cfg counter.Config) *Manager {
	return &Manager{cfg: cfg, sessions: make(map[string]*Session)}
}

// Create registers a new session under a fresh ID.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	s := newSession(id, m.cfg)
	m.sessions[id] = s
	return s
}

// GetOrCreate returns the session for id, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := newSession(id, m.cfg)
	m.sessions[id] = s
	return s
}

// Get returns the session for id, if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove destroys the session for id. Returns false when it did not exist.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// List returns all live session IDs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
