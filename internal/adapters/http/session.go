package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/core/usecases"
	"github.com/kpetrou/villago/internal/pkg/metrics"
)

// HeaderSessionID carries the journey-session identity between requests.
const HeaderSessionID = "X-Session-ID"

// SessionManager owns the in-memory journey sessions. Sessions are created
// lazily on first use and evicted after sitting idle past the TTL.
type SessionManager struct {
	planner ports.RoutePlanner
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*usecases.JourneySession

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSessionManager creates a manager and starts its eviction sweeper.
func NewSessionManager(planner ports.RoutePlanner, idleTTL time.Duration) *SessionManager {
	m := &SessionManager{
		planner:  planner,
		idleTTL:  idleTTL,
		sessions: make(map[string]*usecases.JourneySession),
		stop:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// GetOrCreate returns the session for id, creating a fresh one (with a new
// id) when id is empty or unknown.
func (m *SessionManager) GetOrCreate(id string) (string, *usecases.JourneySession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return id, s
		}
	}

	id = uuid.NewString()
	s := usecases.NewJourneySession(m.planner)
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return id, s
}

// Get returns an existing session, without creating one.
func (m *SessionManager) Get(id string) (*usecases.JourneySession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the sweeper and waits for in-flight fetches to settle.
func (m *SessionManager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	all := make([]*usecases.JourneySession, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Wait()
	}
}

func (m *SessionManager) sweep() {
	interval := m.idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stop:
			return
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
		slog.Debug("evicted idle sessions", "count", evicted, "remaining", len(m.sessions))
	}
}
