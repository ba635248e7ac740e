package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

// SessionStateStore keeps the per-session detector state: the series ids
// already proposed for extension and the proposals waiting to be shown.
// State must be dropped with Clear when the session ends.
type SessionStateStore interface {
	Notified(ctx context.Context, sessionID string) ([]string, error)
	// MarkNotified records seriesID and reports whether it was not yet
	// recorded. Implementations must make this atomic per session.
	MarkNotified(ctx context.Context, sessionID, seriesID string) (bool, error)
	// PushProposal stores the proposal only while its series is still marked
	// notified, so a delivery that lands after Clear is dropped. It reports
	// whether the proposal was stored.
	PushProposal(ctx context.Context, sessionID string, proposal models.ExtensionProposal) (bool, error)
	Proposals(ctx context.Context, sessionID string) ([]models.ExtensionProposal, error)
	Clear(ctx context.Context, sessionID string) error
}

type memorySession struct {
	notified  map[string]struct{}
	proposals []models.ExtensionProposal
	touched   time.Time
}

// MemorySessionStore is a process-local SessionStateStore. Sessions idle
// for longer than ttl are dropped lazily.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	clock    Clock
}

// NewMemorySessionStore constructs an in-memory session store.
func NewMemorySessionStore(ttl time.Duration, clock Clock) *MemorySessionStore {
	if clock == nil {
		clock = defaultClock
	}
	return &MemorySessionStore{sessions: make(map[string]*memorySession), ttl: ttl, clock: clock}
}

func (m *MemorySessionStore) session(sessionID string) *memorySession {
	now := m.clock()
	m.evictLocked(now)
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &memorySession{notified: make(map[string]struct{})}
		m.sessions[sessionID] = s
	}
	s.touched = now
	return s
}

func (m *MemorySessionStore) evictLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, s := range m.sessions {
		if now.Sub(s.touched) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

// Notified implements SessionStateStore.
func (m *MemorySessionStore) Notified(_ context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	ids := make([]string, 0, len(s.notified))
	for id := range s.notified {
		ids = append(ids, id)
	}
	return ids, nil
}

// MarkNotified implements SessionStateStore.
func (m *MemorySessionStore) MarkNotified(_ context.Context, sessionID, seriesID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	if _, ok := s.notified[seriesID]; ok {
		return false, nil
	}
	s.notified[seriesID] = struct{}{}
	return true, nil
}

// PushProposal implements SessionStateStore.
func (m *MemorySessionStore) PushProposal(_ context.Context, sessionID string, proposal models.ExtensionProposal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if _, marked := s.notified[proposal.Series.ID]; !marked {
		return false, nil
	}
	s.touched = m.clock()
	s.proposals = append(s.proposals, proposal)
	return true, nil
}

// Proposals implements SessionStateStore.
func (m *MemorySessionStore) Proposals(_ context.Context, sessionID string) ([]models.ExtensionProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	return append([]models.ExtensionProposal{}, s.proposals...), nil
}

// Clear implements SessionStateStore.
func (m *MemorySessionStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
