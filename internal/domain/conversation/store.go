package conversation

import (
	"context"
	"sync"
)

// DefaultWindow bounds a transcript to the most recent turns. Oldest turns
// are dropped first; eviction is not content-aware, so structured data that
// only ever appeared in evicted turns can be lost.
const DefaultWindow = 24

// Store persists session transcripts.
type Store interface {
	// Append adds a turn to the session, creating the session if absent,
	// and trims the transcript to the window before returning.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// Get returns the transcript, or an empty slice for unknown sessions.
	Get(ctx context.Context, sessionID string) ([]Turn, error)

	// Clear removes the session entirely. Clearing an unknown session is
	// a no-op.
	Clear(ctx context.Context, sessionID string) error

	// Len reports the current transcript length.
	Len(ctx context.Context, sessionID string) (int, error)
}

// MemoryStore is the process-memory Store. Sessions live until cleared or
// the process exits; there is no TTL and no persistence across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	window   int
	sessions map[string][]Turn
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds a store bounded to window turns per session.
// A non-positive window falls back to DefaultWindow.
func NewMemoryStore(window int) *MemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryStore{
		window:   window,
		sessions: make(map[string][]Turn),
	}
}

// Append adds a turn and trims in the same critical section, so concurrent
// appends never observe an over-length transcript.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript := append(s.sessions[sessionID], turn)
	if excess := len(transcript) - s.window; excess > 0 {
		transcript = transcript[excess:]
	}
	s.sessions[sessionID] = transcript
	return nil
}

// Get copies the transcript out so callers never alias internal state.
func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcript := s.sessions[sessionID]
	out := make([]Turn, len(transcript))
	copy(out, transcript)
	return out, nil
}

// Clear removes the session. Idempotent.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Len reports the transcript length for the session.
func (s *MemoryStore) Len(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions[sessionID]), nil
}

// Window returns the configured transcript bound.
func (s *MemoryStore) Window() int {
	return s.window
}

// KeyedMutex serializes work per session identifier. Two in-flight turns for
// one session must never interleave: transcript order would be undefined.
//
// Entries are never removed: sessions are process-scoped, and deleting an
// entry while another goroutine holds its mutex would let a later Lock mint
// a second mutex for the same session.
type KeyedMutex struct {
	locks sync.Map // session id -> *sync.Mutex
}

// Lock acquires the session's mutex and returns its unlock function.
func (m *KeyedMutex) Lock(sessionID string) func() {
	entry, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := entry.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
