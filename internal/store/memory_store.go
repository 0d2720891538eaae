package store

import (
	"sync"

	"github.com/bigm-o/Flash-mind/pkg/domain"
)

// MemoryStore keeps session state in-process. It is the default for a
// single-replica deployment.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionState
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.SessionState)}
}

// Create stores a new session.
func (m *MemoryStore) Create(state domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[state.ID]; exists {
		return ErrSessionExists
	}
	m.sessions[state.ID] = state
	return nil
}

// Get retrieves a session by id.
func (m *MemoryStore) Get(id string) (domain.SessionState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	return state, ok, nil
}

// Save replaces the stored state for a session.
func (m *MemoryStore) Save(state domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.ID] = state
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
