package lastfm

import "sync"

// SessionStore persists the encoded current session between runs.
// Implementations should keep the bytes somewhere only the user can read.
type SessionStore interface {
	// Save replaces the stored session.
	Save(data []byte) error

	// Load returns the stored session, or ErrNoStoredSession.
	Load() ([]byte, error)

	// Delete removes the stored session. Deleting nothing is not an error.
	Delete() error
}

// MemoryStore is a SessionStore that keeps the session in memory only.
// It is the default store when Config.Store is nil.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// Save implements SessionStore.
func (m *MemoryStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

// Load implements SessionStore.
func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoStoredSession
	}
	return append([]byte(nil), m.data...), nil
}

// Delete implements SessionStore.
func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
