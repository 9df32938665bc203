package chat

import "sync"

// Store is an in-memory registry of live sessions keyed by ID. Sessions are
// not persisted across process restarts.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers and returns a new empty session.
func (st *Store) Create() *Session {
	s := NewSession()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given ID, if it exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session from the registry.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
