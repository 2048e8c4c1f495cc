package web

import (
	"sync"

	"github.com/google/uuid"

	"github.com/retouchlab/retouch"
)

// SessionStore holds per-browser sessions in memory, keyed by UUID.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*retouch.Session
	factory  func() *retouch.Session
}

// NewSessionStore creates a store producing sessions via factory.
func NewSessionStore(factory func() *retouch.Session) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*retouch.Session),
		factory:  factory,
	}
}

// Create makes a fresh session and returns its id.
func (st *SessionStore) Create() (string, *retouch.Session) {
	id := uuid.NewString()
	session := st.factory()

	st.mu.Lock()
	st.sessions[id] = session
	st.mu.Unlock()

	return id, session
}

// Get returns the session for id, if any.
func (st *SessionStore) Get(id string) (*retouch.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	return session, ok
}
