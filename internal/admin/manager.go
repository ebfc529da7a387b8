package admin

import "sync"

// Manager tracks one editing session per authenticated admin session,
// so staged edits persist across requests until logout.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*EditingSession
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*EditingSession)}
}

// Get returns the editing session for an auth session ID, or nil.
func (m *Manager) Get(id string) *EditingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Put registers an editing session under an auth session ID.
func (m *Manager) Put(id string, s *EditingSession) {
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
}

// Drop discards the editing session (and its staged edits) for an auth
// session ID.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
