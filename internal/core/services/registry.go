package services

import (
	"sync"

	"bgclub-bot/internal/core/domain"
)

// SessionRegistry is the process-wide map from chat identifier to session.
// Sessions are created lazily on the first inbound message, cleared by the
// reset command and never persisted.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*domain.Session)}
}

// Resolve returns the session for a chat identifier, synthesizing one
// around a placeholder member when the identifier is new.
func (r *SessionRegistry) Resolve(uuid string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[uuid]; ok {
		return session
	}
	session := domain.NewSession(domain.NewPlaceholderMember(uuid))
	r.sessions[uuid] = session
	return session
}

// Clear drops the session; the next message synthesizes a fresh one.
func (r *SessionRegistry) Clear(uuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, uuid)
}

// Size returns the number of live sessions, for the health endpoint.
func (r *SessionRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
