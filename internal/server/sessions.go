package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingSession tracks an authentication attempt between the send-code
// and verify-code steps.
type PendingSession struct {
	Phone     string
	CreatedAt time.Time
}

// Sessions holds pending auth sessions and issued bearer tokens in
// memory. Tokens map to the session id whose messaging session backs
// them.
type Sessions struct {
	mu      sync.RWMutex
	pending map[string]PendingSession
	tokens  map[string]string // token -> session id
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{
		pending: make(map[string]PendingSession),
		tokens:  make(map[string]string),
	}
}

// CreatePending opens a pending session for phone and returns its id.
func (s *Sessions) CreatePending(phone string) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.pending[id] = PendingSession{Phone: phone, CreatedAt: time.Now()}
	s.mu.Unlock()
	return id
}

// GetPending returns the pending session for id, if any.
func (s *Sessions) GetPending(id string) (PendingSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending[id]
	return p, ok
}

// DeletePending removes a pending session once the flow completes or is
// abandoned.
func (s *Sessions) DeletePending(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// IssueToken mints a bearer token bound to the given session id.
func (s *Sessions) IssueToken(sessionID string) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = sessionID
	s.mu.Unlock()
	return token
}

// SessionForToken resolves a bearer token to its session id.
func (s *Sessions) SessionForToken(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok
}

// RevokeToken discards a token.
func (s *Sessions) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
