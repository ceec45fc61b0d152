// Package session holds the bearer token used for every API request.
//
// A Session caches the token in memory and writes through to a durable
// Store, so the token survives restarts. Sessions are plain values passed to
// the API client; several may coexist in one process.
package session

import (
	"fmt"
	"sync"
)

// Store persists a single token.
type Store interface {
	// Load returns the stored token, or "" when none is stored.
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session is the process view of the current token.
type Session struct {
	store Store

	mu     sync.RWMutex
	token  string
	loaded bool
}

// New creates a session backed by store.
func New(store Store) *Session {
	return &Session{store: store}
}

// NewMemory creates a session that is never persisted, optionally seeded.
func NewMemory(token string) *Session {
	return New(&MemoryStore{token: token})
}

// Token returns the current token and whether one is set.
// A store read failure is treated as "no token".
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	if s.loaded {
		tok := s.token
		s.mu.RUnlock()
		return tok, tok != ""
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		tok, err := s.store.Load()
		if err != nil {
			tok = ""
		}
		s.token = tok
		s.loaded = true
	}
	return s.token, s.token != ""
}

// SetToken persists token for all subsequent requests.
func (s *Session) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("session.SetToken: %w", err)
	}
	s.token = token
	s.loaded = true
	return nil
}

// ClearToken removes the token. The in-memory copy is dropped even when the
// store fails, so a failed delete never leaves the process signed in.
func (s *Session) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.loaded = true
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("session.ClearToken: %w", err)
	}
	return nil
}

// MemoryStore keeps the token in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// Load implements Store.
func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save implements Store.
func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
