package weddingplanner

import "sync"

// Scope selects where a session value lives. Local values outlive the
// browsing session; session values do not.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeSession
)

// Session storage keys shared with the web app.
const (
	KeyToken        = "token"
	KeyUserRole     = "userRole"
	KeyPaymentTxRef = "payment_tx_ref"
	KeyPaymentID    = "payment_id"
)

// SessionStore is client-side key/value storage.
type SessionStore interface {
	Get(scope Scope, key string) (string, bool)
	Set(scope Scope, key, value string)
	Remove(scope Scope, key string)
}

// MemorySessionStore keeps both scopes in memory. It is safe for
// concurrent use.
type MemorySessionStore struct {
	mu     sync.RWMutex
	scopes map[Scope]map[string]string
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{scopes: map[Scope]map[string]string{
		ScopeLocal:   {},
		ScopeSession: {},
	}}
}

func (s *MemorySessionStore) Get(scope Scope, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scopes[scope][key]
	return v, ok
}

func (s *MemorySessionStore) Set(scope Scope, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.scopes[scope]
	if !ok {
		m = map[string]string{}
		s.scopes[scope] = m
	}
	m[key] = value
}

func (s *MemorySessionStore) Remove(scope Scope, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes[scope], key)
}

// ClearSession drops every session-scoped value, as closing the browser would.
func (s *MemorySessionStore) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[ScopeSession] = map[string]string{}
}

// lookupToken returns the auth token, preferring local scope.
func lookupToken(store SessionStore) string {
	for _, scope := range []Scope{ScopeLocal, ScopeSession} {
		if t, ok := store.Get(scope, KeyToken); ok && t != "" {
			return t
		}
	}
	return ""
}
