// Package session holds the authenticated identity of a caller. The identity
// is persisted as one JSON entry in a key-value store so it survives restarts
// and is shared between server instances.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"cleantrack/backend/internal/models"

	"github.com/google/uuid"
)

// Store is the key-value string store sessions are persisted in.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrNoSession is returned by Manager.Load when the session is gone.
var ErrNoSession = errors.New("session not found or expired")

// Key is the store key of a session id.
func Key(sid string) string {
	return "session:" + sid
}

// Session is the injectable session context. It starts anonymous unless
// restored from the store; Login and Logout are the only mutators.
type Session struct {
	store    Store
	ttl      time.Duration
	id       string
	identity *models.Identity
}

// New returns an anonymous session bound to sid.
func New(store Store, sid string, ttl time.Duration) *Session {
	return &Session{store: store, ttl: ttl, id: sid}
}

func (s *Session) ID() string { return s.id }

// Identity returns the current identity, or nil when anonymous.
func (s *Session) Identity() *models.Identity {
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Session) Authenticated() bool { return s.identity != nil }

// Restore loads the persisted identity. A missing entry leaves the session
// anonymous; a corrupt one is dropped.
func (s *Session) Restore(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, Key(s.id))
	if err != nil {
		return err
	}
	if !ok {
		s.identity = nil
		return nil
	}

	var id models.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		log.Printf("WARNING: Dropping unreadable session %s: %v", s.id, err)
		s.identity = nil
		return s.store.Delete(ctx, Key(s.id))
	}
	s.identity = &id
	return nil
}

// Login persists the identity and makes it current.
func (s *Session) Login(ctx context.Context, id models.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, Key(s.id), string(raw), s.ttl); err != nil {
		return err
	}
	s.identity = &id
	return nil
}

// Logout clears the identity and its persisted entry.
func (s *Session) Logout(ctx context.Context) error {
	s.identity = nil
	return s.store.Delete(ctx, Key(s.id))
}

// Manager creates and loads sessions against one store.
type Manager struct {
	Store Store
	TTL   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{Store: store, TTL: ttl}
}

// Start opens a new session for the identity.
func (m *Manager) Start(ctx context.Context, id models.Identity) (*Session, error) {
	s := New(m.Store, uuid.New().String(), m.TTL)
	if err := s.Login(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

// Load restores a session by id. ErrNoSession means it expired or was logged out.
func (m *Manager) Load(ctx context.Context, sid string) (*Session, error) {
	s := New(m.Store, sid, m.TTL)
	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, ErrNoSession
	}
	return s, nil
}

// Refresh rewrites the stored identity of a live session, e.g. after a
// profile change.
func (m *Manager) Refresh(ctx context.Context, sid string, id models.Identity) error {
	s := New(m.Store, sid, m.TTL)
	return s.Login(ctx, id)
}
