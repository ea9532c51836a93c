// Package session holds the cockpit's login state.
//
// A session is only a flag plus an identifier persisted under one storage key.
// There is no token, no expiry and no check against either backend.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// StorageKey is the single key the session is persisted under
const StorageKey = "finance_cockpit_auth"

// Storage is a string key/value store scoped to one browser
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// persisted is the stored shape of a session
type persisted struct {
	Email string `json:"email"`
}

// Snapshot is a copy of the session state
type Snapshot struct {
	Authenticated bool
	Identifier    string
}

// Store is the session state of one browser
type Store struct {
	storage Storage

	mu            sync.RWMutex
	authenticated bool
	identifier    string
}

// NewStore creates a logged-out store over storage. Call Init to restore.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Init restores the session from storage.
// Missing or malformed data leaves the store logged out; malformed data is removed.
// Only storage failures are returned.
func (s *Store) Init(ctx context.Context) error {
	raw, ok, err := s.storage.GetItem(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("error reading session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.identifier = ""

	if !ok {
		return nil
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil || strings.TrimSpace(p.Email) == "" {
		// Invalid stored data, clear it
		if err := s.storage.RemoveItem(ctx, StorageKey); err != nil {
			return fmt.Errorf("error clearing session: %w", err)
		}
		return nil
	}

	s.authenticated = true
	s.identifier = p.Email
	return nil
}

// Login marks the store authenticated as identifier and persists it
func (s *Store) Login(ctx context.Context, identifier string) error {
	data, err := json.Marshal(persisted{Email: identifier})
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.identifier = identifier

	if err := s.storage.SetItem(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

// Logout clears the session in memory and in storage
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.identifier = ""

	if err := s.storage.RemoveItem(ctx, StorageKey); err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}
	return nil
}

// Authenticated reports whether the user is logged in
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Identifier returns the logged in identifier, empty when logged out
func (s *Store) Identifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identifier
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Authenticated: s.authenticated, Identifier: s.identifier}
}
