package gamification

import (
	"context"
	"fmt"
	"log"

	"github.com/shortcut-sensei/backend/internal/identity"
	"github.com/shortcut-sensei/backend/internal/storage"
)

// Storage keys for engine documents.
const (
	KeyProgress = "progress"
	KeyStreak   = "streak"
	KeyBadges   = "badges"
)

// Store persists one engine document. It writes to the user's scope while
// someone is signed in and to the device scope otherwise.
//
// A failed Load marks the store stale. Saves are skipped until a later Load
// succeeds, so defaults never replace a document that could not be read.
type Store struct {
	gw    storage.Gateway
	ident identity.Provider
	key   string
	stale bool
}

func NewStore(gw storage.Gateway, ident identity.Provider, key string) *Store {
	return &Store{gw: gw, ident: ident, key: key}
}

func (s *Store) scope() storage.Scope {
	if s.ident != nil {
		if _, ok := s.ident.CurrentUserID(); ok {
			return storage.ScopeUser
		}
	}
	return storage.ScopeDevice
}

// Load decodes the stored document into v and reports whether one existed.
func (s *Store) Load(ctx context.Context, v any) (bool, error) {
	if s == nil || s.gw == nil {
		return false, nil
	}
	found, err := storage.GetJSON(ctx, s.gw, s.scope(), s.key, v)
	if err != nil {
		s.stale = true
		return false, fmt.Errorf("load %s: %w", s.key, err)
	}
	s.stale = false
	return found, nil
}

// Stale reports whether the last Load failed.
func (s *Store) Stale() bool {
	return s != nil && s.stale
}

// forget clears the stale mark when the engine drops its state.
func (s *Store) forget() {
	if s != nil {
		s.stale = false
	}
}

// Save writes v. Failures are logged and otherwise ignored; in-memory state
// stays authoritative for the session.
func (s *Store) Save(ctx context.Context, v any) {
	if s == nil || s.gw == nil {
		return
	}
	if s.stale {
		log.Printf("[gamification] skipping save of %s: document was not loaded", s.key)
		return
	}
	if err := storage.SetJSON(ctx, s.gw, s.scope(), s.key, v); err != nil {
		log.Printf("[gamification] failed to persist %s: %v", s.key, err)
	}
}
