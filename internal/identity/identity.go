// Package identity tracks which user, if any, a gamification session acts for.
package identity

import "sync"

// Provider exposes the current user and notifies listeners when it changes.
type Provider interface {
	CurrentUserID() (int64, bool)
	OnChange(fn func(userID int64, signedIn bool)) (unsubscribe func())
}

// Session is an in-process Provider. Listeners are invoked synchronously, in
// subscription order, only when the identity actually changes.
type Session struct {
	mu        sync.Mutex
	userID    int64
	signedIn  bool
	nextID    int
	listeners map[int]func(int64, bool)
	order     []int
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]func(int64, bool))}
}

// NewSignedIn returns a session already bound to userID.
func NewSignedIn(userID int64) *Session {
	s := NewSession()
	s.userID = userID
	s.signedIn = true
	return s
}

func (s *Session) CurrentUserID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.signedIn
}

func (s *Session) OnChange(fn func(userID int64, signedIn bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) SignIn(userID int64) {
	s.set(userID, true)
}

func (s *Session) SignOut() {
	s.set(0, false)
}

func (s *Session) set(userID int64, signedIn bool) {
	s.mu.Lock()
	if s.signedIn == signedIn && s.userID == userID {
		s.mu.Unlock()
		return
	}
	s.userID = userID
	s.signedIn = signedIn

	var fns []func(int64, bool)
	for _, id := range s.order {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(userID, signedIn)
	}
}
