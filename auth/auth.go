// Package auth tracks whether the client holds an authenticated session.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyUserID is returned when Authenticate is called without a user.
var ErrEmptyUserID = errors.New("user ID must not be empty")

// Session describes the current authenticated session.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// State is the client's authentication state. The zero value is unauthenticated.
type State struct {
	mu      sync.RWMutex
	session *Session
}

// NewState returns an unauthenticated State.
func NewState() *State {
	return &State{}
}

// Authenticate starts a new session for userID, replacing any existing one.
func (s *State) Authenticate(userID string) (Session, error) {
	if userID == "" {
		return Session{}, ErrEmptyUserID
	}
	sess := Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		AuthenticatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()
	return sess, nil
}

// End terminates the current session. Ending with no session is a no-op.
func (s *State) End() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

// IsAuthenticated reports whether a session is active.
func (s *State) IsAuthenticated(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil, nil
}

// Current returns the active session, if any.
func (s *State) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}
