package session

import (
	"sync"
	"time"

	"github.com/yourname/medtracker/internal"
)

// State is the lifecycle position of a Session:
// anonymous -> authenticating -> authenticated -> expired.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// Session carries the caller's resolved identity through ledger operations.
// It replaces ambient global auth state: whoever needs the user gets it from
// the session they were handed, or an Unauthenticated error.
type Session struct {
	mu       sync.RWMutex
	state    State
	user     *internal.User
	issuedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

func New(ttl time.Duration) *Session {
	return &Session{state: StateAnonymous, ttl: ttl, now: time.Now}
}

// Begin moves the session into the authenticating state while a token is
// being validated.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticating
	s.user = nil
}

// Authenticate records a validated user and stamps the issue time.
func (s *Session) Authenticate(u *internal.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.user = u
	s.issuedAt = s.now()
}

// Expire forces the session into the expired state.
func (s *Session) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateExpired
	s.user = nil
}

// State reports the current lifecycle state, applying the TTL lazily.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkTTL()
	return s.state
}

// User returns the authenticated user, or ErrUnauthenticated in any other
// lifecycle state.
func (s *Session) User() (*internal.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkTTL()
	if s.state != StateAuthenticated || s.user == nil {
		return nil, internal.ErrUnauthenticated
	}
	return s.user, nil
}

// checkTTL demotes an authenticated session past its TTL. Caller holds mu.
func (s *Session) checkTTL() {
	if s.state == StateAuthenticated && s.ttl > 0 && s.now().Sub(s.issuedAt) > s.ttl {
		s.state = StateExpired
		s.user = nil
	}
}

// SetClock overrides the session's time source. Tests only.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
