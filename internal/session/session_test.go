package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/medtracker/internal"
)

func TestSessionLifecycle(t *testing.T) {
	s := New(time.Hour)
	assert.Equal(t, StateAnonymous, s.State())

	_, err := s.User()
	assert.ErrorIs(t, err, internal.ErrUnauthenticated)

	s.Begin()
	assert.Equal(t, StateAuthenticating, s.State())
	_, err = s.User()
	assert.ErrorIs(t, err, internal.ErrUnauthenticated)

	s.Authenticate(&internal.User{ID: "u1", Name: "Pat"})
	assert.Equal(t, StateAuthenticated, s.State())
	u, err := s.User()
	assert.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	s.Expire()
	assert.Equal(t, StateExpired, s.State())
	_, err = s.User()
	assert.ErrorIs(t, err, internal.ErrUnauthenticated)
}

func TestSessionTTLExpiry(t *testing.T) {
	now := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	s := New(time.Hour)
	s.SetClock(func() time.Time { return now })

	s.Begin()
	s.Authenticate(&internal.User{ID: "u1"})

	_, err := s.User()
	assert.NoError(t, err)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, StateExpired, s.State())
	_, err = s.User()
	assert.ErrorIs(t, err, internal.ErrUnauthenticated)
}

func TestSessionZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	s := New(0)
	s.SetClock(func() time.Time { return now })

	s.Begin()
	s.Authenticate(&internal.User{ID: "u1"})
	now = now.AddDate(1, 0, 0)

	_, err := s.User()
	assert.NoError(t, err)
}
