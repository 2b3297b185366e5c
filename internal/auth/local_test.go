package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/medtracker/internal"
)

func TestLocalProviderRoundTrip(t *testing.T) {
	provider := NewLocalAuthProvider("test-secret", internal.NopLogger{})

	token, err := SignToken("test-secret", &internal.User{ID: "u1", Name: "Pat", Role: "patient"})
	assert.NoError(t, err)

	u, err := provider.ValidateTokenLocal(token)
	assert.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Pat", u.Name)
	assert.Equal(t, "patient", u.Role)
}

func TestLocalProviderRejectsBadTokens(t *testing.T) {
	provider := NewLocalAuthProvider("test-secret", internal.NopLogger{})

	_, err := provider.ValidateTokenLocal("not-a-jwt")
	assert.Error(t, err)

	forged, err := SignToken("other-secret", &internal.User{ID: "u1"})
	assert.NoError(t, err)
	_, err = provider.ValidateTokenLocal(forged)
	assert.Error(t, err)

	anonymous, err := SignToken("test-secret", &internal.User{})
	assert.NoError(t, err)
	_, err = provider.ValidateTokenLocal(anonymous)
	assert.Error(t, err, "token without a subject must be rejected")
}
