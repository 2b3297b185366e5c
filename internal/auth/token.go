package auth

import (
	"context"
	"errors"

	"github.com/yourname/medtracker/internal"
)

// UserStore resolves pre-provisioned API tokens to users.
type UserStore interface {
	GetUserByToken(ctx context.Context, token string) (*internal.User, error)
}

// TokenAuthProvider validates tokens against users managed in storage,
// for deployments that issue opaque API tokens instead of JWTs.
type TokenAuthProvider struct {
	store  UserStore
	logger internal.Logger
}

func NewTokenAuthProvider(store UserStore, logger internal.Logger) *TokenAuthProvider {
	return &TokenAuthProvider{store: store, logger: logger}
}

func (a *TokenAuthProvider) ValidateTokenLocal(token string) (*internal.User, error) {
	return nil, errors.New("not implemented in TokenAuthProvider")
}

func (a *TokenAuthProvider) ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error) {
	user, err := a.store.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, errors.New("invalid token")
		}
		a.logger.Errorf("token lookup failed: %v", err)
		return nil, err
	}
	return user, nil
}
