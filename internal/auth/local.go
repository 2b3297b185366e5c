package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourname/medtracker/internal"
)

// LocalAuthProvider validates HS256-signed tokens against a shared secret.
type LocalAuthProvider struct {
	secret []byte
	logger internal.Logger
}

func NewLocalAuthProvider(secret string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{secret: []byte(secret), logger: logger}
}

type userClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *LocalAuthProvider) ValidateTokenLocal(token string) (*internal.User, error) {
	claims := &userClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		a.logger.Warnf("invalid token: %v", err)
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &internal.User{ID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}

func (a *LocalAuthProvider) ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error) {
	a.logger.Warnf("ValidateTokenRemote not implemented in LocalAuthProvider")
	return nil, errors.New("not implemented in LocalAuthProvider")
}

// SignToken mints a token for the given user. Used by tests and local dev.
func SignToken(secret string, u *internal.User) (string, error) {
	claims := &userClaims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: u.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
