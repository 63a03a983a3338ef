package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken     = errors.New("no session token")
	ErrOpaqueToken = errors.New("token is not a JWT")
)

// Claims is the subset of a token's registered claims worth showing to the
// user. The signature is not checked: the server is the only judge of a
// token's validity, and the client never rejects a token on its own.
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn is the time left until ExpiresAt, or 0 when the token carries
// no expiry.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// ParseClaims decodes the registered claims of a JWT without verifying it.
func ParseClaims(token string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpaqueToken, err)
	}

	c := &Claims{Subject: rc.Subject, Issuer: rc.Issuer}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// TokenClaims decodes the stored token's claims.
func (s *Store) TokenClaims(ctx context.Context) (*Claims, error) {
	token, ok := s.GetToken(ctx)
	if !ok {
		return nil, ErrNoToken
	}
	return ParseClaims(token)
}
