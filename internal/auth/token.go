package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Claims is the subset of the API's session token claims the client reads.
// The API has issued tokens with the user id under "userId", "id" or "sub";
// UserID resolves whichever is present.
type Claims struct {
	UserIDClaim string `json:"userId,omitempty"`
	IDClaim     string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the user id carried by the token.
func (c *Claims) UserID() string {
	switch {
	case c.UserIDClaim != "":
		return c.UserIDClaim
	case c.IDClaim != "":
		return c.IDClaim
	default:
		return c.Subject
	}
}

// Expired reports whether the token carries an expiry at or before now.
// Tokens without "exp" never expire client-side.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// TokenInspector reads session token claims without verifying the signature.
// The signing key lives on the server; the client only needs to know who the
// token is for and when it stops being useful.
type TokenInspector struct {
	parser *jwt.Parser
}

// NewTokenInspector creates a TokenInspector.
func NewTokenInspector() *TokenInspector {
	return &TokenInspector{parser: jwt.NewParser()}
}

// Inspect decodes the claims of tokenString.
// Returns ErrMissingToken for an empty string and wraps ErrInvalidToken when
// the string is not a JWT.
func (i *TokenInspector) Inspect(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
