package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed structure, expiry. Callers treat them all as "no session".
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials indicates a login attempt that did not match a
	// stored credential. Deliberately does not say which check failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Claims are the verified contents of a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject identity the token was issued for.
func (c *Claims) UserID() string {
	return c.RegisteredClaims.Subject
}

// TokenService issues and verifies signed session tokens. The signing key
// and validity window are fixed at construction; there is no package-level
// key state, so tests can run with distinct keys side by side.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a token service. The secret must be non-empty:
// there is no fallback key.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured validity window.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints an HS256 token for the given subject, valid from now until
// now + ttl.
func (s *TokenService) Issue(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its claims.
// Verification never refreshes or mutates the token; a new token requires a
// new login.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
