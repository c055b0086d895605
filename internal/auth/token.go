package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	app_errors "chatrelay/backend/internal/errors"
)

// TokenManager issues and verifies signed access tokens. The signing secret
// and algorithm are fixed at construction and immutable for process lifetime.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenManager creates a manager for the given HMAC algorithm ("HS256",
// "HS384" or "HS512") and token lifetime.
func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q, expected an HMAC method", algorithm)
	}
	if secret == "" {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}
	return &TokenManager{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Issue returns a signed token whose subject is the user ID.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// Verify parses a token and returns its subject. Expired, malformed, or
// wrongly signed tokens fail with ErrAuth.
func (m *TokenManager) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid or expired token", app_errors.ErrAuth)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token payload", app_errors.ErrAuth)
	}
	return claims.Subject, nil
}
