package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
// Malformed, badly signed, and expired tokens all collapse to this one
// value so callers cannot distinguish the failure cause.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies HMAC-signed bearer tokens. Tokens are
// stateless: validity is solely the signature and expiry check, and logout
// performs no server-side invalidation.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
}

// NewTokenService constructs the token service with the signing secret and
// default token lifetime.
func NewTokenService(secret string, defaultTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
	}
}

// Issue mints a signed token carrying the subject and an absolute expiry.
// An optional ttl overrides the configured default for this call only.
func (s *TokenService) Issue(subject string, ttl ...time.Duration) (string, error) {
	lifetime := s.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		lifetime = ttl[0]
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of the token and returns the
// subject claim. The signing method is pinned to HMAC before the key is
// released, rejecting tokens signed with any other algorithm.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}

// SubjectOf returns the verified subject of the token, or an empty string
// when the token is not valid.
func (s *TokenService) SubjectOf(tokenString string) string {
	subject, err := s.Verify(tokenString)
	if err != nil {
		return ""
	}
	return subject
}
