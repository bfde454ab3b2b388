package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("user-42")
	require.NoError(t, err)

	// Verification is idempotent for a valid token.
	for i := 0; i < 3; i++ {
		subject, err := svc.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "user-42", subject)
	}

	require.Equal(t, "user-42", svc.SubjectOf(token))
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("user-42", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Empty(t, svc.SubjectOf(token))
}

func TestTokenServiceRejectsTamperedSignature(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	other := NewTokenService("different-secret", time.Hour)

	token, err := other.Issue("user-42")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRejectsMalformedToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	_, err := svc.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRejectsForeignSigningMethod(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	// alg=none tokens must never pass the pinned HMAC check.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
