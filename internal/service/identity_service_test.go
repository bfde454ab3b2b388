package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
	"github.com/taskledger/taskledger-api/internal/security"
)

func TestIdentityServiceResolve(t *testing.T) {
	db := setupServiceDB(t)
	tokens := security.NewTokenService("identity-test-secret", time.Hour)
	resolver := NewIdentityService(tokens, repository.NewUserRepository(db), testLogger())

	user := createTestUser(t, db, "jane@example.com", models.RoleUser)
	token, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
	require.Equal(t, user.Email, resolved.Email)
}

func TestIdentityServiceRejectsBadTokens(t *testing.T) {
	db := setupServiceDB(t)
	tokens := security.NewTokenService("identity-test-secret", time.Hour)
	resolver := NewIdentityService(tokens, repository.NewUserRepository(db), testLogger())

	_, err := resolver.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrUnauthenticated)

	// Valid signature but the subject is not a known account.
	orphan, err := tokens.Issue("2b7f5b53-7a3c-4f3a-9c0c-df05c1b7f001")
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), orphan)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// Token signed under a different secret.
	foreign := security.NewTokenService("some-other-secret", time.Hour)
	stray, err := foreign.Issue("2b7f5b53-7a3c-4f3a-9c0c-df05c1b7f001")
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), stray)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIdentityServiceInactiveAccountIsForbiddenNotUnauthenticated(t *testing.T) {
	db := setupServiceDB(t)
	tokens := security.NewTokenService("identity-test-secret", time.Hour)
	resolver := NewIdentityService(tokens, repository.NewUserRepository(db), testLogger())

	user := createTestUser(t, db, "jane@example.com", models.RoleUser)
	token, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestIdentityServiceResolveOptional(t *testing.T) {
	db := setupServiceDB(t)
	tokens := security.NewTokenService("identity-test-secret", time.Hour)
	resolver := NewIdentityService(tokens, repository.NewUserRepository(db), testLogger())

	require.Nil(t, resolver.ResolveOptional(context.Background(), ""))
	require.Nil(t, resolver.ResolveOptional(context.Background(), "garbage"))

	user := createTestUser(t, db, "jane@example.com", models.RoleUser)
	token, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)

	resolved := resolver.ResolveOptional(context.Background(), token)
	require.NotNil(t, resolved)
	require.Equal(t, user.ID, resolved.ID)
}
