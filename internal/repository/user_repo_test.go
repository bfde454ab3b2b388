package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/models"
)

func TestUserRepositoryUniqueEmail(t *testing.T) {
	db := setupTestDB(t, &models.User{})
	repo := NewUserRepository(db)

	first := models.User{Email: "dup@example.com", PasswordHash: "x", FullName: "First", Role: models.RoleUser, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &first))

	second := models.User{Email: "dup@example.com", PasswordHash: "y", FullName: "Second", Role: models.RoleUser, IsActive: true}
	require.Error(t, repo.Create(context.Background(), &second), "duplicate email must be rejected by the store")
}

func TestUserRepositoryGetByEmail(t *testing.T) {
	db := setupTestDB(t, &models.User{})
	repo := NewUserRepository(db)

	user := models.User{Email: "find@example.com", PasswordHash: "x", FullName: "Find Me", Role: models.RoleUser, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &user))

	stored, err := repo.GetByEmail(context.Background(), "find@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, stored.ID)

	// Email is a case-sensitive key.
	_, err = repo.GetByEmail(context.Background(), "FIND@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepositorySetActiveAndLastLogin(t *testing.T) {
	db := setupTestDB(t, &models.User{})
	repo := NewUserRepository(db)

	user := models.User{Email: "toggle@example.com", PasswordHash: "x", FullName: "Toggle", Role: models.RoleUser, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &user))

	require.NoError(t, repo.SetActive(context.Background(), user.ID, false))
	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), user.ID, at))
	stored, err = repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	require.WithinDuration(t, at, *stored.LastLogin, time.Second)
}

func TestUserRepositoryListFiltersByActive(t *testing.T) {
	db := setupTestDB(t, &models.User{})
	repo := NewUserRepository(db)

	active := models.User{Email: "active@example.com", PasswordHash: "x", FullName: "Active", Role: models.RoleUser, IsActive: true}
	inactive := models.User{Email: "inactive@example.com", PasswordHash: "x", FullName: "Inactive", Role: models.RoleUser, IsActive: false}
	require.NoError(t, repo.Create(context.Background(), &active))
	require.NoError(t, repo.Create(context.Background(), &inactive))

	wantActive := true
	users, total, err := repo.List(context.Background(), UserFilter{IsActive: &wantActive})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	require.Equal(t, "active@example.com", users[0].Email)
}
