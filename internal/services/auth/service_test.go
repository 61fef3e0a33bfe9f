package auth

import (
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *repotest.Store, email, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return store.SeedUser(models.User{
		Email: email, Username: "alice", Password: hash, Role: "user",
	})
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	store := repotest.New()
	svc := NewService(store, nil)
	seedUser(t, store, "a@example.com", "hunter2!")

	user, access, refresh, err := svc.Login("a@example.com", "hunter2!")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.False(t, user.LastLoginAt.IsZero())

	claims, err := utils.ParseToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	store := repotest.New()
	svc := NewService(store, nil)
	seedUser(t, store, "a@example.com", "hunter2!")

	_, _, _, err := svc.Login("a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login("nobody@example.com", "hunter2!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	store := repotest.New()
	svc := NewService(store, nil)
	seedUser(t, store, "a@example.com", "hunter2!")

	_, _, refresh, err := svc.Login("a@example.com", "hunter2!")
	require.NoError(t, err)

	access, _, err := svc.RefreshTokens(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, _, err = svc.RefreshTokens("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	store := repotest.New()
	svc := NewService(store, nil)
	user := seedUser(t, store, "a@example.com", "hunter2!")

	assert.ErrorIs(t, svc.ChangePassword(user.ID, "wrong", "newpassword1"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(user.ID, "hunter2!", "short"), ErrWeakPassword)

	require.NoError(t, svc.ChangePassword(user.ID, "hunter2!", "newpassword1"))
	_, _, _, err := svc.Login("a@example.com", "newpassword1")
	assert.NoError(t, err)
}
