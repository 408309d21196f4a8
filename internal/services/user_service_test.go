package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_ThenAuthenticate_Succeeds(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		username := fmt.Sprintf("user%d", i)
		password := fmt.Sprintf("secret-%d", i)

		created, err := s.CreateUser(ctx, username, username+"@example.com", password)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Empty(t, created.PasswordHash)
		assert.False(t, created.IsAdmin)

		authed, err := s.AuthenticateUser(ctx, username, password)
		require.NoError(t, err)
		assert.Equal(t, created.ID, authed.ID)
		assert.Empty(t, authed.PasswordHash)
	}
}

func TestCreateUser_StoresHashNotPlaintext(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@example.com", "wonderland")
	require.NoError(t, err)

	stored, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "wonderland", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestAuthenticate_WrongPasswordAndUnknownUser_SameError(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@example.com", "wonderland")
	require.NoError(t, err)

	_, errWrong := s.AuthenticateUser(ctx, "alice", "looking-glass")
	_, errUnknown := s.AuthenticateUser(ctx, "mallory", "wonderland")

	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestCreateUser_DuplicateUsername_Fails(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@example.com", "one")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "alice", "other@example.com", "two")
	require.ErrorIs(t, err, ErrDuplicateUsername)

	// the original password still works
	_, err = s.AuthenticateUser(ctx, "alice", "one")
	require.NoError(t, err)
}

func TestCreateUser_DuplicateEmail_Fails(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@example.com", "one")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "bob", "alice@example.com", "two")
	require.ErrorIs(t, err, ErrDuplicateEmail)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateUser_MissingFields_Fails(t *testing.T) {
	s := newTestUserService(t)

	_, err := s.CreateUser(context.Background(), " ", "x@example.com", "pw")
	require.Error(t, err)
}

func TestEnsureAdmin_SeedsOnce(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "admin", "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, "admin", "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := s.AuthenticateUser(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.Identity().IsAdmin)
}

func TestResetPassword_UpdatesHash(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@example.com", "old")
	require.NoError(t, err)

	require.NoError(t, s.ResetPassword(ctx, "alice@example.com", "new"))

	_, err = s.AuthenticateUser(ctx, "alice", "old")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.AuthenticateUser(ctx, "alice", "new")
	require.NoError(t, err)
}

func TestResetPassword_UnknownEmail_NotFound(t *testing.T) {
	s := newTestUserService(t)

	err := s.ResetPassword(context.Background(), "ghost@example.com", "new")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListUsers_OmitsHashes(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestCreateUser_EmailCaseInsensitive(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", " Alice@Example.COM", "old")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)

	_, err = s.CreateUser(ctx, "bob", "ALICE@example.com", "two")
	require.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, s.ResetPassword(ctx, "alice@EXAMPLE.com", "new"))
	_, err = s.AuthenticateUser(ctx, "alice", "new")
	require.NoError(t, err)

	byEmail, err := s.GetUserByEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.Username)
}
