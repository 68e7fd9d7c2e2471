package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/database"
)

func newTestService(t *testing.T) (*Service, *database.UserRepo) {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	users := database.NewUserRepo(db)
	return NewService(users), users
}

func TestServiceRegister(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)

	user, err := svc.Register(ctx, "a", "a")
	require.NoError(t, err)

	stored, err := users.GetByUsername(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	ok, err := VerifyPassword("a", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = VerifyPassword("b", stored.PasswordHash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Register(ctx, "a", "other")
	require.ErrorIs(t, err, ErrUsernameTaken)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = svc.Register(ctx, "", "x")
	require.ErrorIs(t, err, ErrCredentialsRequired)
	_, err = svc.Register(ctx, "x", "")
	require.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "bob", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "")
	require.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestChangePasswordValidation(t *testing.T) {
	cases := []struct {
		req  ChangePasswordRequest
		want error
	}{
		{ChangePasswordRequest{}, ErrCurrentPasswordRequired},
		{ChangePasswordRequest{Current: "a"}, ErrNewPasswordRequired},
		{ChangePasswordRequest{Current: "a", New: "b"}, ErrConfirmPasswordRequired},
		{ChangePasswordRequest{Current: "a", New: "b", Confirm: "c"}, ErrPasswordMismatch},
		{ChangePasswordRequest{Current: "a", New: "a", Confirm: "a"}, ErrPasswordUnchanged},
		{ChangePasswordRequest{Current: "a", New: "b", Confirm: "b"}, nil},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.req.Validate(), tc.want, "%+v", tc.req)
	}
}

func TestServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, err := svc.Register(ctx, "alice", "old")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{Current: "bad", New: "new", Confirm: "new"})
	require.ErrorIs(t, err, ErrCurrentPasswordIncorrect)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{Current: "old", New: "new", Confirm: "new"}))

	_, err = svc.Authenticate(ctx, "alice", "old")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "new")
	require.NoError(t, err)
}
