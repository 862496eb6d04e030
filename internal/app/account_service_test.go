package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountProfileAndPassword(t *testing.T) {
	ctx := context.Background()
	auth, users, _ := newAuthService()
	res, err := auth.Register(ctx, RegisterInput{FullName: "Kim", Email: "kim@example.com", Password: "first-password"})
	require.NoError(t, err)

	svc := NewAccountService(users, testHasher)

	updated, err := svc.UpdateAccount(ctx, res.User.ID, "Kim Lee", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Kim Lee", updated.FullName)
	assert.Equal(t, "Acme", updated.Organization)

	assert.ErrorIs(t, svc.ChangePassword(ctx, res.User.ID, "wrong", "second-password"), ErrWrongCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, res.User.ID, "first-password", "short"), ErrInvalidInput)
	require.NoError(t, svc.ChangePassword(ctx, res.User.ID, "first-password", "second-password"))

	_, err = auth.Login(ctx, "kim@example.com", "second-password")
	require.NoError(t, err)

	_, err = svc.Account(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
