package service

import (
	"context"
	"testing"

	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminUserCreatesAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := &BootstrapService{Store: env.store}
	require.NoError(t, svc.EnsureAdminUser(ctx, "admin", "initial-password"))

	user, err := env.store.Users().GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("initial-password", user.PasswordHash))

	// Second run with the same credentials is a no-op.
	require.NoError(t, svc.EnsureAdminUser(ctx, "admin", "initial-password"))
}

func TestEnsureAdminUserResyncsPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := &BootstrapService{Store: env.store}
	require.NoError(t, svc.EnsureAdminUser(ctx, "admin", "old-password"))
	require.NoError(t, svc.EnsureAdminUser(ctx, "admin", "new-password"))

	user, err := env.store.Users().GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("new-password", user.PasswordHash))
	require.ErrorIs(t, cryptox.VerifyPassword("old-password", user.PasswordHash), cryptox.ErrPasswordMismatch)
}

func TestEnsureAdminUserSkipsWithoutCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := &BootstrapService{Store: env.store}
	require.NoError(t, svc.EnsureAdminUser(ctx, "", ""))

	empty, err := env.store.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}
