package service

import (
	"context"
	"testing"

	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestSetupConfirmEnablesTOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	setup, err := env.mfa.Setup(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	require.NotEmpty(t, setup.SetupChallenge)

	// Nothing is active yet: a password-only login still succeeds directly.
	result, err := env.auth.Login(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)

	codes, err := env.mfa.Confirm(ctx, setup.SetupChallenge, currentCode(t, setup.Secret))
	require.NoError(t, err)
	require.Len(t, codes.Codes, backupCodeCount)
	for _, code := range codes.Codes {
		require.Len(t, code, backupCodeBytes*2)
	}

	updated, err := env.store.Users().GetUserByID(ctx, user.ID.String())
	require.NoError(t, err)
	require.True(t, updated.TOTPEnabled)
	require.NotNil(t, updated.TOTPSecret)
	require.Nil(t, updated.TOTPPendingSecret)

	// Login now demands the second factor.
	result, err = env.auth.Login(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, result.Challenge)
}

func TestSetupRequiresCorrectPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "pw")

	_, err := env.mfa.Setup(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts are indistinguishable from a bad password.
	_, err = env.mfa.Setup(context.Background(), "nobody", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetupRejectedWhenAlreadyEnabled(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "pw")
	env.enableTOTP(t, user.ID.String())

	_, err := env.mfa.Setup(context.Background(), "alice", "pw")
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}

func TestConfirmRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	setup, err := env.mfa.Setup(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = env.mfa.Confirm(ctx, setup.SetupChallenge, "000000")
	require.ErrorIs(t, err, ErrInvalidMFACode)

	// Still pending, not enabled.
	u, err := env.store.Users().GetUserByID(ctx, user.ID.String())
	require.NoError(t, err)
	require.False(t, u.TOTPEnabled)
	require.NotNil(t, u.TOTPPendingSecret)
}

func TestConfirmRejectsLoginChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	setup, err := env.mfa.Setup(ctx, "alice", "pw")
	require.NoError(t, err)

	loginChallenge, _, err := env.challenges.Issue(user.ID.String(), PurposeMFALogin)
	require.NoError(t, err)

	_, err = env.mfa.Confirm(ctx, loginChallenge, currentCode(t, setup.Secret))
	require.ErrorIs(t, err, ErrInvalidMFACode)
}

func TestConfirmRejectsChallengeForMissingUser(t *testing.T) {
	env := newTestEnv(t)

	// A syntactically valid challenge whose subject no longer resolves to an
	// account answers like any bad code, not like a lookup failure.
	challenge, _, err := env.challenges.Issue(idx.New().String(), PurposeMFASetup)
	require.NoError(t, err)

	_, err = env.mfa.Confirm(context.Background(), challenge, "000000")
	require.ErrorIs(t, err, ErrInvalidMFACode)
}

func TestRegenerateInvalidatesOldBackupCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	setup, err := env.mfa.Setup(ctx, "alice", "pw")
	require.NoError(t, err)
	oldCodes, err := env.mfa.Confirm(ctx, setup.SetupChallenge, currentCode(t, setup.Secret))
	require.NoError(t, err)

	newCodes, err := env.mfa.RegenerateBackupCodes(ctx, user.ID.String(), currentCode(t, setup.Secret))
	require.NoError(t, err)
	require.Len(t, newCodes.Codes, backupCodeCount)
	require.NotEqual(t, oldCodes.Codes, newCodes.Codes)

	// Old codes are gone.
	for _, code := range oldCodes.Codes {
		ok, err := env.store.BackupCodes().ConsumeBackupCode(ctx, user.ID.String(), cryptox.FingerprintToken(code))
		require.NoError(t, err)
		require.False(t, ok)
	}

	count, err := env.store.BackupCodes().CountUserBackupCodes(ctx, user.ID.String())
	require.NoError(t, err)
	require.Equal(t, backupCodeCount, count)
}

func TestRegenerateRequiresTOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	_, err := env.mfa.RegenerateBackupCodes(ctx, user.ID.String(), "123456")
	require.ErrorIs(t, err, ErrMFANotEnabled)

	secret := env.enableTOTP(t, user.ID.String())
	_, err = env.mfa.RegenerateBackupCodes(ctx, user.ID.String(), "000000")
	require.ErrorIs(t, err, ErrInvalidMFACode)

	_, err = env.mfa.RegenerateBackupCodes(ctx, user.ID.String(), currentCode(t, secret))
	require.NoError(t, err)
}

func TestDisableClearsSecretsAndCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")
	secret := env.enableTOTP(t, user.ID.String())

	_, err := env.mfa.RegenerateBackupCodes(ctx, user.ID.String(), currentCode(t, secret))
	require.NoError(t, err)

	require.NoError(t, env.mfa.Disable(ctx, user.ID.String(), currentCode(t, secret)))

	u, err := env.store.Users().GetUserByID(ctx, user.ID.String())
	require.NoError(t, err)
	require.False(t, u.TOTPEnabled)
	require.Nil(t, u.TOTPSecret)
	require.Nil(t, u.TOTPPendingSecret)

	count, err := env.store.BackupCodes().CountUserBackupCodes(ctx, user.ID.String())
	require.NoError(t, err)
	require.Zero(t, count)

	// Password-only login works again.
	result, err := env.auth.Login(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
}
