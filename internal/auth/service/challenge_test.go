package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChallengePurposeScoping(t *testing.T) {
	env := newTestEnv(t)

	login, _, err := env.challenges.Issue("user-1", PurposeMFALogin)
	require.NoError(t, err)
	setup, _, err := env.challenges.Issue("user-1", PurposeMFASetup)
	require.NoError(t, err)

	subject, err := env.challenges.Validate(login, PurposeMFALogin)
	require.NoError(t, err)
	require.Equal(t, "user-1", subject)

	_, err = env.challenges.Validate(login, PurposeMFASetup)
	require.ErrorIs(t, err, ErrInvalidChallenge)
	_, err = env.challenges.Validate(setup, PurposeMFALogin)
	require.ErrorIs(t, err, ErrInvalidChallenge)
}

func TestChallengeExpiry(t *testing.T) {
	env := newTestEnv(t)

	short := &ChallengeIssuer{
		Signer:   env.signer,
		Verifier: env.verifier,
		Issuer:   "test-issuer",
		TTL:      time.Nanosecond,
	}

	token, _, err := short.Issue("user-1", PurposeMFALogin)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = short.Validate(token, PurposeMFALogin)
	require.ErrorIs(t, err, ErrInvalidChallenge)
}

func TestChallengeRejectsForgery(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := env.challenges.Issue("user-1", PurposeMFALogin)
	require.NoError(t, err)

	_, err = env.challenges.Validate(token+"x", PurposeMFALogin)
	require.ErrorIs(t, err, ErrInvalidChallenge)

	_, err = env.challenges.Validate("", PurposeMFALogin)
	require.ErrorIs(t, err, ErrInvalidChallenge)
}
