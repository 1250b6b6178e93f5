package service

import (
	"context"
	"testing"
	"time"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestRefreshRotatesTokenAndKeepsSessionID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	first, err := env.sessions.Create(ctx, user, "127.0.0.1", "test-agent")
	require.NoError(t, err)

	second, err := env.sessions.Refresh(ctx, first.RefreshToken, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Same session id survives the rotation.
	firstClaims, err := env.verifier.Verify(first.AccessToken)
	require.NoError(t, err)
	secondClaims, err := env.verifier.Verify(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, firstClaims.SID, secondClaims.SID)

	// The spent token is dead.
	_, err = env.sessions.Refresh(ctx, first.RefreshToken, "127.0.0.1", "test-agent")
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The fresh one still works.
	_, err = env.sessions.Refresh(ctx, second.RefreshToken, "127.0.0.1", "test-agent")
	require.NoError(t, err)
}

func TestRefreshUpdatesSessionClientContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	first, err := env.sessions.Create(ctx, user, "1.1.1.1", "browser-a")
	require.NoError(t, err)

	second, err := env.sessions.Refresh(ctx, first.RefreshToken, "2.2.2.2", "browser-b")
	require.NoError(t, err)

	// The session record now describes the device that rotated the token,
	// not the one that logged in.
	s, err := env.store.Sessions().GetSessionByTokenHash(ctx, cryptox.FingerprintToken(second.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, "2.2.2.2", s.IPAddress)
	require.Equal(t, "browser-b", s.UserAgent)
	require.NotNil(t, s.LastUsedAt)
}

func TestRefreshRejectsRevokedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	pair, err := env.sessions.Create(ctx, user, "", "")
	require.NoError(t, err)

	require.NoError(t, env.sessions.Revoke(ctx, pair.RefreshToken))

	_, err = env.sessions.Refresh(ctx, pair.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	now := time.Now().UTC()
	expired := domain.Session{
		ID:        idx.New(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, env.store.Sessions().CreateSession(ctx, expired))

	_, err = env.sessions.Refresh(ctx, raw, "", "")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Refresh(context.Background(), "completely-unknown-token", "", "")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRevokeIsIdempotentAndGeneric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	pair, err := env.sessions.Create(ctx, user, "", "")
	require.NoError(t, err)

	require.NoError(t, env.sessions.Revoke(ctx, pair.RefreshToken))
	require.NoError(t, env.sessions.Revoke(ctx, pair.RefreshToken))

	// Unknown tokens are silently accepted too.
	require.NoError(t, env.sessions.Revoke(ctx, "no-such-token"))
}

func TestRevokeAllForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", "pw")

	a, err := env.sessions.Create(ctx, user, "", "")
	require.NoError(t, err)
	b, err := env.sessions.Create(ctx, user, "", "")
	require.NoError(t, err)

	require.NoError(t, env.sessions.RevokeAllForUser(ctx, user.ID.String()))

	_, err = env.sessions.Refresh(ctx, a.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, err = env.sessions.Refresh(ctx, b.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
