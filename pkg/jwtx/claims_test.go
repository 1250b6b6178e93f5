package jwtx_test

import (
	"testing"
	"time"

	"github.com/promogate/adminauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewAccessClaims(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := jwtx.NewAccessClaims("user-1", "sess-1", "admin", time.Hour, "adminauth", now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "sess-1", c.SID)
	require.Equal(t, "admin", c.Username)
	require.Equal(t, "adminauth", c.Issuer)
	require.NotEmpty(t, c.ID)
	require.WithinDuration(t, now.Add(time.Hour), c.ExpiresAt.Time, time.Second)
}

func TestValidateIssuer(t *testing.T) {
	t.Parallel()

	c := jwtx.NewAccessClaims("u", "s", "n", time.Hour, "issuer-a", time.Now())
	require.NoError(t, c.ValidateIssuer(""))
	require.NoError(t, c.ValidateIssuer("issuer-a"))
	require.ErrorIs(t, c.ValidateIssuer("issuer-b"), jwtx.ErrIssuer)
}

func TestValidateExpiry(t *testing.T) {
	t.Parallel()

	valid := jwtx.NewAccessClaims("u", "s", "n", time.Hour, "", time.Now())
	require.NoError(t, valid.ValidateExpiry())

	expired := jwtx.NewAccessClaims("u", "s", "n", time.Minute, "", time.Now().Add(-time.Hour))
	require.ErrorIs(t, expired.ValidateExpiry(), jwtx.ErrExpired)

	future := jwtx.NewAccessClaims("u", "s", "n", time.Hour, "", time.Now().Add(time.Hour))
	require.ErrorIs(t, future.ValidateExpiry(), jwtx.ErrNotYetValid)
}

func TestNewJTIIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		jti := jwtx.NewJTI()
		_, dup := seen[jti]
		require.False(t, dup)
		seen[jti] = struct{}{}
	}
}
