package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newAuthnFixture(t *testing.T) (jwtx.Signer, Middleware) {
	t.Helper()

	pemKey, err := cryptox.GenerateEdDSAKey()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("kid-1", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	return signer, AuthnMiddleware(jwtx.NewCommonEdDSA(keys, "issuer"))
}

func TestAuthnMiddleware(t *testing.T) {
	signer, authn := newAuthnFixture(t)

	var gotUserID, gotSID string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		gotSID, _ = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), authn)

	send := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid access token passes and populates context", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "sid-1", "alice", time.Hour, "issuer", time.Now()))
		require.NoError(t, err)

		rec := send("Bearer " + token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", gotUserID)
		require.Equal(t, "sid-1", gotSID)
	})

	t.Run("missing header is a 401 with a bearer challenge", func(t *testing.T) {
		rec := send("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token is a 401", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, send("Bearer garbage").Code)
	})

	t.Run("purpose-scoped token is a 401", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewChallengeClaims("user-1", "mfa-login", time.Hour, "issuer", time.Now()))
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, send("Bearer "+token).Code)
	})

	t.Run("expired token is a 401", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "sid-1", "alice", -time.Hour, "issuer", time.Now().Add(-2*time.Hour)))
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, send("Bearer "+token).Code)
	})
}
