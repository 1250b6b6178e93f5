package http

import (
	"errors"
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/internal/auth/store"
	"github.com/promogate/adminauth/pkg/httpx"
)

// Generic failure bodies. Credential failures are deliberately
// indistinguishable from one another: the same status and body whether the
// username was unknown, the password wrong, or the code stale.
const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidCode        = "invalid code"
	msgInvalidRefresh     = "invalid refresh token"
)

func writeError(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, map[string]string{"error": msg})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeServiceError maps service sentinels onto the generic wire responses.
// Anything unmapped is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, service.ErrInvalidMFACode), errors.Is(err, service.ErrInvalidChallenge):
		writeError(w, http.StatusUnauthorized, msgInvalidCode)
	case errors.Is(err, service.ErrInvalidRefresh):
		writeError(w, http.StatusUnauthorized, msgInvalidRefresh)
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		writeError(w, http.StatusConflict, "mfa already enabled")
	case errors.Is(err, service.ErrMFANotEnabled):
		writeError(w, http.StatusConflict, "mfa not enabled")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeServerError(w)
	}
}
