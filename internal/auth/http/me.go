package http

import (
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/pkg/httpx"
)

// MeHandler handles GET /me: the caller's own profile. Secrets and hashes
// never appear here.
type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.UserService.GetProfile(ctx, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}
