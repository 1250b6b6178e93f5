package http

import (
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/pkg/httpx"
)

// LogoutHandler handles POST /logout. It revokes the session bound to the
// caller's access token. Idempotent: logging out twice still succeeds.
type LogoutHandler struct {
	Sessions *service.SessionService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sid, ok := httpx.SessionIDFromContext(ctx); ok {
		if err := h.Sessions.RevokeByID(ctx, sid); err != nil {
			writeServerError(w)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
