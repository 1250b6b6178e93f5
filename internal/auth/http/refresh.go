package http

import (
	"encoding/json"
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/pkg/httpx"
	"github.com/promogate/adminauth/pkg/slogx"
)

// RefreshHandler handles POST /refresh. The presented refresh token is spent
// whether or not the exchange succeeds.
type RefreshHandler struct {
	Sessions *service.SessionService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken, httpx.IPKeyExtractor(r), r.UserAgent())
	if err != nil {
		slogx.FromContext(ctx).Info("refresh rejected")
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokens)
}
