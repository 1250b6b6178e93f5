package http

import (
	"encoding/json"
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/pkg/httpx"
	"github.com/promogate/adminauth/pkg/slogx"
)

// LoginHandler handles POST /login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// Code optionally completes the second factor in the same request.
	Code string `json:"code,omitempty"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	result, err := h.AuthService.Login(ctx, service.Credentials{
		Username:  req.Username,
		Password:  req.Password,
		MFACode:   req.Code,
		IPAddress: httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		log.Info("login rejected", "username", req.Username)
		writeServiceError(w, err)
		return
	}

	if result.Challenge != nil {
		httpx.WriteJSON(w, http.StatusOK, result.Challenge)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result.Tokens)
}
