package http

import (
	"encoding/json"
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/pkg/httpx"
	"github.com/promogate/adminauth/pkg/slogx"
)

// MFAVerifyHandler handles POST /mfa/verify: the second half of a challenged
// login. Takes the challenge token from the login response plus a TOTP or
// backup code.
type MFAVerifyHandler struct {
	AuthService *service.AuthService
}

type mfaVerifyRequest struct {
	Challenge string `json:"challenge"`
	Code      string `json:"code"`
}

func (h *MFAVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mfaVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.Challenge == "" || req.Code == "" {
		writeBadRequest(w, "challenge and code are required")
		return
	}

	tokens, err := h.AuthService.VerifyChallenge(ctx, service.ChallengeAnswer{
		Challenge: req.Challenge,
		Code:      req.Code,
		IPAddress: httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		slogx.FromContext(ctx).Info("mfa verification rejected")
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokens)
}
