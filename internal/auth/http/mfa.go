package http

import (
	"encoding/json"
	"net/http"

	"github.com/promogate/adminauth/internal/auth/service"
	"github.com/promogate/adminauth/pkg/httpx"
	"github.com/promogate/adminauth/pkg/slogx"
)

// MFAHandler handles TOTP enrolment and backup code management.
type MFAHandler struct {
	MFAService *service.MFAService
}

type mfaSetupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleSetup handles POST /mfa/setup. The caller proves their password
// before a new secret is parked; the follow-up confirm is bound by the
// returned setup challenge.
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mfaSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	setup, err := h.MFAService.Setup(ctx, req.Username, req.Password)
	if err != nil {
		slogx.FromContext(ctx).Info("mfa setup rejected", "username", req.Username)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, setup)
}

type mfaConfirmRequest struct {
	SetupChallenge string `json:"setup_challenge"`
	Code           string `json:"code"`
}

// HandleConfirm handles POST /mfa/confirm. The setup challenge from
// HandleSetup carries the user binding, so no bearer token is needed; a
// valid code against the pending secret flips the factor on and returns the
// one-time backup code set.
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mfaConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.SetupChallenge == "" || req.Code == "" {
		writeBadRequest(w, "setup_challenge and code are required")
		return
	}

	codes, err := h.MFAService.Confirm(ctx, req.SetupChallenge, req.Code)
	if err != nil {
		slogx.FromContext(ctx).Info("mfa confirm rejected")
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, codes)
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

// HandleRegenerateBackupCodes handles POST /mfa/backup-codes/regenerate.
// Requires a current TOTP code; the previous set is invalidated wholesale.
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	codes, err := h.MFAService.RegenerateBackupCodes(ctx, userID, req.Code)
	if err != nil {
		slogx.FromContext(ctx).Info("backup code regeneration rejected", "user_id", userID)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, codes)
}

// HandleDisable handles DELETE /mfa/totp. Requires a current TOTP code.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	if err := h.MFAService.Disable(ctx, userID, req.Code); err != nil {
		slogx.FromContext(ctx).Info("mfa disable rejected", "user_id", userID)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
