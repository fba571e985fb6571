package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nirmitsaini1024/tgrab/internal/models"
)

// HandleSendCode opens an auth session and asks the platform to send a
// one-time code. Already-authorized identities short-circuit straight to
// a token.
func (h *Handler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	var req models.SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Phone == "" {
		h.writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if req.APIID <= 0 {
		h.writeError(w, http.StatusBadRequest, "api_id must be a positive integer")
		return
	}
	if req.APIHash == "" {
		h.writeError(w, http.StatusBadRequest, "api_hash is required")
		return
	}

	sessionID := h.Sessions.CreatePending(req.Phone)

	already, err := h.Gateway.SendCode(r.Context(), sessionID, req.APIID, req.APIHash, req.Phone)
	if err != nil {
		h.Sessions.DeletePending(sessionID)
		h.Logger.Warn("send code failed", zap.String("session", sessionID), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if already {
		h.Sessions.DeletePending(sessionID)
		token := h.Sessions.IssueToken(sessionID)
		h.Logger.Info("already authorized", zap.String("session", sessionID))
		h.writeJSON(w, http.StatusOK, models.SendCodeResponse{
			SessionID: sessionID,
			Status:    models.StatusAlreadyAuthorized,
			Message:   "Already authenticated",
			Token:     token,
		})
		return
	}

	h.Logger.Info("code sent", zap.String("session", sessionID))
	h.writeJSON(w, http.StatusOK, models.SendCodeResponse{
		SessionID: sessionID,
		Status:    models.StatusCodeSent,
		Message:   "Code sent successfully",
	})
}

// HandleVerifyCode validates the one-time code, and the second-factor
// password when one is supplied. A second-factor requirement is reported
// as a password_required status, not an error; the pending session stays
// open so the password can follow under the same session id.
func (h *Handler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pending, ok := h.Sessions.GetPending(req.SessionID)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Invalid or expired session")
		return
	}
	if req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	identity, err := h.Gateway.SignIn(r.Context(), req.SessionID, pending.Phone, req.Code)
	if errors.Is(err, ErrPasswordRequired) {
		if req.Password == "" {
			h.Logger.Info("second factor required", zap.String("session", req.SessionID))
			h.writeJSON(w, http.StatusOK, models.VerifyCodeResponse{
				Status: models.StatusPasswordRequired,
			})
			return
		}
		identity, err = h.Gateway.SignInWithPassword(r.Context(), req.SessionID, req.Password)
	}
	if err != nil {
		h.Logger.Warn("verify failed", zap.String("session", req.SessionID), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Sessions.DeletePending(req.SessionID)
	token := h.Sessions.IssueToken(req.SessionID)
	h.Logger.Info("authenticated", zap.String("session", req.SessionID), zap.Int64("user", identity.ID))
	h.writeJSON(w, http.StatusOK, models.VerifyCodeResponse{
		Status: models.StatusAuthenticated,
		Token:  token,
		User:   *identity,
	})
}
