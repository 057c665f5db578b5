package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/auth"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/utils"
	"go.uber.org/zap"
)

// SessionRequest asks for a new session token for a caller at a tier.
type SessionRequest struct {
	CallerID string `json:"caller_id" validate:"required"`
	Tier     string `json:"tier" validate:"required,oneof=free pro admin"`
}

// SessionHandler issues session tokens for calling applications.
type SessionHandler struct {
	sessions *auth.SessionManager
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *auth.SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// HandleCreateSession handles POST /api/v1/sessions.
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleRequestValidationError(w, err, h.logger)
		return
	}

	token, err := h.sessions.Issue(req.CallerID, models.Tier(req.Tier))
	if err != nil {
		h.logger.Error("failed to issue session",
			zap.String("caller_id", req.CallerID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "failed to issue session")
		return
	}

	_ = utils.WriteJSON(w, http.StatusCreated, map[string]string{
		"caller_id":     req.CallerID,
		"tier":          req.Tier,
		"session_token": token,
	})
}
