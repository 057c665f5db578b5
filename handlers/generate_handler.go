package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/middleware"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/gateway"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/utils"
	"go.uber.org/zap"
)

// GenerateRequest is the inbound request body for a secured generation
// call.
type GenerateRequest struct {
	CallerID      string              `json:"caller_id" validate:"required"`
	SessionToken  string              `json:"session_token" validate:"required"`
	Tier          string              `json:"tier" validate:"required,oneof=free pro admin"`
	TargetModule  string              `json:"target_module,omitempty"`
	Content       string              `json:"content" validate:"required"`
	AuxiliaryData *models.ProfileData `json:"auxiliary_data,omitempty"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
}

// GenerateHandler handles secured generation requests.
type GenerateHandler struct {
	gateway *gateway.Service
	logger  *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(svc *gateway.Service, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{gateway: svc, logger: logger}
}

// HandleGenerate handles POST /api/v1/generate.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var genReq GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&genReq); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&genReq); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleRequestValidationError(w, err, h.logger)
		return
	}

	req := &models.SecureRequest{
		ID:            uuid.New(),
		CallerID:      genReq.CallerID,
		SessionToken:  genReq.SessionToken,
		TargetModule:  genReq.TargetModule,
		Content:       genReq.Content,
		AuxiliaryData: genReq.AuxiliaryData,
		Metadata:      genReq.Metadata,
		SubmittedAt:   time.Now(),
	}
	sctx := &models.SecurityContext{
		Tier:      models.Tier(genReq.Tier),
		IPAddress: middleware.GetClientIPFromContext(ctx),
		UserAgent: r.UserAgent(),
	}

	h.logger.Debug("processing secure request",
		zap.String("request_id", requestID),
		zap.String("caller_id", genReq.CallerID),
		zap.String("tier", genReq.Tier),
		zap.String("target_module", genReq.TargetModule))

	resp, decision, err := h.gateway.Process(ctx, req, sctx)
	if decision != nil {
		for k, v := range decision.Headers() {
			w.Header().Set(k, v)
		}
	}
	if err != nil {
		h.logger.Warn("secure request rejected",
			zap.String("request_id", requestID),
			zap.String("caller_id", genReq.CallerID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("secure request completed",
		zap.String("request_id", requestID),
		zap.String("caller_id", genReq.CallerID),
		zap.String("backend_model", resp.BackendModel),
		zap.Float64("threat_score", resp.SecurityMetadata.ThreatScore))

	if werr := utils.WriteJSON(w, http.StatusOK, resp); werr != nil {
		h.logger.Error("failed to write response", zap.Error(werr))
	}
}
