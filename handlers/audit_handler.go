package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/audit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/utils"
	"go.uber.org/zap"
)

// AuditHandler exposes audit log queries and compliance reporting.
type AuditHandler struct {
	auditor *audit.Logger
	logger  *zap.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditor *audit.Logger, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{auditor: auditor, logger: logger}
}

// HandleQueryLogs handles GET /api/v1/audit/logs.
// Supported query params: caller_id, action, start, end (RFC3339),
// limit, offset.
func (h *AuditHandler) HandleQueryLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repositories.AuditFilter{
		CallerID: q.Get("caller_id"),
		Action:   models.AuditAction(q.Get("action")),
	}

	var err error
	if filter.Start, err = parseTimeParam(q.Get("start")); err != nil {
		_ = utils.WriteBadRequest(w, "invalid start time, expected RFC3339", nil)
		return
	}
	if filter.End, err = parseTimeParam(q.Get("end")); err != nil {
		_ = utils.WriteBadRequest(w, "invalid end time, expected RFC3339", nil)
		return
	}
	filter.Limit = parseIntParam(q.Get("limit"), 100)
	filter.Offset = parseIntParam(q.Get("offset"), 0)

	entries, err := h.auditor.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "failed to query audit logs")
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleComplianceReport handles GET /api/v1/audit/compliance.
// Query params: start, end (RFC3339, default last 30 days), caller_id
// (optional).
func (h *AuditHandler) HandleComplianceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	end, err := parseTimeParam(q.Get("end"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "invalid end time, expected RFC3339", nil)
		return
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	start, err := parseTimeParam(q.Get("start"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "invalid start time, expected RFC3339", nil)
		return
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	if !start.Before(end) {
		_ = utils.WriteBadRequest(w, "start must be before end", nil)
		return
	}

	report, err := h.auditor.ComplianceReport(r.Context(), start, end, q.Get("caller_id"))
	if err != nil {
		h.logger.Error("compliance report failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "failed to build compliance report")
		return
	}

	_ = utils.WriteOK(w, report)
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
