package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/services"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps pipeline errors to HTTP responses. The
// handler stays thin: all policy lives in the gateway service, this
// only translates the error kind.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	secErr := services.AsSecurityError(err)
	details := secErr.Details
	if len(secErr.Violations) > 0 {
		if details == nil {
			details = make(map[string]interface{})
		}
		details["violations"] = secErr.Violations
		details["risk_level"] = secErr.RiskLevel
	}

	switch {
	case services.IsAuthError(err):
		if werr := utils.WriteUnauthorized(w, secErr.Message); werr != nil {
			logger.Error("failed to write unauthorized response", zap.Error(werr))
		}

	case services.IsRateLimitError(err):
		if secErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(secErr.RetryAfter.Seconds()+0.5)))
		}
		if werr := utils.WriteTooManyRequests(w, secErr.Message, details); werr != nil {
			logger.Error("failed to write rate limit response", zap.Error(werr))
		}

	case services.IsValidationError(err):
		if werr := utils.WriteBadRequest(w, secErr.Message, details); werr != nil {
			logger.Error("failed to write bad request response", zap.Error(werr))
		}

	case services.KindOf(err) == services.KindThreatCritical:
		if werr := utils.WriteForbidden(w, secErr.Message); werr != nil {
			logger.Error("failed to write forbidden response", zap.Error(werr))
		}

	case services.IsForwardingError(err):
		if werr := utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse{
			Error:   "bad_gateway",
			Message: secErr.Message,
			Details: details,
		}); werr != nil {
			logger.Error("failed to write bad gateway response", zap.Error(werr))
		}

	default:
		logger.Error("internal server error", zap.Error(err))
		if werr := utils.WriteInternalServerError(w, "An internal error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
	}
}

// HandleRequestValidationError maps DTO validation failures to a 400
// with per-field detail.
func HandleRequestValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var fieldErr *utils.FieldError
	if errors.As(err, &fieldErr) {
		details := make(map[string]interface{}, len(fieldErr.Fields))
		for k, v := range fieldErr.Fields {
			details[k] = v
		}
		if werr := utils.WriteBadRequest(w, fieldErr.Message, details); werr != nil {
			logger.Error("failed to write validation error response", zap.Error(werr))
		}
		return
	}
	if werr := utils.WriteBadRequest(w, err.Error(), nil); werr != nil {
		logger.Error("failed to write validation error response", zap.Error(werr))
	}
}
