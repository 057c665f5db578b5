// Package validation runs the content-security checks applied to every
// request before it reaches the generation backend, and consolidates
// their outcomes into a single verdict.
package validation

import (
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"go.uber.org/zap"
)

// Validator runs the fixed content checks plus the target-module check
// and consolidates them. Checks are independent and order-insensitive.
type Validator struct {
	logger            *zap.Logger
	integrityChecking bool
}

// Option customizes a Validator.
type Option func(*Validator)

// WithIntegrityChecking toggles the data-integrity check. It is on by
// default.
func WithIntegrityChecking(enabled bool) Option {
	return func(v *Validator) { v.integrityChecking = enabled }
}

// NewValidator creates a new Validator.
func NewValidator(logger *zap.Logger, opts ...Option) *Validator {
	v := &Validator{logger: logger, integrityChecking: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// recommendations maps a failed check kind to fixed remediation advice.
var recommendations = map[models.CheckKind]string{
	models.CheckPromptInjection:  "Remove instruction-override phrases and script markers from the content",
	models.CheckContentLength:    "Shorten the content or upgrade to a tier with a higher content ceiling",
	models.CheckMaliciousPattern: "Remove injection syntax, path traversal sequences, and credential-like tokens",
	models.CheckDataIntegrity:    "Provide non-empty content and remove script-like metadata",
	models.CheckTargetModule:     "Adjust the request to meet the target module's requirements",
	models.CheckPersonalInfo:     "Remove realistic names and addresses from auxiliary profile data",
}

// Validate runs all checks and consolidates them into one result.
// Overall score is the mean of all check scores; the request passes
// only when no check failed; risk level is the maximum severity among
// violations.
func (v *Validator) Validate(req *models.SecureRequest, sctx *models.SecurityContext) *models.ValidationResult {
	checks := []models.ValidationCheck{
		checkPromptInjection(req),
		checkContentLength(req, sctx),
		checkMaliciousPattern(req),
	}
	if v.integrityChecking {
		checks = append(checks, checkDataIntegrity(req))
	}

	if moduleCheck, ok := checkTargetModule(req); ok {
		checks = append(checks, moduleCheck)
	}
	if req.AuxiliaryData != nil {
		checks = append(checks, checkPersonalInfo(req))
	}

	result := &models.ValidationResult{Passed: true, RiskLevel: models.SeverityLow}

	var total float64
	for _, check := range checks {
		total += check.Score
		if check.Passed {
			continue
		}
		result.Violations = append(result.Violations, models.Violation{
			Kind:     check.Kind,
			Severity: check.Severity,
			Detail:   check.Detail,
			Spans:    check.Spans,
		})
		if rec, ok := recommendations[check.Kind]; ok {
			result.Recommendations = append(result.Recommendations, rec)
		}
	}
	result.Score = total / float64(len(checks))
	result.Passed = len(result.Violations) == 0
	result.RiskLevel = result.MaxSeverity()

	if !result.Passed {
		v.logger.Warn("request failed validation",
			zap.String("request_id", req.ID.String()),
			zap.String("caller_id", req.CallerID),
			zap.Int("violations", len(result.Violations)),
			zap.String("risk_level", string(result.RiskLevel)),
			zap.Float64("score", result.Score))
	}

	return result
}
