// Package gateway orchestrates the security pipeline every AI-facing
// request passes through: authentication, rate limiting, content
// validation, threat assessment, sanitization, backend forwarding, and
// response filtering. Every request produces exactly one terminal
// audit entry, success or failure.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/auth"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/config"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/observability"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/alerts"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/audit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/backend"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/ratelimit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/threat"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/validation"
	"go.uber.org/zap"
)

// Policy holds the threat thresholds and block cool-down. The
// high/critical split is deliberately configuration, not a constant.
type Policy struct {
	HighThreat     float64
	CriticalThreat float64
	BlockDuration  time.Duration
}

// PolicyFromConfig derives the threat policy from security config.
func PolicyFromConfig(cfg config.SecurityConfig) Policy {
	return Policy{
		HighThreat:     cfg.HighThreatLevel,
		CriticalThreat: cfg.CriticalThreat,
		BlockDuration:  cfg.BlockDuration,
	}
}

// Service runs the request pipeline. It holds no cross-request state
// beyond the rate-limiter registry, the audit buffer, and the block
// list.
type Service struct {
	policy    Policy
	sessions  *auth.SessionManager
	limits    *ratelimit.Registry
	validator *validation.Validator
	scorer    threat.Scorer
	generator backend.Generator
	auditor   *audit.Logger
	alerts    *alerts.Dispatcher
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	blocked map[string]time.Time
}

// NewService wires the pipeline stages together.
func NewService(
	policy Policy,
	sessions *auth.SessionManager,
	limits *ratelimit.Registry,
	validator *validation.Validator,
	scorer threat.Scorer,
	generator backend.Generator,
	auditor *audit.Logger,
	dispatcher *alerts.Dispatcher,
	logger *zap.Logger,
) *Service {
	return &Service{
		policy:    policy,
		sessions:  sessions,
		limits:    limits,
		validator: validator,
		scorer:    scorer,
		generator: generator,
		auditor:   auditor,
		alerts:    dispatcher,
		logger:    logger,
		now:       time.Now,
		blocked:   make(map[string]time.Time),
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BlockedUntil reports whether the caller is currently blocked and
// when the block expires. Expired blocks are removed on read.
func (s *Service) BlockedUntil(callerID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.blocked[callerID]
	if !ok {
		return time.Time{}, false
	}
	if s.now().After(until) {
		delete(s.blocked, callerID)
		return time.Time{}, false
	}
	return until, true
}

func (s *Service) block(callerID string, until time.Time) {
	s.mu.Lock()
	s.blocked[callerID] = until
	s.mu.Unlock()
}

// Process runs the full pipeline for one request. The returned rate
// limit decision is non-nil whenever the limiter was consulted, so the
// transport layer can attach the standard headers even on denial.
func (s *Service) Process(ctx context.Context, req *models.SecureRequest, sctx *models.SecurityContext) (*models.SecureResponse, *ratelimit.Decision, error) {
	trail := []string{"received"}
	tier := sctx.Tier

	// 1. Authenticate.
	sessionID, err := s.sessions.Authenticate(req.CallerID, req.SessionToken)
	if err != nil {
		s.recordTerminal(req, sctx, models.AuditActionAIRequestFailed, false, models.SeverityHigh, 0, map[string]interface{}{
			"stage": "authenticate",
			"error": err.Error(),
		})
		s.countDecision(tier, "auth_denied")
		return nil, nil, err
	}
	if sctx.SessionID == "" {
		sctx.SessionID = sessionID
	}
	trail = append(trail, "authenticated")

	// 2. Blocked accounts are rejected before consuming quota.
	if until, ok := s.BlockedUntil(req.CallerID); ok {
		blockErr := services.NewSecurityError(services.KindThreatCritical, "account is temporarily blocked", nil).
			WithDetail("blocked_until", until.UTC().Format(time.RFC3339))
		s.recordTerminal(req, sctx, models.AuditActionAccountBlocked, false, models.SeverityCritical, 0, map[string]interface{}{
			"stage":         "block_list",
			"blocked_until": until.UTC().Format(time.RFC3339),
		})
		s.countDecision(tier, "blocked")
		return nil, nil, blockErr
	}

	// 3. Rate limit.
	decision := s.acquire(req.CallerID, tier)
	if !decision.Allowed {
		observability.RateLimitDeniedTotal.WithLabelValues(string(tier), decision.Reason).Inc()
		s.recordTerminal(req, sctx, models.AuditActionRateLimitExceeded, false, models.SeverityMedium, 0, map[string]interface{}{
			"stage":       "rate_limit",
			"reason":      decision.Reason,
			"retry_after": decision.RetryAfter.Seconds(),
		})
		s.countDecision(tier, "rate_limited")
		return nil, &decision, services.NewRateLimitError("rate limit exceeded", decision.RetryAfter)
	}
	trail = append(trail, "rate_limited_ok")

	// 4. Validate.
	result := s.validate(req, sctx)
	if !result.Passed {
		s.escalate(sctx, 0.1, "validation violations")
		if abortOnViolations(result.Violations) {
			s.recordTerminal(req, sctx, models.AuditActionSecurityViolation, false, result.RiskLevel, result.Score, map[string]interface{}{
				"stage":      "validate",
				"violations": result.Violations,
			})
			s.countDecision(tier, "validation_failed")
			return nil, &decision, services.NewValidationError("request failed security validation", result.Violations, result.RiskLevel)
		}
		// Span-bearing violations are neutralized by sanitization
		// below; the violation is still audited and escalated.
		s.record(req, sctx, models.AuditActionSecurityViolation, false, result.RiskLevel, result.Score, map[string]interface{}{
			"stage":      "validate",
			"sanitized":  true,
			"violations": result.Violations,
		})
	}
	trail = append(trail, "validated")

	// 5. Threat assessment. High threat audits and alerts but does not
	// abort; critical threat blocks the account.
	score := s.assess(req, sctx)
	observability.ThreatScores.Observe(score)
	if score > s.policy.CriticalThreat {
		until := s.now().Add(s.policy.BlockDuration)
		s.block(req.CallerID, until)
		s.alerts.Trigger(ctx, &alerts.Alert{
			Category: "threat",
			Severity: models.SeverityCritical,
			Message:  "critical threat score, account blocked",
			CallerID: req.CallerID,
			Details:  map[string]interface{}{"threat_score": score, "blocked_until": until.UTC()},
		})
		s.recordTerminal(req, sctx, models.AuditActionAccountBlocked, false, models.SeverityCritical, score, map[string]interface{}{
			"stage":         "threat",
			"threat_score":  score,
			"blocked_until": until.UTC().Format(time.RFC3339),
		})
		s.countDecision(tier, "threat_critical")
		return nil, &decision, services.NewSecurityError(services.KindThreatCritical, "request blocked due to critical threat score", nil).
			WithDetail("threat_score", score)
	}
	if score > s.policy.HighThreat {
		s.escalate(sctx, 0.2, "high threat score")
		s.record(req, sctx, models.AuditActionHighThreat, true, models.SeverityHigh, score, map[string]interface{}{
			"stage":        "threat",
			"threat_score": score,
		})
		s.alerts.Trigger(ctx, &alerts.Alert{
			Category: "threat",
			Severity: models.SeverityHigh,
			Message:  "high threat score detected",
			CallerID: req.CallerID,
			Details:  map[string]interface{}{"threat_score": score},
		})
	}
	trail = append(trail, "threat_assessed")

	// 6. Sanitize. Targets only the spans validation identified.
	forwarded := req
	if len(result.Violations) > 0 {
		forwarded = req.WithContent(validation.Sanitize(req.Content, result.Violations))
		trail = append(trail, "sanitized")
	}

	// 7. Forward. Elapsed time is recorded regardless of outcome.
	forwardStart := s.now()
	genResult, err := s.generator.Generate(ctx, forwarded)
	observability.StageDuration.WithLabelValues("forward").Observe(time.Since(forwardStart).Seconds())
	if err != nil {
		s.recordTerminal(req, sctx, models.AuditActionAIRequestFailed, false, models.SeverityMedium, score, map[string]interface{}{
			"stage":       "forward",
			"error":       err.Error(),
			"duration_ms": time.Since(forwardStart).Milliseconds(),
		})
		s.countDecision(tier, "forwarding_failed")
		return nil, &decision, err
	}
	trail = append(trail, "forwarded")

	// 8. Filter response.
	content := validation.FilterResponse(genResult.Content, tier)
	trail = append(trail, "response_filtered")

	resp := &models.SecureResponse{
		RequestID:    req.ID,
		Content:      content,
		Confidence:   genResult.Confidence,
		BackendModel: genResult.Model,
		Usage:        genResult.Usage,
		Cached:       genResult.Cached,
		SecurityLevel: func() models.Severity {
			if len(result.Violations) > 0 {
				return result.RiskLevel
			}
			return models.SeverityLow
		}(),
		SecurityMetadata: models.SecurityMetadata{
			ValidationScore:  result.Score,
			ThreatScore:      score,
			EncryptionLevel:  "tls1.3",
			AuditTrail:       trail,
			ComplianceStatus: models.ComplianceStatusForTier(tier),
		},
	}

	s.recordTerminal(req, sctx, models.AuditActionAIRequest, true, models.SeverityLow, score, map[string]interface{}{
		"target_module": req.TargetModule,
		"duration_ms":   time.Since(forwardStart).Milliseconds(),
	})
	s.countDecision(tier, "completed")
	return resp, &decision, nil
}

func (s *Service) acquire(callerID string, tier models.Tier) ratelimit.Decision {
	start := s.now()
	decision := s.limits.Acquire(callerID, tier)
	observability.StageDuration.WithLabelValues("rate_limit").Observe(time.Since(start).Seconds())
	return decision
}

func (s *Service) validate(req *models.SecureRequest, sctx *models.SecurityContext) *models.ValidationResult {
	start := s.now()
	result := s.validator.Validate(req, sctx)
	observability.StageDuration.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	return result
}

func (s *Service) assess(req *models.SecureRequest, sctx *models.SecurityContext) float64 {
	start := s.now()
	score := s.scorer.Score(req, sctx)
	observability.StageDuration.WithLabelValues("threat").Observe(time.Since(start).Seconds())
	return score
}

func (s *Service) escalate(sctx *models.SecurityContext, delta float64, reason string) {
	if sctx.RiskProfile == nil {
		sctx.RiskProfile = &models.RiskProfile{}
	}
	sctx.RiskProfile.Escalate(delta, reason, s.now())
}

// abortOnViolations decides whether a failed validation can be
// recovered by sanitization. Structural failures (empty content,
// ceiling breach, module contract) and critical malicious patterns
// abort; span-bearing pattern matches are neutralized instead.
func abortOnViolations(violations []models.Violation) bool {
	for _, v := range violations {
		switch v.Kind {
		case models.CheckDataIntegrity, models.CheckContentLength, models.CheckTargetModule:
			return true
		case models.CheckMaliciousPattern:
			if v.Severity == models.SeverityCritical {
				return true
			}
		}
	}
	return false
}

func (s *Service) record(req *models.SecureRequest, sctx *models.SecurityContext, action models.AuditAction, success bool, level models.Severity, threatScore float64, details map[string]interface{}) {
	entry := models.NewAuditLogEntry(req.CallerID, action, req.TargetModule).
		WithOutcome(success, level).
		WithThreatScore(threatScore).
		WithDetails(details).
		WithOrigin(sctx.IPAddress, sctx.UserAgent, sctx.SessionID)
	s.auditor.Record(entry)
	observability.AuditBufferedEntries.Set(float64(s.auditor.Pending()))
}

// recordTerminal writes the single terminal audit entry for the
// request.
func (s *Service) recordTerminal(req *models.SecureRequest, sctx *models.SecurityContext, action models.AuditAction, success bool, level models.Severity, threatScore float64, details map[string]interface{}) {
	s.record(req, sctx, action, success, level, threatScore, details)
}

func (s *Service) countDecision(tier models.Tier, decision string) {
	observability.RequestsProcessedTotal.WithLabelValues(string(tier), decision).Inc()
}
