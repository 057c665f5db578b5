package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier represents a caller's service tier. Tiers are ordered:
// Free < Pro < Admin.
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierAdmin Tier = "admin"
)

// Rank returns the ordinal position of the tier for comparisons.
func (t Tier) Rank() int {
	switch t {
	case TierAdmin:
		return 2
	case TierPro:
		return 1
	default:
		return 0
	}
}

// ContentCeiling returns the maximum content length allowed for the tier.
func (t Tier) ContentCeiling() int {
	switch t {
	case TierAdmin:
		return 10000
	case TierPro:
		return 5000
	default:
		return 1000
	}
}

// Valid reports whether the tier is one of the known values.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierAdmin:
		return true
	}
	return false
}

// SecureRequest is a single AI-facing request entering the gateway.
// A SecureRequest is immutable after creation; sanitization produces a
// copy via WithContent rather than mutating in place.
type SecureRequest struct {
	ID            uuid.UUID         `json:"id"`
	CallerID      string            `json:"caller_id"`
	SessionToken  string            `json:"session_token"`
	TargetModule  string            `json:"target_module,omitempty"`
	Content       string            `json:"content"`
	AuxiliaryData *ProfileData      `json:"auxiliary_data,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	SubmittedAt   time.Time         `json:"submitted_at"`
}

// NewSecureRequest creates a SecureRequest with a fresh id and timestamp.
func NewSecureRequest(callerID, sessionToken, content string) *SecureRequest {
	return &SecureRequest{
		ID:           uuid.New(),
		CallerID:     callerID,
		SessionToken: sessionToken,
		Content:      content,
		SubmittedAt:  time.Now(),
	}
}

// WithContent returns a copy of the request carrying replacement content.
// The original request is left untouched.
func (r *SecureRequest) WithContent(content string) *SecureRequest {
	clone := *r
	clone.Content = content
	if r.Metadata != nil {
		clone.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// ProfileData is the auxiliary character/profile payload some writing
// modules attach to a request.
type ProfileData struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Description string   `json:"description,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

// RiskEvent is one appended entry in a caller's risk history.
type RiskEvent struct {
	Delta      float64   `json:"delta"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RiskProfile tracks a caller's running risk score. Updates append to
// History; the score accumulates and is clamped to [0,1].
type RiskProfile struct {
	Score         float64     `json:"score"`
	LastViolation *time.Time  `json:"last_violation,omitempty"`
	History       []RiskEvent `json:"history,omitempty"`
}

// Escalate appends a risk event and raises the running score.
func (p *RiskProfile) Escalate(delta float64, reason string, at time.Time) {
	p.History = append(p.History, RiskEvent{Delta: delta, Reason: reason, OccurredAt: at})
	p.Score += delta
	if p.Score > 1.0 {
		p.Score = 1.0
	}
	ts := at
	p.LastViolation = &ts
}

// SecurityContext carries the caller-supplied security state for one
// request. The gateway treats it as read-only except for risk-profile
// escalations.
type SecurityContext struct {
	Tier              Tier         `json:"tier"`
	SessionID         string       `json:"session_id"`
	IPAddress         string       `json:"ip_address,omitempty"`
	UserAgent         string       `json:"user_agent,omitempty"`
	DeviceFingerprint string       `json:"device_fingerprint,omitempty"`
	RiskProfile       *RiskProfile `json:"risk_profile,omitempty"`
}

// RiskScore returns the caller's running risk score, zero when no
// profile has been established yet.
func (c *SecurityContext) RiskScore() float64 {
	if c == nil || c.RiskProfile == nil {
		return 0
	}
	return c.RiskProfile.Score
}

// TokenUsage reports token consumption for a backend generation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ComplianceStatus describes which compliance categories the response
// was handled under. Elevated categories are asserted for Admin only.
type ComplianceStatus struct {
	GDPR  bool `json:"gdpr"`
	CCPA  bool `json:"ccpa"`
	SOC2  bool `json:"soc2"`
	HIPAA bool `json:"hipaa"`
}

// ComplianceStatusForTier computes the compliance assertions attached
// to a response based on the caller's tier.
func ComplianceStatusForTier(tier Tier) ComplianceStatus {
	status := ComplianceStatus{GDPR: true, CCPA: true}
	if tier == TierAdmin {
		status.SOC2 = true
		status.HIPAA = true
	}
	return status
}

// SecurityMetadata is attached to every successful response.
type SecurityMetadata struct {
	ValidationScore  float64          `json:"validation_score"`
	ThreatScore      float64          `json:"threat_score"`
	EncryptionLevel  string           `json:"encryption_level"`
	AuditTrail       []string         `json:"audit_trail"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
}

// SecureResponse is the gateway's reply to a SecureRequest.
type SecureResponse struct {
	RequestID        uuid.UUID        `json:"request_id"`
	Content          string           `json:"content"`
	Confidence       float64          `json:"confidence"`
	BackendModel     string           `json:"backend_model"`
	Usage            TokenUsage       `json:"usage"`
	Cached           bool             `json:"cached"`
	SecurityLevel    Severity         `json:"security_level"`
	SecurityMetadata SecurityMetadata `json:"security_metadata"`
}
