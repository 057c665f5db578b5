package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	AuditActionAIRequest         AuditAction = "ai_request"
	AuditActionAIRequestFailed   AuditAction = "ai_request_failed"
	AuditActionSecurityViolation AuditAction = "security_violation"
	AuditActionRateLimitExceeded AuditAction = "rate_limit_exceeded"
	AuditActionHighThreat        AuditAction = "high_threat_detected"
	AuditActionAccountBlocked    AuditAction = "account_blocked"
)

// AuditLogEntry is one immutable record in the security audit trail.
// Entries are append-only; they are never edited after creation.
type AuditLogEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Timestamp     time.Time       `json:"timestamp" db:"timestamp"`
	CallerID      string          `json:"caller_id" db:"caller_id"`
	Action        AuditAction     `json:"action" db:"action"`
	Resource      string          `json:"resource" db:"resource"`
	Success       bool            `json:"success" db:"success"`
	SecurityLevel Severity        `json:"security_level" db:"security_level"`
	ThreatScore   float64         `json:"threat_score" db:"threat_score"`
	Details       json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress     string          `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent     string          `json:"user_agent,omitempty" db:"user_agent"`
	SessionID     string          `json:"session_id,omitempty" db:"session_id"`
}

// TableName returns the table name for the AuditLogEntry model.
func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// NewAuditLogEntry creates a new entry with a fresh id and timestamp.
func NewAuditLogEntry(callerID string, action AuditAction, resource string) *AuditLogEntry {
	return &AuditLogEntry{
		ID:            uuid.New(),
		Timestamp:     time.Now(),
		CallerID:      callerID,
		Action:        action,
		Resource:      resource,
		Success:       true,
		SecurityLevel: SeverityLow,
	}
}

// WithOutcome sets the success flag and security level.
func (e *AuditLogEntry) WithOutcome(success bool, level Severity) *AuditLogEntry {
	e.Success = success
	e.SecurityLevel = level
	return e
}

// WithThreatScore sets the threat score observed for the request.
func (e *AuditLogEntry) WithThreatScore(score float64) *AuditLogEntry {
	e.ThreatScore = score
	return e
}

// WithDetails marshals and attaches opaque metadata.
func (e *AuditLogEntry) WithDetails(details interface{}) *AuditLogEntry {
	if data, err := json.Marshal(details); err == nil {
		e.Details = data
	}
	return e
}

// WithOrigin sets network and session metadata.
func (e *AuditLogEntry) WithOrigin(ipAddress, userAgent, sessionID string) *AuditLogEntry {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	e.SessionID = sessionID
	return e
}
