package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

// ErrorKind represents the category of a pipeline failure.
type ErrorKind string

const (
	KindAuthRequired       ErrorKind = "auth_required"
	KindInvalidSession     ErrorKind = "invalid_session"
	KindRateLimitExceeded  ErrorKind = "rate_limit_exceeded"
	KindValidationFailed   ErrorKind = "validation_failed"
	KindThreatCritical     ErrorKind = "threat_critical"
	KindForwardingFailure  ErrorKind = "forwarding_failure"
	KindPersistenceFailure ErrorKind = "persistence_failure"
	KindInternal           ErrorKind = "internal"
)

// SecurityError is the structured error every pipeline stage returns on
// abort. The gateway matches on Kind to decide which audit entry to
// write and which HTTP status to surface.
type SecurityError struct {
	Kind       ErrorKind
	Message    string
	Err        error
	Details    map[string]interface{}
	RetryAfter time.Duration      // set for rate-limit aborts
	Violations []models.Violation // set for validation aborts
	RiskLevel  models.Severity
}

// Error implements the error interface.
func (e *SecurityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *SecurityError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is by matching on Kind.
func (e *SecurityError) Is(target error) bool {
	t, ok := target.(*SecurityError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail adds a detail to the error.
func (e *SecurityError) WithDetail(key string, value interface{}) *SecurityError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewSecurityError creates a new security error.
func NewSecurityError(kind ErrorKind, message string, err error) *SecurityError {
	return &SecurityError{
		Kind:    kind,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// NewRateLimitError creates a rate-limit abort carrying the retry-after
// computed from the remaining window.
func NewRateLimitError(message string, retryAfter time.Duration) *SecurityError {
	e := NewSecurityError(KindRateLimitExceeded, message, nil)
	e.RetryAfter = retryAfter
	e.RiskLevel = models.SeverityMedium
	return e
}

// NewValidationError creates a validation abort carrying the violation
// list and the consolidated risk level.
func NewValidationError(message string, violations []models.Violation, riskLevel models.Severity) *SecurityError {
	e := NewSecurityError(KindValidationFailed, message, nil)
	e.Violations = violations
	e.RiskLevel = riskLevel
	return e
}

// Sentinel errors for errors.Is matching.
var (
	ErrAuthRequired       = NewSecurityError(KindAuthRequired, "authentication required", nil)
	ErrInvalidSession     = NewSecurityError(KindInvalidSession, "invalid or expired session", nil)
	ErrRateLimitExceeded  = NewSecurityError(KindRateLimitExceeded, "rate limit exceeded", nil)
	ErrValidationFailed   = NewSecurityError(KindValidationFailed, "request validation failed", nil)
	ErrThreatCritical     = NewSecurityError(KindThreatCritical, "caller blocked for critical threat", nil)
	ErrForwardingFailure  = NewSecurityError(KindForwardingFailure, "backend unreachable", nil)
	ErrPersistenceFailure = NewSecurityError(KindPersistenceFailure, "audit persistence failed", nil)
)

// KindOf returns the ErrorKind of err, or KindInternal when err is not
// a SecurityError.
func KindOf(err error) ErrorKind {
	var secErr *SecurityError
	if errors.As(err, &secErr) {
		return secErr.Kind
	}
	return KindInternal
}

// AsSecurityError converts any error into a SecurityError, wrapping
// unknown errors as internal.
func AsSecurityError(err error) *SecurityError {
	var secErr *SecurityError
	if errors.As(err, &secErr) {
		return secErr
	}
	return NewSecurityError(KindInternal, "internal error", err)
}

// IsRateLimitError checks if an error is a rate-limit abort.
func IsRateLimitError(err error) bool {
	return KindOf(err) == KindRateLimitExceeded
}

// IsValidationError checks if an error is a validation abort.
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidationFailed
}

// IsAuthError checks if an error is an authentication abort.
func IsAuthError(err error) bool {
	kind := KindOf(err)
	return kind == KindAuthRequired || kind == KindInvalidSession
}

// IsForwardingError checks if an error is a backend forwarding failure.
func IsForwardingError(err error) bool {
	return KindOf(err) == KindForwardingFailure
}

// HTTPStatus maps an error kind to the HTTP status surfaced to callers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthRequired, KindInvalidSession:
		return 401
	case KindRateLimitExceeded:
		return 429
	case KindValidationFailed:
		return 400
	case KindThreatCritical:
		return 403
	case KindForwardingFailure:
		return 502
	default:
		return 500
	}
}
