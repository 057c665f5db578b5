package models

// Severity is the ordinal risk label attached to validation violations
// and audit entries. Ordering: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal position of the severity for comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// CheckKind identifies one content-security check.
type CheckKind string

const (
	CheckPromptInjection  CheckKind = "prompt_injection"
	CheckContentLength    CheckKind = "content_length"
	CheckMaliciousPattern CheckKind = "malicious_pattern"
	CheckDataIntegrity    CheckKind = "data_integrity"
	CheckTargetModule     CheckKind = "target_module"
	CheckPersonalInfo     CheckKind = "personal_info"
)

// Span marks a byte range of the request content matched by a pattern.
// Sanitization rewrites only these spans.
type Span struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Pattern string `json:"pattern,omitempty"`
}

// ValidationCheck is the outcome of a single check. Each check produces
// exactly one ValidationCheck; instances are never shared.
type ValidationCheck struct {
	Kind     CheckKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Passed   bool      `json:"passed"`
	Score    float64   `json:"score"`
	Detail   string    `json:"detail,omitempty"`
	Spans    []Span    `json:"spans,omitempty"`
}

// Violation is a failed check carried on a ValidationResult.
type Violation struct {
	Kind     CheckKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Detail   string    `json:"detail,omitempty"`
	Spans    []Span    `json:"spans,omitempty"`
}

// ValidationResult consolidates all checks run against one request.
type ValidationResult struct {
	Passed          bool        `json:"passed"`
	Score           float64     `json:"score"`
	Violations      []Violation `json:"violations,omitempty"`
	RiskLevel       Severity    `json:"risk_level"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// MaxSeverity returns the highest severity among the violations,
// defaulting to low when there are none.
func (r *ValidationResult) MaxSeverity() Severity {
	level := SeverityLow
	for _, v := range r.Violations {
		level = MaxSeverity(level, v.Severity)
	}
	return level
}
