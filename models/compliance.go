package models

import "time"

// ReportPeriod bounds the audit window a compliance report covers.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportSummary holds the headline numbers of a compliance report.
type ReportSummary struct {
	TotalEvents        int            `json:"total_events"`
	SecurityViolations int            `json:"security_violations"`
	HighThreatEvents   int            `json:"high_threat_events"`
	UserActivity       map[string]int `json:"user_activity"`
	ComplianceScore    int            `json:"compliance_score"`
}

// ReportDetails carries the distributions computed over the window.
type ReportDetails struct {
	ThreatScoreDistribution map[string]int `json:"threat_score_distribution"`
	SecurityLevelBreakdown  map[string]int `json:"security_level_breakdown"`
	ActionCounts            map[string]int `json:"action_counts"`
	FailedActions           int            `json:"failed_actions"`
}

// ComplianceReport is a derived, read-only aggregate over a window of
// audit history. It is recomputed on demand, never stored.
type ComplianceReport struct {
	Period          ReportPeriod  `json:"period"`
	Summary         ReportSummary `json:"summary"`
	Details         ReportDetails `json:"details"`
	Recommendations []string      `json:"recommendations"`
}
