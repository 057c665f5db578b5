package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
)

// Compliance scoring weights. The score starts at 100 and is reduced
// per event, floored at zero.
const (
	violationPenalty  = 5
	highThreatPenalty = 3
	failurePenalty    = 2

	highThreatScore = 0.7
)

// ComplianceReport derives a read-only compliance aggregate over the
// audit history in [start, end]. When callerID is non-empty the window
// is restricted to that caller. Distributions and counts come from a
// single linear scan of the queried entries.
func (l *Logger) ComplianceReport(ctx context.Context, start, end time.Time, callerID string) (*models.ComplianceReport, error) {
	entries, err := l.Query(ctx, repositories.AuditFilter{
		CallerID: callerID,
		Start:    start,
		End:      end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load audit window: %w", err)
	}

	report := &models.ComplianceReport{
		Period: models.ReportPeriod{Start: start, End: end},
		Summary: models.ReportSummary{
			UserActivity: make(map[string]int),
		},
		Details: models.ReportDetails{
			ThreatScoreDistribution: map[string]int{"0.0-0.3": 0, "0.3-0.7": 0, "0.7-1.0": 0},
			SecurityLevelBreakdown:  make(map[string]int),
			ActionCounts:            make(map[string]int),
		},
	}

	score := 100
	for _, e := range entries {
		report.Summary.TotalEvents++
		report.Summary.UserActivity[e.CallerID]++
		report.Details.ActionCounts[string(e.Action)]++
		report.Details.SecurityLevelBreakdown[string(e.SecurityLevel)]++

		switch {
		case e.ThreatScore > highThreatScore:
			report.Details.ThreatScoreDistribution["0.7-1.0"]++
		case e.ThreatScore >= 0.3:
			report.Details.ThreatScoreDistribution["0.3-0.7"]++
		default:
			report.Details.ThreatScoreDistribution["0.0-0.3"]++
		}

		if e.Action == models.AuditActionSecurityViolation {
			report.Summary.SecurityViolations++
			score -= violationPenalty
		}
		if e.ThreatScore > highThreatScore {
			report.Summary.HighThreatEvents++
			score -= highThreatPenalty
		}
		if !e.Success {
			report.Details.FailedActions++
			score -= failurePenalty
		}
	}
	if score < 0 {
		score = 0
	}
	report.Summary.ComplianceScore = score
	report.Recommendations = buildRecommendations(report)

	return report, nil
}

// Recommendation thresholds. Fixed advice strings keyed off window
// aggregates.
func buildRecommendations(r *models.ComplianceReport) []string {
	var recs []string
	if r.Summary.HighThreatEvents > 10 {
		recs = append(recs, "High number of high-threat events detected; review caller risk profiles and tighten threat thresholds")
	}
	if r.Summary.SecurityViolations > 5 {
		recs = append(recs, "Frequent security violations; review validation patterns and notify repeat offenders")
	}
	if r.Details.FailedActions > 20 {
		recs = append(recs, "Elevated failure rate; investigate backend availability and pipeline errors")
	}
	if r.Summary.ComplianceScore < 70 {
		recs = append(recs, "Compliance score below threshold; schedule a security posture review")
	}
	if len(recs) == 0 {
		recs = append(recs, "Security posture within normal parameters")
	}
	return recs
}
