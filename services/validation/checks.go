package validation

import (
	"fmt"
	"strings"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

// checkPromptInjection scans content for instruction-override phrases
// and injection markers. Critical above 0.8, high above 0.5, passes
// only below 0.5.
func checkPromptInjection(req *models.SecureRequest) models.ValidationCheck {
	score, spans := scorePatterns(req.Content, injectionPatterns)

	severity := models.SeverityLow
	switch {
	case score > 0.8:
		severity = models.SeverityCritical
	case score > 0.5:
		severity = models.SeverityHigh
	}

	check := models.ValidationCheck{
		Kind:     models.CheckPromptInjection,
		Severity: severity,
		Passed:   score < 0.5,
		Score:    score,
		Spans:    spans,
	}
	if !check.Passed {
		check.Detail = fmt.Sprintf("injection suspicion score %.2f across %d matches", score, len(spans))
	}
	return check
}

// checkContentLength compares content length against the caller tier's
// ceiling. The score is length/ceiling; severity scales with overage.
func checkContentLength(req *models.SecureRequest, sctx *models.SecurityContext) models.ValidationCheck {
	ceiling := sctx.Tier.ContentCeiling()
	score := float64(len(req.Content)) / float64(ceiling)

	severity := models.SeverityLow
	switch {
	case score > 2.0:
		severity = models.SeverityCritical
	case score > 1.5:
		severity = models.SeverityHigh
	case score > 1.0:
		severity = models.SeverityMedium
	}

	check := models.ValidationCheck{
		Kind:     models.CheckContentLength,
		Severity: severity,
		Passed:   len(req.Content) <= ceiling,
		Score:    score,
	}
	if !check.Passed {
		check.Detail = fmt.Sprintf("content length %d exceeds %s tier ceiling %d", len(req.Content), sctx.Tier, ceiling)
	}
	return check
}

// checkMaliciousPattern scans for injection syntax, path traversal,
// and credential-shaped tokens. Fails at score >= 0.3.
func checkMaliciousPattern(req *models.SecureRequest) models.ValidationCheck {
	score, spans := scorePatterns(req.Content, maliciousPatterns)

	severity := models.SeverityLow
	switch {
	case score > 0.7:
		severity = models.SeverityCritical
	case score >= 0.3:
		severity = models.SeverityHigh
	}

	check := models.ValidationCheck{
		Kind:     models.CheckMaliciousPattern,
		Severity: severity,
		Passed:   score < 0.3,
		Score:    score,
		Spans:    spans,
	}
	if !check.Passed {
		check.Detail = fmt.Sprintf("malicious pattern score %.2f", score)
	}
	return check
}

// checkDataIntegrity rejects empty content, flags script-like metadata,
// and validates any auxiliary profile payload.
func checkDataIntegrity(req *models.SecureRequest) models.ValidationCheck {
	check := models.ValidationCheck{
		Kind:     models.CheckDataIntegrity,
		Severity: models.SeverityLow,
		Passed:   true,
	}

	if strings.TrimSpace(req.Content) == "" {
		check.Passed = false
		check.Severity = models.SeverityHigh
		check.Score = 1.0
		check.Detail = "content is empty or whitespace-only"
		return check
	}

	for k, v := range req.Metadata {
		if suspiciousMetadataKey.MatchString(k) || suspiciousMetadataValue.MatchString(v) {
			check.Passed = false
			check.Severity = models.SeverityMedium
			check.Score = 0.6
			check.Detail = fmt.Sprintf("suspicious metadata key %q", k)
			return check
		}
	}

	if aux := req.AuxiliaryData; aux != nil {
		if strings.TrimSpace(aux.Name) == "" || strings.TrimSpace(aux.Role) == "" {
			check.Passed = false
			check.Severity = models.SeverityMedium
			check.Score = 0.5
			check.Detail = "auxiliary profile is missing required identifying fields"
			return check
		}
		freeText := aux.Description + "\n" + strings.Join(aux.Traits, "\n")
		if score, _ := scorePatterns(freeText, maliciousPatterns); score >= 0.3 {
			check.Passed = false
			check.Severity = models.SeverityHigh
			check.Score = score
			check.Detail = "auxiliary profile free text contains malicious patterns"
			return check
		}
	}

	return check
}

// checkPersonalInfo scores auxiliary profile payloads for realistic
// personal information independently of the malicious-pattern score.
// Only run when a profile payload is present.
func checkPersonalInfo(req *models.SecureRequest) models.ValidationCheck {
	aux := req.AuxiliaryData
	text := aux.Description + "\n" + strings.Join(aux.Traits, "\n") + "\n" + aux.Name

	score, spans := scorePatterns(text, personalInfoPatterns)

	check := models.ValidationCheck{
		Kind:     models.CheckPersonalInfo,
		Severity: models.SeverityLow,
		Passed:   len(spans) == 0,
		Score:    score,
	}
	if !check.Passed {
		check.Severity = models.SeverityMedium
		check.Detail = fmt.Sprintf("auxiliary profile contains %d realistic personal-information patterns", len(spans))
	}
	return check
}
