package validation

import (
	"regexp"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

var (
	// Prompt-injection patterns: instruction-override phrases,
	// script/template-injection markers, and dangerous API names.
	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above)\s+(instructions?|prompts?|commands?)`),
		regexp.MustCompile(`(?i)disregard\s+(all|previous|above|any)\s+(instructions?|rules|commands?)`),
		regexp.MustCompile(`(?i)forget\s+(everything|all\s+previous|your\s+(instructions?|rules))`),
		regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\s`),
		regexp.MustCompile(`(?i)pretend\s+(to\s+)?be\s+(a|an)\s`),
		regexp.MustCompile(`(?i)(reveal|show|print|repeat)\s+(your|the)\s+(system|original|hidden)\s+(prompt|instructions?)`),
		regexp.MustCompile(`<script[^>]*>`),
		regexp.MustCompile(`\{\{[^}]*\}\}`),
		regexp.MustCompile(`\$\{[^}]*\}`),
		regexp.MustCompile(`(?i)eval\s*\(`),
		regexp.MustCompile(`(?i)exec\s*\(`),
		regexp.MustCompile(`(?i)document\.cookie`),
		regexp.MustCompile(`(?i)process\.env`),
	}

	// Malicious-pattern set: injection-style syntax, path traversal,
	// and sensitive-data-shaped tokens.
	maliciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(union\s+select|drop\s+table|insert\s+into|delete\s+from)`),
		regexp.MustCompile(`\.\.[/\\]`),
		regexp.MustCompile(`(?i)(api[_-]?key|secret|password|credential|token)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{8,}`),
		regexp.MustCompile(`(?i)<\s*iframe`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)on(error|load|click|mouseover)\s*=`),
		regexp.MustCompile(`(?i)(rm\s+-rf|chmod\s+777|curl\s+.*\|\s*(ba)?sh)`),
	}

	// Realistic-looking personal information: names with honorifics
	// and street-address shapes.
	personalInfoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(Mr|Mrs|Ms|Dr|Prof)\.\s+[A-Z][a-z]+(\s+[A-Z][a-z]+)?`),
		regexp.MustCompile(`\b\d{1,5}\s+[A-Z][a-z]+\s+(Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`),
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	}

	// Script-like metadata keys or values.
	suspiciousMetadataKey   = regexp.MustCompile(`(?i)(script|eval|exec|onload|onerror|__proto__)`)
	suspiciousMetadataValue = regexp.MustCompile(`(?i)(<script|javascript\s*:|data:text/html)`)

	// Output-side executable content, stripped from every response.
	executableContentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\son\w+\s*=\s*["'][^"']*["']`),
	}

	// Broader HTML stripped for non-admin tiers.
	restrictedHTMLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`),
		regexp.MustCompile(`(?is)<object[^>]*>.*?</object>`),
		regexp.MustCompile(`(?is)<embed[^>]*>`),
		regexp.MustCompile(`(?is)<form[^>]*>.*?</form>`),
		regexp.MustCompile(`(?i)<link[^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]*>`),
	}
)

// scorePatterns runs a pattern set over content and produces a
// suspicion score in [0,1] plus the matched spans. The score is the
// matched character mass weighted and normalized by content length,
// with a bonus for high match counts (>5 and >2).
func scorePatterns(content string, patterns []*regexp.Regexp) (float64, []models.Span) {
	if len(content) == 0 {
		return 0, nil
	}

	var spans []models.Span
	for _, p := range patterns {
		for _, m := range p.FindAllStringIndex(content, -1) {
			spans = append(spans, models.Span{Start: m[0], End: m[1], Pattern: p.String()})
		}
	}
	if len(spans) == 0 {
		return 0, nil
	}

	matched := 0
	for _, s := range spans {
		matched += s.End - s.Start
	}

	score := float64(matched) * 3.0 / float64(len(content))
	if len(spans) > 5 {
		score += 0.2
	} else if len(spans) > 2 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, spans
}
