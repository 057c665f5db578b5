package validation

import (
	"sort"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

// neutralizedMarker replaces high-severity spans so the offending
// pattern is defanged without deleting surrounding context.
const neutralizedMarker = "[filtered]"

// Sanitize rewrites the spans already identified by failed checks.
// Critical-severity spans are stripped outright; high-severity spans
// are neutralized with a placeholder. Lower severities are left alone.
// Because it only touches identified spans, sanitization is idempotent:
// a second pass over the output finds nothing to rewrite.
func Sanitize(content string, violations []models.Violation) string {
	type span struct {
		start, end int
		strip      bool
	}

	var spans []span
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityCritical:
			for _, s := range v.Spans {
				spans = append(spans, span{start: s.Start, end: s.End, strip: true})
			}
		case models.SeverityHigh:
			for _, s := range v.Spans {
				spans = append(spans, span{start: s.Start, end: s.End, strip: false})
			}
		}
	}
	if len(spans) == 0 {
		return content
	}

	// Different checks can flag overlapping spans. Coalesce them before
	// rewriting so offsets always address the original content; a merged
	// span is stripped if any of its parts called for stripping.
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var merged []span
	for _, s := range spans {
		if s.start < 0 || s.end > len(content) || s.start >= s.end {
			continue
		}
		if n := len(merged); n > 0 && s.start <= merged[n-1].end {
			if s.end > merged[n-1].end {
				merged[n-1].end = s.end
			}
			merged[n-1].strip = merged[n-1].strip || s.strip
			continue
		}
		merged = append(merged, s)
	}

	// Rewrite back-to-front so earlier offsets stay valid.
	result := content
	for i := len(merged) - 1; i >= 0; i-- {
		s := merged[i]
		if s.strip {
			result = result[:s.start] + result[s.end:]
		} else {
			result = result[:s.start] + neutralizedMarker + result[s.end:]
		}
	}
	return result
}

// FilterResponse applies output-side sanitization to backend content.
// Executable-content patterns are stripped for every tier; non-admin
// tiers additionally lose embedded HTML containers.
func FilterResponse(content string, tier models.Tier) string {
	for _, p := range executableContentPatterns {
		content = p.ReplaceAllString(content, "")
	}
	if tier != models.TierAdmin {
		for _, p := range restrictedHTMLPatterns {
			content = p.ReplaceAllString(content, "")
		}
	}
	return content
}
