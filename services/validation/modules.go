package validation

import (
	"fmt"
	"strings"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

// Supported writing-module targets. The set is closed: each module has
// its own check branch below, and unknown modules are skipped rather
// than rejected.
const (
	ModuleStoryOutline     = "story_outline"
	ModuleCharacterProfile = "character_profile"
	ModuleStyleRewrite     = "style_rewrite"
	ModuleSummary          = "summary"
)

const maxOutlineNodes = 200

// checkTargetModule runs the module-specific check for the request's
// target, returning ok=false when the module is unknown.
func checkTargetModule(req *models.SecureRequest) (models.ValidationCheck, bool) {
	check := models.ValidationCheck{
		Kind:     models.CheckTargetModule,
		Severity: models.SeverityLow,
		Passed:   true,
	}

	switch req.TargetModule {
	case ModuleStoryOutline:
		nodes := 0
		for _, line := range strings.Split(req.Content, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
				nodes++
			}
		}
		if nodes > maxOutlineNodes {
			check.Passed = false
			check.Severity = models.SeverityMedium
			check.Score = float64(nodes) / float64(maxOutlineNodes)
			check.Detail = fmt.Sprintf("outline has %d nodes, maximum is %d", nodes, maxOutlineNodes)
		}

	case ModuleCharacterProfile:
		if req.AuxiliaryData == nil {
			check.Passed = false
			check.Severity = models.SeverityMedium
			check.Score = 0.5
			check.Detail = "character profile requests require an auxiliary profile payload"
		}

	case ModuleStyleRewrite:
		if _, ok := req.Metadata["style"]; !ok {
			check.Passed = false
			check.Severity = models.SeverityLow
			check.Score = 0.2
			check.Detail = "style rewrite requests require a style metadata key"
		}

	case ModuleSummary:
		if len(strings.TrimSpace(req.Content)) < 50 {
			check.Passed = false
			check.Severity = models.SeverityLow
			check.Score = 0.2
			check.Detail = "summary requests need at least 50 characters of source text"
		}

	default:
		return check, false
	}

	return check, true
}
