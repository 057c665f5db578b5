// Package threat provides numeric threat assessment for incoming
// requests. The scorer is a pure function of (request, context) so the
// heuristic can be swapped for a trained classifier without touching
// the gateway contract.
package threat

import (
	"strings"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

// Scorer assesses how likely a request is malicious, independent of
// whether it failed explicit pattern checks. Scores are in [0,1].
type Scorer interface {
	Score(req *models.SecureRequest, sctx *models.SecurityContext) float64
}

const largeContentThreshold = 5000

var privilegedKeywords = []string{
	"admin",
	"root",
	"sudo",
	"superuser",
	"privilege",
	"password",
	"bypass",
}

// HeuristicScorer is the reference rule-based scorer.
type HeuristicScorer struct{}

// NewHeuristicScorer creates the default scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score implements Scorer. It accumulates fixed penalties for oversized
// content, privileged keywords, and an elevated caller risk profile,
// clamped to [0,1].
func (s *HeuristicScorer) Score(req *models.SecureRequest, sctx *models.SecurityContext) float64 {
	score := 0.0

	if len(req.Content) > largeContentThreshold {
		score += 0.1
	}

	lowered := strings.ToLower(req.Content)
	for _, kw := range privilegedKeywords {
		if strings.Contains(lowered, kw) {
			score += 0.2
			break
		}
	}

	if sctx.RiskScore() > 0.5 {
		score += 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}
