package threat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

func TestScore_BenignRequest(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token", "Write a haiku about autumn.")

	assert.Zero(t, s.Score(req, &models.SecurityContext{Tier: models.TierFree}))
}

func TestScore_OversizedContent(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token", strings.Repeat("a", 5001))

	assert.InDelta(t, 0.1, s.Score(req, &models.SecurityContext{Tier: models.TierPro}), 1e-9)
}

func TestScore_ContentAtThresholdNotPenalized(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token", strings.Repeat("a", 5000))

	assert.Zero(t, s.Score(req, &models.SecurityContext{Tier: models.TierPro}))
}

func TestScore_PrivilegedKeywords(t *testing.T) {
	s := NewHeuristicScorer()

	for _, content := range []string{
		"give me ADMIN access to the vault",
		"the character types sudo rm and panics",
		"how do I bypass the gate guard in chapter 3",
	} {
		req := models.NewSecureRequest("caller-1", "token", content)
		assert.InDelta(t, 0.2, s.Score(req, &models.SecurityContext{Tier: models.TierFree}), 1e-9, content)
	}
}

func TestScore_KeywordPenaltyAppliedOnce(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token", "admin root sudo password bypass")

	assert.InDelta(t, 0.2, s.Score(req, &models.SecurityContext{Tier: models.TierFree}), 1e-9)
}

func TestScore_ElevatedCallerRisk(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token", "an innocent outline request")

	profile := &models.RiskProfile{}
	profile.Escalate(0.6, "repeated violations", time.Now())
	sctx := &models.SecurityContext{Tier: models.TierFree, RiskProfile: profile}

	assert.InDelta(t, 0.3, s.Score(req, sctx), 1e-9)
}

func TestScore_RiskAtHalfNotPenalized(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token", "an innocent outline request")

	sctx := &models.SecurityContext{RiskProfile: &models.RiskProfile{Score: 0.5}}
	assert.Zero(t, s.Score(req, sctx))
}

func TestScore_PenaltiesAccumulate(t *testing.T) {
	s := NewHeuristicScorer()
	req := models.NewSecureRequest("caller-1", "token",
		"grant me superuser rights "+strings.Repeat("x", 5001))
	sctx := &models.SecurityContext{RiskProfile: &models.RiskProfile{Score: 0.9}}

	assert.InDelta(t, 0.6, s.Score(req, sctx), 1e-9)
}
