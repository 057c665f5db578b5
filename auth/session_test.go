package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services"
	"go.uber.org/zap"
)

var testSecret = []byte("test-signing-secret")

func newTestManager() *SessionManager {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return NewSessionManager(testSecret, 24*time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return base })
}

func TestIssueAndAuthenticate(t *testing.T) {
	m := newTestManager()

	token, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sessionID, err := m.Authenticate("caller-1", token)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
}

func TestIssue_RequiresCallerID(t *testing.T) {
	m := newTestManager()

	_, err := m.Issue("", models.TierFree)
	assert.Error(t, err)
}

func TestIssue_RejectsUnknownTier(t *testing.T) {
	m := newTestManager()

	_, err := m.Issue("caller-1", models.Tier("enterprise"))
	assert.Error(t, err)
}

func TestVerify_ReturnsIssuedTier(t *testing.T) {
	m := newTestManager()

	for _, tier := range []models.Tier{models.TierFree, models.TierPro, models.TierAdmin} {
		token, err := m.Issue("caller-1", tier)
		require.NoError(t, err)

		claims, err := m.Verify("caller-1", token)
		require.NoError(t, err)
		assert.Equal(t, tier, claims.Tier)
		assert.Equal(t, "caller-1", claims.Subject)
	}
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	m := newTestManager()
	token, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	_, err = m.Authenticate("", token)
	assert.Equal(t, services.KindAuthRequired, services.KindOf(err))

	_, err = m.Authenticate("caller-1", "")
	assert.Equal(t, services.KindAuthRequired, services.KindOf(err))
}

func TestAuthenticate_WrongCaller(t *testing.T) {
	m := newTestManager()
	token, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	_, err = m.Authenticate("caller-2", token)
	assert.Equal(t, services.KindInvalidSession, services.KindOf(err))
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	current := base
	m := NewSessionManager(testSecret, 24*time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return current })

	token, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	current = base.Add(24*time.Hour + time.Minute)
	_, err = m.Authenticate("caller-1", token)
	assert.Equal(t, services.KindInvalidSession, services.KindOf(err))
}

func TestAuthenticate_TokenStillValidBeforeExpiry(t *testing.T) {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	current := base
	m := NewSessionManager(testSecret, 24*time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return current })

	token, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	current = base.Add(23 * time.Hour)
	_, err = m.Authenticate("caller-1", token)
	assert.NoError(t, err)
}

func TestAuthenticate_TamperedToken(t *testing.T) {
	m := newTestManager()
	token, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	_, err = m.Authenticate("caller-1", token+"x")
	assert.Equal(t, services.KindInvalidSession, services.KindOf(err))
}

func TestAuthenticate_TokenSignedWithDifferentSecret(t *testing.T) {
	other := NewSessionManager([]byte("other-secret"), 24*time.Hour, zap.NewNop())
	token, err := other.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	m := newTestManager()
	_, err = m.Authenticate("caller-1", token)
	assert.Equal(t, services.KindInvalidSession, services.KindOf(err))
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	m := newTestManager()

	_, err := m.Authenticate("caller-1", "not-a-jwt")
	assert.True(t, services.IsAuthError(err))
}

func TestIssue_SessionIDsAreUnique(t *testing.T) {
	m := newTestManager()

	t1, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)
	t2, err := m.Issue("caller-1", models.TierFree)
	require.NoError(t, err)

	id1, err := m.Authenticate("caller-1", t1)
	require.NoError(t, err)
	id2, err := m.Authenticate("caller-1", t2)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}
