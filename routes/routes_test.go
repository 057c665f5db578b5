package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/app"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/auth"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/config"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/alerts"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/audit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/backend"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/gateway"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/ratelimit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/validation"
	"go.uber.org/zap"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLogEntry
}

func (m *memAuditRepo) InsertBatch(ctx context.Context, entries []*models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memAuditRepo) Query(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditLogEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

type zeroScorer struct{}

func (zeroScorer) Score(*models.SecureRequest, *models.SecurityContext) float64 { return 0 }

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req *models.SecureRequest) (*backend.GenerateResult, error) {
	return &backend.GenerateResult{Content: "done", Confidence: 0.9, Model: "writer-v2"}, nil
}

func newRouterEnv(t *testing.T) (*app.Dependencies, http.Handler) {
	t.Helper()
	logger := zap.NewNop()
	sessions := auth.NewSessionManager([]byte("routes-test-secret"), 24*time.Hour, logger)
	auditor := audit.NewLogger(&memAuditRepo{}, logger, audit.Config{BufferSize: 1024})

	svc := gateway.NewService(
		gateway.Policy{HighThreat: 0.8, CriticalThreat: 0.9, BlockDuration: 24 * time.Hour},
		sessions,
		ratelimit.NewRegistry(logger),
		validation.NewValidator(logger),
		zeroScorer{},
		stubGenerator{},
		auditor,
		alerts.NewDispatcherWithChannels(logger, alerts.NewLogChannel(logger)),
		logger,
	)

	deps := &app.Dependencies{
		Config:   &config.Config{},
		Logger:   logger,
		Auditor:  auditor,
		Sessions: sessions,
		Gateway:  svc,
	}
	return deps, SetupRoutes(deps)
}

func auditGet(router http.Handler, path, callerID, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if callerID != "" {
		r.Header.Set("X-Caller-ID", callerID)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestAuditRoutes_AnonymousRejected(t *testing.T) {
	deps, router := newRouterEnv(t)
	deps.Auditor.Record(models.NewAuditLogEntry("caller-9", models.AuditActionSecurityViolation, "generate"))

	for _, path := range []string{"/api/v1/audit/logs", "/api/v1/audit/compliance"} {
		w := auditGet(router, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.NotContains(t, w.Body.String(), "caller-9", path)
	}
}

func TestAuditRoutes_NonAdminTierRejected(t *testing.T) {
	deps, router := newRouterEnv(t)

	for _, tier := range []models.Tier{models.TierFree, models.TierPro} {
		token, err := deps.Sessions.Issue("caller-1", tier)
		require.NoError(t, err)

		w := auditGet(router, "/api/v1/audit/logs", "caller-1", token)
		assert.Equal(t, http.StatusForbidden, w.Code, tier)
	}
}

func TestAuditRoutes_AdminSessionAllowed(t *testing.T) {
	deps, router := newRouterEnv(t)
	deps.Auditor.Record(models.NewAuditLogEntry("caller-9", models.AuditActionSecurityViolation, "generate"))

	token, err := deps.Sessions.Issue("ops-admin", models.TierAdmin)
	require.NoError(t, err)

	logs := auditGet(router, "/api/v1/audit/logs", "ops-admin", token)
	require.Equal(t, http.StatusOK, logs.Code)
	assert.Contains(t, logs.Body.String(), "caller-9")

	report := auditGet(router, "/api/v1/audit/compliance", "ops-admin", token)
	require.Equal(t, http.StatusOK, report.Code)
	assert.Contains(t, report.Body.String(), "compliance_score")
}

func TestAuditRoutes_TokenBoundToCaller(t *testing.T) {
	deps, router := newRouterEnv(t)

	token, err := deps.Sessions.Issue("ops-admin", models.TierAdmin)
	require.NoError(t, err)

	w := auditGet(router, "/api/v1/audit/logs", "someone-else", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnmatchedRouteReturnsNotFound(t *testing.T) {
	_, router := newRouterEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}
