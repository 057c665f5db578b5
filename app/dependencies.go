// Package app wires the gateway's dependencies together. This is the
// central dependency-injection point.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/auth"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/config"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/observability"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories/postgres"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/alerts"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/audit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/backend"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/gateway"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/ratelimit"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/threat"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services/validation"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Persistence
	AuditRepo repositories.AuditRepository

	// Services
	Auditor   *audit.Logger
	Sessions  *auth.SessionManager
	Limits    *ratelimit.Registry
	Validator *validation.Validator
	Scorer    threat.Scorer
	Generator backend.Generator
	Alerts    *alerts.Dispatcher
	Gateway   *gateway.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := deps.initAudit(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db
	d.AuditRepo = postgres.NewAuditRepository(db, d.Logger)

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

func (d *Dependencies) initAudit(cfg *config.Config) error {
	auditCfg := audit.Config{
		BufferSize:    cfg.Audit.BufferSize,
		FlushInterval: cfg.Audit.FlushInterval,
		FlushTimeout:  cfg.Audit.FlushTimeout,
	}
	d.Auditor = audit.NewLogger(d.AuditRepo, d.Logger, auditCfg)
	d.Auditor.SetFlushErrorHook(func(error) {
		observability.AuditFlushFailuresTotal.Inc()
	})
	return d.Auditor.Start()
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Sessions = auth.NewSessionManager([]byte(cfg.Security.SessionSecret), cfg.Security.SessionTTL, d.Logger)
	d.Limits = ratelimit.NewRegistry(d.Logger, ratelimit.WithTierLimits(tierLimitsFromConfig(cfg.RateLimit)))
	d.Validator = validation.NewValidator(d.Logger,
		validation.WithIntegrityChecking(cfg.Security.IntegrityChecking))
	d.Scorer = threat.NewHeuristicScorer()
	d.Generator = backend.NewHTTPGenerator(cfg.Backend, d.Logger)
	d.Alerts = alerts.NewDispatcher(cfg.Alerts, d.Logger)

	d.Gateway = gateway.NewService(
		gateway.PolicyFromConfig(cfg.Security),
		d.Sessions,
		d.Limits,
		d.Validator,
		d.Scorer,
		d.Generator,
		d.Auditor,
		d.Alerts,
		d.Logger,
	)
}

// tierLimitsFromConfig converts rate limit config to the limiter's
// tier table, falling back to built-in defaults for zero values.
func tierLimitsFromConfig(cfg config.RateLimitConfig) map[models.Tier]ratelimit.TierLimit {
	defaults := ratelimit.DefaultTierLimits()
	window := cfg.Window
	if window == 0 {
		window = time.Hour
	}

	pick := func(tier models.Tier, limit, burst int) ratelimit.TierLimit {
		base := defaults[tier]
		if limit > 0 {
			base.Limit = limit
		}
		if burst > 0 {
			base.Burst = burst
		}
		base.Window = window
		return base
	}

	return map[models.Tier]ratelimit.TierLimit{
		models.TierFree:  pick(models.TierFree, cfg.FreeLimit, cfg.FreeBurst),
		models.TierPro:   pick(models.TierPro, cfg.ProLimit, cfg.ProBurst),
		models.TierAdmin: pick(models.TierAdmin, cfg.AdminLimit, cfg.AdminBurst),
	}
}

// Close drains in-flight alerts and the audit buffer, then releases
// infrastructure resources.
func (d *Dependencies) Close(ctx context.Context) error {
	var firstErr error
	if d.Alerts != nil {
		d.Alerts.Drain()
	}
	if d.Auditor != nil {
		if err := d.Auditor.Close(ctx); err != nil {
			d.Logger.Error("audit drain failed on shutdown", zap.Error(err))
			firstErr = err
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("database close failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
