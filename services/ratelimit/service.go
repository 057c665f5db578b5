// Package ratelimit provides per-caller, per-tier request admission
// control with burst ceilings and adaptive limits. Limiter instances
// are obtained through an injected Registry so tests can run against
// isolated state.
package ratelimit

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"go.uber.org/zap"
)

// Behavior classifies a caller's recent activity. The classification
// maps to a multiplier applied to the base limit at each window reset.
type Behavior string

const (
	BehaviorNormal       Behavior = "normal"
	BehaviorHighActivity Behavior = "high_activity"
	BehaviorLowActivity  Behavior = "low_activity"
	BehaviorSuspicious   Behavior = "suspicious"
)

// Multiplier returns the adaptive limit multiplier for the behavior.
func (b Behavior) Multiplier() float64 {
	switch b {
	case BehaviorHighActivity:
		return 1.5
	case BehaviorLowActivity:
		return 0.7
	case BehaviorSuspicious:
		return 0.3
	default:
		return 1.0
	}
}

// Classifier decides the adaptive behavior for a caller. The static
// classifier always reports normal; it is the extension point for an
// activity-based implementation.
type Classifier interface {
	Classify(callerID string, tier models.Tier) Behavior
}

// StaticClassifier always returns the same behavior.
type StaticClassifier struct {
	Behavior Behavior
}

// Classify implements Classifier.
func (c StaticClassifier) Classify(string, models.Tier) Behavior {
	return c.Behavior
}

// TierLimit holds the configured limits for one tier.
type TierLimit struct {
	Limit  int
	Window time.Duration
	Burst  int
}

// DefaultTierLimits returns the per-tier limit table.
func DefaultTierLimits() map[models.Tier]TierLimit {
	return map[models.Tier]TierLimit{
		models.TierFree:  {Limit: 100, Window: time.Hour, Burst: 10},
		models.TierPro:   {Limit: 500, Window: time.Hour, Burst: 50},
		models.TierAdmin: {Limit: 2000, Window: time.Hour, Burst: 200},
	}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Tier       models.Tier
	Reason     string
}

// Headers returns the standard rate-limit response headers for the
// decision.
func (d Decision) Headers() map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(d.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(d.Remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(d.ResetAt.Unix(), 10),
		"X-RateLimit-User-Tier": string(d.Tier),
	}
}

// limiter holds the admission state for one (caller, tier) pair.
// Counter mutation is atomic per key: all reads and writes happen
// under mu.
type limiter struct {
	mu          sync.Mutex
	base        TierLimit
	limit       int // base limit with the adaptive multiplier applied
	count       int
	windowStart time.Time
	behavior    Behavior
}

// Registry owns the limiter instances, one per (caller, tier) pair.
type Registry struct {
	mu         sync.Mutex
	limiters   map[string]*limiter
	tiers      map[models.Tier]TierLimit
	classifier Classifier
	now        func() time.Time
	logger     *zap.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the registry's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithClassifier overrides the behavior classifier.
func WithClassifier(c Classifier) Option {
	return func(r *Registry) { r.classifier = c }
}

// WithTierLimits overrides the per-tier limit table.
func WithTierLimits(tiers map[models.Tier]TierLimit) Option {
	return func(r *Registry) { r.tiers = tiers }
}

// NewRegistry creates a limiter registry with the default tier table.
func NewRegistry(logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		limiters:   make(map[string]*limiter),
		tiers:      DefaultTierLimits(),
		classifier: StaticClassifier{Behavior: BehaviorNormal},
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func scopeKey(callerID string, tier models.Tier) string {
	return fmt.Sprintf("caller:%s:tier:%s", callerID, tier)
}

func (r *Registry) limiterFor(callerID string, tier models.Tier) *limiter {
	key := scopeKey(callerID, tier)

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}

	base, ok := r.tiers[tier]
	if !ok {
		base = r.tiers[models.TierFree]
	}
	behavior := r.classifier.Classify(callerID, tier)
	l := &limiter{
		base:        base,
		limit:       adaptiveLimit(base.Limit, behavior),
		windowStart: r.now(),
		behavior:    behavior,
	}
	r.limiters[key] = l
	return l
}

func adaptiveLimit(base int, behavior Behavior) int {
	limit := int(float64(base) * behavior.Multiplier())
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Acquire performs one admission check for the caller. The counter is
// incremented first; the request is denied when the post-increment
// count exceeds the configured limit or the burst ceiling. Burst is
// evaluated on every call so spikes are caught even inside a fresh
// window.
func (r *Registry) Acquire(callerID string, tier models.Tier) Decision {
	l := r.limiterFor(callerID, tier)
	now := r.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.windowStart) >= l.base.Window {
		l.count = 0
		l.windowStart = now
		l.behavior = r.classifier.Classify(callerID, tier)
		l.limit = adaptiveLimit(l.base.Limit, l.behavior)
	}

	resetAt := l.windowStart.Add(l.base.Window)
	l.count++

	decision := Decision{
		Allowed: true,
		Limit:   l.limit,
		ResetAt: resetAt,
		Tier:    tier,
	}

	switch {
	case l.count > l.limit:
		decision.Allowed = false
		decision.Remaining = 0
		decision.RetryAfter = resetAt.Sub(now)
		decision.Reason = fmt.Sprintf("exceeded %d requests per window", l.limit)
	case l.count > l.base.Burst:
		decision.Allowed = false
		decision.Remaining = l.limit - l.count
		decision.RetryAfter = resetAt.Sub(now)
		decision.Reason = fmt.Sprintf("exceeded burst ceiling of %d requests", l.base.Burst)
	default:
		decision.Remaining = l.limit - l.count
	}

	if !decision.Allowed {
		r.logger.Warn("rate limit exceeded",
			zap.String("caller_id", callerID),
			zap.String("tier", string(tier)),
			zap.Int("count", l.count),
			zap.String("reason", decision.Reason))
	}

	return decision
}

// Usage reports the current window usage for a caller without
// consuming a request.
func (r *Registry) Usage(callerID string, tier models.Tier) (count, limit int, resetAt time.Time) {
	l := r.limiterFor(callerID, tier)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count, l.limit, l.windowStart.Add(l.base.Window)
}

// TierInfo returns the configured limits for a tier.
func (r *Registry) TierInfo(tier models.Tier) TierLimit {
	if base, ok := r.tiers[tier]; ok {
		return base
	}
	return r.tiers[models.TierFree]
}
