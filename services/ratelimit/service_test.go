package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewRegistry(zap.NewNop(), opts...), clock
}

func TestAcquire_AllowsWithinLimit(t *testing.T) {
	r, _ := newTestRegistry(t)

	d := r.Acquire("caller-1", models.TierFree)
	require.True(t, d.Allowed)
	assert.Equal(t, 100, d.Limit)
	assert.Equal(t, 99, d.Remaining)
	assert.Equal(t, models.TierFree, d.Tier)
}

func TestAcquire_BurstCheckedEveryCall(t *testing.T) {
	r, _ := newTestRegistry(t)

	// Free tier: limit 100, burst 10. The 11th request in a fresh
	// window must be denied by the burst ceiling even though the
	// window limit is far away.
	for i := 0; i < 10; i++ {
		d := r.Acquire("caller-1", models.TierFree)
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
	}

	d := r.Acquire("caller-1", models.TierFree)
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "burst")
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestAcquire_WindowResetAdmitsAgain(t *testing.T) {
	r, clock := newTestRegistry(t)

	for i := 0; i < 11; i++ {
		r.Acquire("caller-1", models.TierFree)
	}
	denied := r.Acquire("caller-1", models.TierFree)
	require.False(t, denied.Allowed)

	clock.Advance(time.Hour)

	d := r.Acquire("caller-1", models.TierFree)
	require.True(t, d.Allowed)
	assert.Equal(t, 99, d.Remaining)
}

func TestAcquire_LimitExceeded(t *testing.T) {
	r, _ := newTestRegistry(t, WithTierLimits(map[models.Tier]TierLimit{
		models.TierFree: {Limit: 3, Window: time.Hour, Burst: 10},
	}))

	for i := 0; i < 3; i++ {
		require.True(t, r.Acquire("caller-1", models.TierFree).Allowed)
	}
	d := r.Acquire("caller-1", models.TierFree)
	require.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Contains(t, d.Reason, "per window")
}

func TestAcquire_CallersAreIsolated(t *testing.T) {
	r, _ := newTestRegistry(t)

	for i := 0; i < 11; i++ {
		r.Acquire("noisy", models.TierFree)
	}
	require.False(t, r.Acquire("noisy", models.TierFree).Allowed)

	d := r.Acquire("quiet", models.TierFree)
	assert.True(t, d.Allowed)
}

func TestAcquire_AdaptiveMultiplierAppliedAtWindowReset(t *testing.T) {
	classifier := &switchableClassifier{behavior: BehaviorNormal}
	r, clock := newTestRegistry(t, WithClassifier(classifier))

	d := r.Acquire("caller-1", models.TierFree)
	require.Equal(t, 100, d.Limit)

	// Multiplier changes take effect at the next window reset, not in
	// the middle of a window.
	classifier.set(BehaviorSuspicious)
	d = r.Acquire("caller-1", models.TierFree)
	assert.Equal(t, 100, d.Limit)

	clock.Advance(time.Hour)
	d = r.Acquire("caller-1", models.TierFree)
	assert.Equal(t, 30, d.Limit)
}

func TestBehaviorMultipliers(t *testing.T) {
	tests := []struct {
		behavior Behavior
		want     float64
	}{
		{BehaviorNormal, 1.0},
		{BehaviorHighActivity, 1.5},
		{BehaviorLowActivity, 0.7},
		{BehaviorSuspicious, 0.3},
		{Behavior("unknown"), 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.behavior.Multiplier(), string(tt.behavior))
	}
}

func TestDecisionHeaders(t *testing.T) {
	r, _ := newTestRegistry(t)

	d := r.Acquire("caller-1", models.TierPro)
	headers := d.Headers()

	assert.Equal(t, "500", headers["X-RateLimit-Limit"])
	assert.Equal(t, "499", headers["X-RateLimit-Remaining"])
	assert.Equal(t, "pro", headers["X-RateLimit-User-Tier"])
	assert.NotEmpty(t, headers["X-RateLimit-Reset"])
}

func TestUsage(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.Acquire("caller-1", models.TierFree)
	r.Acquire("caller-1", models.TierFree)

	count, limit, resetAt := r.Usage("caller-1", models.TierFree)
	assert.Equal(t, 2, count)
	assert.Equal(t, 100, limit)
	assert.False(t, resetAt.IsZero())
}

func TestTierInfo_UnknownTierFallsBackToFree(t *testing.T) {
	r, _ := newTestRegistry(t)

	info := r.TierInfo(models.Tier("enterprise"))
	assert.Equal(t, 100, info.Limit)
	assert.Equal(t, 10, info.Burst)
}

func TestAcquire_ConcurrentCallersCannotOverrunBurst(t *testing.T) {
	r, _ := newTestRegistry(t)

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Acquire("caller-1", models.TierFree).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

type switchableClassifier struct {
	mu       sync.Mutex
	behavior Behavior
}

func (c *switchableClassifier) set(b Behavior) {
	c.mu.Lock()
	c.behavior = b
	c.mu.Unlock()
}

func (c *switchableClassifier) Classify(string, models.Tier) Behavior {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.behavior
}
