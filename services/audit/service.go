// Package audit buffers structured security events and flushes them in
// batches to durable storage, retrying failed batches rather than
// dropping them. It also derives compliance reports from the recorded
// history.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
	"go.uber.org/zap"
)

// Config holds configuration for the audit logger.
type Config struct {
	BufferSize    int           // flush when this many entries are buffered
	FlushInterval time.Duration // flush on this cadence regardless of depth
	FlushTimeout  time.Duration // per-flush persistence deadline
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:    100,
		FlushInterval: 30 * time.Second,
		FlushTimeout:  5 * time.Second,
	}
}

// Logger is the buffered audit logger. Record is fire-and-forget: the
// append succeeds immediately and durability is handled by the flush
// goroutine. A failed flush pushes the batch back to the front of the
// buffer for retry on the next trigger.
type Logger struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
	config Config

	mu     sync.Mutex
	buffer []*models.AuditLogEntry

	flushCh chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	started bool

	onFlushError func(error) // metrics hook, may be nil
}

// NewLogger creates a buffered audit logger.
func NewLogger(repo repositories.AuditRepository, logger *zap.Logger, config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultConfig().FlushInterval
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = DefaultConfig().FlushTimeout
	}
	return &Logger{
		repo:    repo,
		logger:  logger,
		config:  config,
		buffer:  make([]*models.AuditLogEntry, 0, config.BufferSize),
		flushCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// SetFlushErrorHook registers a callback invoked on each failed flush.
func (l *Logger) SetFlushErrorHook(hook func(error)) {
	l.onFlushError = hook
}

// Start launches the background flush goroutine.
func (l *Logger) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return fmt.Errorf("audit logger already started")
	}
	l.started = true

	l.wg.Add(1)
	go l.flushLoop()

	l.logger.Info("started audit logger",
		zap.Int("buffer_size", l.config.BufferSize),
		zap.Duration("flush_interval", l.config.FlushInterval))
	return nil
}

// Record appends an entry to the buffer. It never blocks on
// persistence; a full buffer only signals the flusher.
func (l *Logger) Record(entry *models.AuditLogEntry) {
	l.mu.Lock()
	l.buffer = append(l.buffer, entry)
	full := len(l.buffer) >= l.config.BufferSize
	l.mu.Unlock()

	if full {
		select {
		case l.flushCh <- struct{}{}:
		default:
		}
	}
}

// Pending reports the number of buffered, not-yet-durable entries.
func (l *Logger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Query returns entries matching the filter. Buffered entries that
// have not been flushed yet are merged with durable rows so no entry
// is invisible between flushes.
func (l *Logger) Query(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLogEntry, error) {
	durable, err := l.repo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit store: %w", err)
	}

	l.mu.Lock()
	buffered := make([]*models.AuditLogEntry, len(l.buffer))
	copy(buffered, l.buffer)
	l.mu.Unlock()

	merged := make([]*models.AuditLogEntry, 0, len(durable)+len(buffered))
	for _, e := range buffered {
		if matchesFilter(e, filter) {
			merged = append(merged, e)
		}
	}
	merged = append(merged, durable...)
	return merged, nil
}

// Close drains the buffer and stops the flush goroutine. Remaining
// entries are flushed before the deadline in ctx expires.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return fmt.Errorf("audit logger not started")
	}
	l.started = false
	l.mu.Unlock()

	close(l.done)

	waited := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		return fmt.Errorf("audit logger shutdown timed out: %w", ctx.Err())
	}

	// Final drain.
	if err := l.Flush(ctx); err != nil {
		return fmt.Errorf("final audit flush failed: %w", err)
	}
	l.logger.Info("audit logger stopped")
	return nil
}

// Flush persists the current buffer as one batch. On failure the batch
// is pushed back to the front of the buffer, preserving order, and the
// error is returned for the caller (normally the flush loop) to log.
func (l *Logger) Flush(ctx context.Context) error {
	l.mu.Lock()
	if len(l.buffer) == 0 {
		l.mu.Unlock()
		return nil
	}
	batch := l.buffer
	l.buffer = make([]*models.AuditLogEntry, 0, l.config.BufferSize)
	l.mu.Unlock()

	if err := l.repo.InsertBatch(ctx, batch); err != nil {
		l.mu.Lock()
		l.buffer = append(batch, l.buffer...)
		l.mu.Unlock()
		return fmt.Errorf("failed to flush audit batch of %d: %w", len(batch), err)
	}

	l.logger.Debug("audit batch flushed", zap.Int("entries", len(batch)))
	return nil
}

// flushLoop runs flushes on the periodic timer and on buffer-full
// signals until Close is called.
func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.flushWithTimeout()
		case <-l.flushCh:
			l.flushWithTimeout()
		case <-l.done:
			return
		}
	}
}

func (l *Logger) flushWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.FlushTimeout)
	defer cancel()

	if err := l.Flush(ctx); err != nil {
		// Persistence failures never surface to request callers; the
		// batch stays buffered for the next trigger.
		l.logger.Error("audit flush failed, batch retained for retry", zap.Error(err))
		if l.onFlushError != nil {
			l.onFlushError(err)
		}
	}
}

func matchesFilter(e *models.AuditLogEntry, f repositories.AuditFilter) bool {
	if f.CallerID != "" && e.CallerID != f.CallerID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Start.IsZero() && e.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Timestamp.After(f.End) {
		return false
	}
	return true
}
