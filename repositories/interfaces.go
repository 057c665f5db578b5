// Package repositories defines the persistence interfaces the services
// depend on. Concrete implementations live in subpackages.
package repositories

import (
	"context"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
)

// AuditFilter narrows an audit log query. Zero-value fields are
// ignored.
type AuditFilter struct {
	CallerID string
	Action   models.AuditAction
	Start    time.Time
	End      time.Time
	Limit    int
	Offset   int
}

// AuditRepository persists and queries audit log entries.
type AuditRepository interface {
	// InsertBatch writes a batch of entries in one statement. The
	// batch succeeds or fails as a whole.
	InsertBatch(ctx context.Context, entries []*models.AuditLogEntry) error

	// Query returns entries matching the filter, newest first.
	Query(ctx context.Context, filter AuditFilter) ([]*models.AuditLogEntry, error)
}
