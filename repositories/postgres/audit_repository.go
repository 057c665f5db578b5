package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
	"go.uber.org/zap"
)

const auditColumns = `id, timestamp, caller_id, action, resource, success,
	security_level, threat_score, details, ip_address, user_agent, session_id`

// AuditRepository implements repositories.AuditRepository on Postgres.
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// InsertBatch writes all entries with a single multi-row INSERT so the
// batch commits or fails as a whole.
func (r *AuditRepository) InsertBatch(ctx context.Context, entries []*models.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	const fieldCount = 12
	var sb strings.Builder
	sb.WriteString("INSERT INTO audit_logs (")
	sb.WriteString(auditColumns)
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(entries)*fieldCount)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * fieldCount
		sb.WriteString("(")
		for f := 1; f <= fieldCount; f++ {
			if f > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+f)
		}
		sb.WriteString(")")
		args = append(args,
			e.ID, e.Timestamp, e.CallerID, e.Action, e.Resource, e.Success,
			e.SecurityLevel, e.ThreatScore, nullableJSON(e.Details),
			e.IPAddress, e.UserAgent, e.SessionID)
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert audit batch: %w", err)
	}

	r.logger.Debug("audit batch inserted", zap.Int("entries", len(entries)))
	return nil
}

// Query returns entries matching the filter, newest first.
func (r *AuditRepository) Query(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLogEntry, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(auditColumns)
	sb.WriteString(" FROM audit_logs WHERE 1=1")

	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CallerID != "" {
		sb.WriteString(" AND caller_id = " + arg(filter.CallerID))
	}
	if filter.Action != "" {
		sb.WriteString(" AND action = " + arg(string(filter.Action)))
	}
	if !filter.Start.IsZero() {
		sb.WriteString(" AND timestamp >= " + arg(filter.Start))
	}
	if !filter.End.IsZero() {
		sb.WriteString(" AND timestamp <= " + arg(filter.End))
	}

	sb.WriteString(" ORDER BY timestamp DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		e := &models.AuditLogEntry{}
		err := rows.Scan(
			&e.ID, &e.Timestamp, &e.CallerID, &e.Action, &e.Resource, &e.Success,
			&e.SecurityLevel, &e.ThreatScore, &e.Details,
			&e.IPAddress, &e.UserAgent, &e.SessionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return entries, nil
}

// nullableJSON maps an empty details payload to NULL.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return []byte(data)
}
