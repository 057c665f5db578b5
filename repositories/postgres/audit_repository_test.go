package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/repositories"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (repositories.AuditRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := &DB{DB: db, logger: zap.NewNop()}
	return NewAuditRepository(wrapped, zap.NewNop()), mock
}

func sampleEntry(callerID string) *models.AuditLogEntry {
	return models.NewAuditLogEntry(callerID, models.AuditActionAIRequest, "generate").
		WithThreatScore(0.2).
		WithOrigin("203.0.113.10", "agent", "session-1")
}

func TestInsertBatch_SingleStatement(t *testing.T) {
	repo, mock := newMockRepo(t)
	entries := []*models.AuditLogEntry{sampleEntry("caller-1"), sampleEntry("caller-2")}

	mock.ExpectExec(`INSERT INTO audit_logs .+ VALUES \(\$1, .+\$12\), \(\$13, .+\$24\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.InsertBatch(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_EmptySliceSkipsDatabase(t *testing.T) {
	repo, mock := newMockRepo(t)

	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_ErrorWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnError(errors.New("deadlock detected"))

	err := repo.InsertBatch(context.Background(), []*models.AuditLogEntry{sampleEntry("caller-1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert audit batch")
	assert.Contains(t, err.Error(), "deadlock detected")
}

func auditRows(entries ...*models.AuditLogEntry) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "timestamp", "caller_id", "action", "resource", "success",
		"security_level", "threat_score", "details", "ip_address", "user_agent", "session_id",
	})
	for _, e := range entries {
		rows.AddRow(e.ID.String(), e.Timestamp, e.CallerID, string(e.Action), e.Resource, e.Success,
			string(e.SecurityLevel), e.ThreatScore, []byte(nil), e.IPAddress, e.UserAgent, e.SessionID)
	}
	return rows
}

func TestQuery_NoFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	entry := sampleEntry("caller-1")

	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE 1=1 ORDER BY timestamp DESC$`).
		WillReturnRows(auditRows(entry))

	got, err := repo.Query(context.Background(), repositories.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entry.ID, got[0].ID)
	assert.Equal(t, models.AuditActionAIRequest, got[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_AllFiltersApplied(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE 1=1 AND caller_id = \$1 AND action = \$2 AND timestamp >= \$3 AND timestamp <= \$4 ORDER BY timestamp DESC LIMIT \$5 OFFSET \$6`).
		WithArgs("caller-1", "security_violation", start, end, 50, 10).
		WillReturnRows(auditRows())

	got, err := repo.Query(context.Background(), repositories.AuditFilter{
		CallerID: "caller-1",
		Action:   models.AuditActionSecurityViolation,
		Start:    start,
		End:      end,
		Limit:    50,
		Offset:   10,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ErrorWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM audit_logs`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Query(context.Background(), repositories.AuditFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query audit logs")
}

func TestNullableJSON(t *testing.T) {
	assert.Nil(t, nullableJSON(nil))
	assert.Nil(t, nullableJSON([]byte{}))
	assert.Equal(t, []byte(`{"a":1}`), nullableJSON([]byte(`{"a":1}`)))
}
