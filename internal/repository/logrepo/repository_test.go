package logrepo_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
	"goprice/internal/repository/logrepo"
)

var logColumns = []string{"id", "job_id", "applied_at", "status", "affected_count", "total_products", "error_log", "created_at", "updated_at"}

func newRepo(t *testing.T) (*logrepo.LogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return logrepo.NewLogRepository(sqlx.NewDb(db, "postgres"), time.Second, logger.NewNopLogger()), sm
}

func TestUpdate_OnlyFromProcessing(t *testing.T) {
	repo, sm := newRepo(t)
	l := domain.NewPricingLog("log-1", "job-1", time.Now())
	require.NoError(t, l.Succeed(2, 10))

	sm.ExpectExec(regexp.QuoteMeta("WHERE id = $6 AND status = 'processing'")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), l))
	assert.NoError(t, sm.ExpectationsWereMet())
}

// TestUpdate_TerminalIsConflict: um log já finalizado não é sobrescrito.
func TestUpdate_TerminalIsConflict(t *testing.T) {
	repo, sm := newRepo(t)
	l := domain.NewPricingLog("log-1", "job-1", time.Now())
	require.NoError(t, l.Fail("boom"))

	sm.ExpectExec(regexp.QuoteMeta("status = 'processing'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), l)

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestFindByID(t *testing.T) {
	repo, sm := newRepo(t)
	now := time.Now()

	sm.ExpectQuery(regexp.QuoteMeta("FROM pricing_logs WHERE id = $1")).
		WithArgs("log-1").
		WillReturnRows(sqlmock.NewRows(logColumns).AddRow("log-1", "job-1", now, "failed", 0, 0, "boom", now, now))

	l, err := repo.FindByID(context.Background(), "log-1")

	require.NoError(t, err)
	assert.Equal(t, domain.LogFailed, l.Status)
	require.NotNil(t, l.ErrorLog)
	assert.Equal(t, "boom", *l.ErrorLog)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, sm := newRepo(t)

	sm.ExpectQuery("FROM pricing_logs").WillReturnRows(sqlmock.NewRows(logColumns))

	_, err := repo.FindByID(context.Background(), "nope")

	assert.True(t, apperror.IsNotFound(err))
}

func TestListRecent_DefaultLimit(t *testing.T) {
	repo, sm := newRepo(t)
	now := time.Now()

	sm.ExpectQuery(regexp.QuoteMeta("ORDER BY applied_at DESC, id DESC LIMIT $1")).
		WithArgs(logrepo.DefaultRecentLimit).
		WillReturnRows(sqlmock.NewRows(logColumns).AddRow("log-2", "", now, "success", 3, 15, nil, now, now))

	logs, err := repo.ListRecent(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].ErrorLog)
	assert.Equal(t, 3, logs[0].AffectedCount)
	assert.NoError(t, sm.ExpectationsWereMet())
}
