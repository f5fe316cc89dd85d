package rulerepo_test

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
	"goprice/internal/repository/rulerepo"
)

var ruleColumns = []string{"id", "name", "condition_type", "condition_value", "action_type", "action_value", "priority", "active", "created_at", "updated_at"}

func newRepo(t *testing.T) (*rulerepo.RuleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return rulerepo.NewRuleRepository(sqlx.NewDb(db, "postgres"), time.Second, logger.NewNopLogger()), sm
}

// TestListActive filtra no SQL e converte enums desconhecidos para Unknown.
func TestListActive(t *testing.T) {
	repo, sm := newRepo(t)
	now := time.Now()

	sm.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE ORDER BY priority ASC, created_at ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows(ruleColumns).
			AddRow("r1", "Electronics Discount", "category_is", "Electronics", "decrease_percentage", "10", 1, true, now, now).
			AddRow("r2", "Legacy", "brand_is", "Acme", "double", "2", 2, true, now, now))

	rules, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.ConditionCategoryIs, rules[0].ConditionType)
	assert.Equal(t, domain.ConditionUnknown, rules[1].ConditionType)
	assert.Equal(t, domain.ActionUnknown, rules[1].ActionType)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	repo, sm := newRepo(t)

	sm.ExpectExec(regexp.QuoteMeta("DELETE FROM pricing_rules WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "nope")

	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate(t *testing.T) {
	repo, sm := newRepo(t)
	rule := domain.PricingRule{ID: "r1", Name: "x", ConditionType: domain.ConditionStockLessThan, ConditionValue: "10",
		ActionType: domain.ActionIncreaseFixed, ActionValue: "100", Priority: 3, Active: false}

	sm.ExpectExec(regexp.QuoteMeta("UPDATE pricing_rules")).WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Update(context.Background(), rule)

	require.NoError(t, err)
	assert.Equal(t, 3, got.Priority)
	assert.NoError(t, sm.ExpectationsWereMet())
}
