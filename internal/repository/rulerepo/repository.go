package rulerepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
)

type ruleRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	ConditionType  string    `db:"condition_type"`
	ConditionValue string    `db:"condition_value"`
	ActionType     string    `db:"action_type"`
	ActionValue    string    `db:"action_value"`
	Priority       int       `db:"priority"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// toDomain converte os enums pela borda: valores desconhecidos viram Unknown.
func (r ruleRow) toDomain() domain.PricingRule {
	return domain.PricingRule{
		ID:             r.ID,
		Name:           r.Name,
		ConditionType:  domain.ParseConditionType(r.ConditionType),
		ConditionValue: r.ConditionValue,
		ActionType:     domain.ParseActionType(r.ActionType),
		ActionValue:    r.ActionValue,
		Priority:       r.Priority,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromDomain(rule domain.PricingRule) ruleRow {
	return ruleRow{
		ID:             rule.ID,
		Name:           rule.Name,
		ConditionType:  string(rule.ConditionType),
		ConditionValue: rule.ConditionValue,
		ActionType:     string(rule.ActionType),
		ActionValue:    rule.ActionValue,
		Priority:       rule.Priority,
		Active:         rule.Active,
		CreatedAt:      rule.CreatedAt,
		UpdatedAt:      rule.UpdatedAt,
	}
}

const (
	selectRules = `
	SELECT id, name, condition_type, condition_value, action_type, action_value, priority, active, created_at, updated_at
	FROM pricing_rules`

	// Mesma ordem de domain.SortRules.
	ruleOrder = ` ORDER BY priority ASC, created_at ASC, id ASC`
)

// RuleRepository guarda as regras de preço no PostgreSQL.
type RuleRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewRuleRepository(db *sqlx.DB, dbTimeout time.Duration, log logger.Logger) *RuleRepository {
	return &RuleRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// ListActive devolve apenas as regras ativas, na ordem de avaliação.
func (r *RuleRepository) ListActive(ctx context.Context) ([]domain.PricingRule, error) {
	return r.list(ctx, selectRules+` WHERE active = TRUE`+ruleOrder)
}

// ListAll devolve todas as regras, ativas ou não, na mesma ordem.
func (r *RuleRepository) ListAll(ctx context.Context) ([]domain.PricingRule, error) {
	return r.list(ctx, selectRules+ruleOrder)
}

func (r *RuleRepository) list(ctx context.Context, query string) ([]domain.PricingRule, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var rows []ruleRow
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperror.NewDBError("falha ao listar regras", err)
	}

	rules := make([]domain.PricingRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, row.toDomain())
	}
	return rules, nil
}

func (r *RuleRepository) FindByID(ctx context.Context, id string) (domain.PricingRule, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var row ruleRow
	err := r.DB.GetContext(ctx, &row, selectRules+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PricingRule{}, apperror.NewNotFoundError(fmt.Sprintf("regra com ID %s não existe", id))
	}
	if err != nil {
		return domain.PricingRule{}, apperror.NewDBError("falha ao buscar regra", err)
	}
	return row.toDomain(), nil
}

func (r *RuleRepository) Save(ctx context.Context, rule domain.PricingRule) (domain.PricingRule, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
		INSERT INTO pricing_rules (id, name, condition_type, condition_value, action_type, action_value, priority, active, created_at, updated_at)
		VALUES (:id, :name, :condition_type, :condition_value, :action_type, :action_value, :priority, :active, :created_at, :updated_at)`

	if _, err := r.DB.NamedExecContext(ctx, insertSQL, fromDomain(rule)); err != nil {
		return domain.PricingRule{}, apperror.NewDBError("falha ao inserir regra", err)
	}
	r.logger.Info("regra criada", map[string]interface{}{"rule_id": rule.ID, "priority": rule.Priority})
	return rule, nil
}

func (r *RuleRepository) Update(ctx context.Context, rule domain.PricingRule) (domain.PricingRule, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
		UPDATE pricing_rules
		SET name = :name, condition_type = :condition_type, condition_value = :condition_value,
		    action_type = :action_type, action_value = :action_value, priority = :priority,
		    active = :active, updated_at = :updated_at
		WHERE id = :id`

	res, err := r.DB.NamedExecContext(ctx, updateSQL, fromDomain(rule))
	if err != nil {
		return domain.PricingRule{}, apperror.NewDBError("falha ao atualizar regra", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.PricingRule{}, apperror.NewNotFoundError(fmt.Sprintf("regra com ID %s não existe", rule.ID))
	}
	return rule, nil
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("falha ao remover regra", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("regra com ID %s não existe", id))
	}
	return nil
}
