package ruleservice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
)

type RuleRepository interface {
	ListAll(ctx context.Context) ([]domain.PricingRule, error)
	FindByID(ctx context.Context, id string) (domain.PricingRule, error)
	Save(ctx context.Context, rule domain.PricingRule) (domain.PricingRule, error)
	Update(ctx context.Context, rule domain.PricingRule) (domain.PricingRule, error)
	Delete(ctx context.Context, id string) error
}

// RuleInput é o payload de criação/edição. Campos nil não são alterados na edição.
type RuleInput struct {
	Name           *string `json:"name"`
	ConditionType  *string `json:"conditionType"`
	ConditionValue *string `json:"conditionValue"`
	ActionType     *string `json:"actionType"`
	ActionValue    *string `json:"actionValue"`
	Priority       *int    `json:"priority"`
	Active         *bool   `json:"active"`
}

type Service struct {
	repo   RuleRepository
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo RuleRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// ListRules devolve todas as regras (ativas e inativas) na ordem de avaliação.
func (s *Service) ListRules(ctx context.Context) ([]domain.PricingRule, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) GetRule(ctx context.Context, id string) (domain.PricingRule, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateRule valida e grava uma nova regra. Prioridade ausente vira 1 e active ausente vira true.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (domain.PricingRule, error) {
	now := s.now()
	rule := domain.PricingRule{
		ID:        uuid.NewString(),
		Priority:  domain.DefaultRulePriority,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.applyTo(&rule)

	if err := Validate(rule); err != nil {
		return domain.PricingRule{}, err
	}
	return s.repo.Save(ctx, rule)
}

// UpdateRule aplica os campos informados sobre a regra existente e valida o resultado.
func (s *Service) UpdateRule(ctx context.Context, id string, in RuleInput) (domain.PricingRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.PricingRule{}, err
	}

	in.applyTo(&rule)
	rule.UpdatedAt = s.now()

	if err := Validate(rule); err != nil {
		return domain.PricingRule{}, err
	}

	updated, err := s.repo.Update(ctx, rule)
	if err != nil {
		return domain.PricingRule{}, err
	}
	s.logger.Info("regra atualizada", map[string]interface{}{"rule_id": id, "active": updated.Active})
	return updated, nil
}

func (s *Service) DeleteRule(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (in RuleInput) applyTo(rule *domain.PricingRule) {
	if in.Name != nil {
		rule.Name = strings.TrimSpace(*in.Name)
	}
	if in.ConditionType != nil {
		rule.ConditionType = domain.ConditionType(*in.ConditionType)
	}
	if in.ConditionValue != nil {
		rule.ConditionValue = strings.TrimSpace(*in.ConditionValue)
	}
	if in.ActionType != nil {
		rule.ActionType = domain.ActionType(*in.ActionType)
	}
	if in.ActionValue != nil {
		rule.ActionValue = strings.TrimSpace(*in.ActionValue)
	}
	if in.Priority != nil {
		rule.Priority = *in.Priority
	}
	if in.Active != nil {
		rule.Active = *in.Active
	}
}

// maxActionValue limita percentuais e valores fixos (em centavos) aceitos numa regra.
var maxActionValue = decimal.NewFromInt(1_000_000_000)

// Validate confere os campos de uma regra antes de gravá-la.
func Validate(rule domain.PricingRule) error {
	if rule.Name == "" {
		return apperror.NewValidationError("o nome da regra é obrigatório")
	}
	if !rule.ConditionType.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("%q não é um tipo de condição válido", rule.ConditionType))
	}
	if rule.ConditionValue == "" {
		return apperror.NewValidationError("o valor da condição é obrigatório")
	}
	if rule.ConditionType.IsStockThreshold() {
		if _, err := strconv.Atoi(rule.ConditionValue); err != nil {
			return apperror.NewValidationError(fmt.Sprintf("o valor da condição %s deve ser um inteiro", rule.ConditionType))
		}
	}
	if !rule.ActionType.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("%q não é um tipo de ação válido", rule.ActionType))
	}
	if rule.ActionValue == "" {
		return apperror.NewValidationError("o valor da ação é obrigatório")
	}
	value, err := decimal.NewFromString(rule.ActionValue)
	if err != nil || strings.ContainsAny(rule.ActionValue, "eE") {
		return apperror.NewValidationError("o valor da ação deve ser um número decimal")
	}
	if value.IsNegative() || value.GreaterThan(maxActionValue) {
		return apperror.NewValidationError(fmt.Sprintf("o valor da ação deve estar entre 0 e %s", maxActionValue))
	}
	if rule.Priority <= 0 {
		return apperror.NewValidationError("a prioridade deve ser um inteiro positivo")
	}
	return nil
}
