package rule

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"goprice/internal/api/response"
	"goprice/internal/domain"
	"goprice/internal/pkg/logger"
	"goprice/internal/service/ruleservice"
)

type RuleService interface {
	ListRules(ctx context.Context) ([]domain.PricingRule, error)
	CreateRule(ctx context.Context, in ruleservice.RuleInput) (domain.PricingRule, error)
	UpdateRule(ctx context.Context, id string, in ruleservice.RuleInput) (domain.PricingRule, error)
	DeleteRule(ctx context.Context, id string) error
}

type Handler struct {
	Service RuleService
	Logger  logger.Logger
}

func NewHandler(svc RuleService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// rulePayload aceita a regra no topo do JSON ou dentro de "pricing_rule".
type rulePayload struct {
	ruleservice.RuleInput
	Wrapped *ruleservice.RuleInput `json:"pricing_rule"`
}

func decodeRule(r *http.Request) (ruleservice.RuleInput, error) {
	var p rulePayload
	if err := response.Decode(r, &p); err != nil {
		return ruleservice.RuleInput{}, err
	}
	if p.Wrapped != nil {
		return *p.Wrapped, nil
	}
	return p.RuleInput, nil
}

// ListRulesHandler lida com GET /api/pricing_rules.
// @Summary Lista todas as regras (ativas e inativas) na ordem de avaliação
// @Tags pricing_rules
// @Produce json
// @Success 200 {array} domain.PricingRule
// @Router /api/pricing_rules [get]
func (h *Handler) ListRulesHandler(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Service.ListRules(r.Context())
	response.Handle(w, r, h.Logger, rules, err, http.StatusOK)
}

// CreateRuleHandler lida com POST /api/pricing_rules (admin).
// @Summary Cria uma regra de preço
// @Tags pricing_rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rule body ruleservice.RuleInput true "Regra"
// @Success 201 {object} domain.PricingRule
// @Failure 400 {object} domain.ErrorResponse
// @Router /api/pricing_rules [post]
func (h *Handler) CreateRuleHandler(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRule(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusCreated)
		return
	}
	rule, err := h.Service.CreateRule(r.Context(), in)
	response.Handle(w, r, h.Logger, rule, err, http.StatusCreated)
}

// UpdateRuleHandler lida com PUT /api/pricing_rules/{id} (admin).
// @Summary Atualiza uma regra de preço
// @Tags pricing_rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da regra"
// @Param rule body ruleservice.RuleInput true "Campos a alterar"
// @Success 200 {object} domain.PricingRule
// @Failure 404 {object} domain.ErrorResponse
// @Router /api/pricing_rules/{id} [put]
func (h *Handler) UpdateRuleHandler(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRule(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}
	rule, err := h.Service.UpdateRule(r.Context(), mux.Vars(r)["id"], in)
	response.Handle(w, r, h.Logger, rule, err, http.StatusOK)
}

// DeleteRuleHandler lida com DELETE /api/pricing_rules/{id} (admin).
// @Summary Remove uma regra de preço
// @Tags pricing_rules
// @Security BearerAuth
// @Param id path string true "ID da regra"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Router /api/pricing_rules/{id} [delete]
func (h *Handler) DeleteRuleHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteRule(r.Context(), mux.Vars(r)["id"])
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
