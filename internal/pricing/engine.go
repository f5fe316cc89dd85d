// Package pricing implementa o motor de regras de preço: casamento de condição,
// transformação do preço e seleção da primeira regra aplicável por prioridade.
//
// Todas as funções recebem o conjunto de regras já filtrado (apenas ativas) e já
// ordenado (ver domain.ActiveOrdered); o pacote nunca filtra nem reordena.
package pricing

import "goprice/internal/domain"

// Campos de uma regra que podem chegar malformados ao motor.
const (
	FieldConditionValue = "conditionValue"
	FieldActionValue    = "actionValue"
)

// MalformedValue descreve um valor de regra que não pôde ser interpretado.
// A regra não casa (condição) ou não altera o preço (ação); a avaliação continua.
type MalformedValue struct {
	RuleID   string
	RuleName string
	Field    string
	Value    string
	Err      error
}

// Reporter recebe os valores malformados encontrados durante a avaliação.
type Reporter func(MalformedValue)

// Engine avalia regras de preço com first-match.
type Engine struct {
	report Reporter
}

// NewEngine cria um Engine. Um reporter nil torna os valores malformados silenciosos.
func NewEngine(report Reporter) *Engine {
	return &Engine{report: report}
}

// MatchingRule devolve a primeira regra (na ordem recebida) que casa com o produto.
func (e *Engine) MatchingRule(product domain.Product, orderedActiveRules []domain.PricingRule) (domain.PricingRule, bool) {
	for _, rule := range orderedActiveRules {
		ok, err := match(product, rule)
		if err != nil {
			e.notify(rule, FieldConditionValue, rule.ConditionValue, err)
			continue
		}
		if ok {
			return rule, true
		}
	}
	return domain.PricingRule{}, false
}

// PriceFor devolve o preço do produto segundo a primeira regra que casa,
// ou o preço base quando nenhuma regra casa. As regras não se acumulam.
func (e *Engine) PriceFor(product domain.Product, orderedActiveRules []domain.PricingRule) int64 {
	price, _, _ := e.Evaluate(product, orderedActiveRules)
	return price
}

// Evaluate devolve o preço e a regra que o produziu (ok=false quando nenhuma casou).
func (e *Engine) Evaluate(product domain.Product, orderedActiveRules []domain.PricingRule) (int64, domain.PricingRule, bool) {
	rule, ok := e.MatchingRule(product, orderedActiveRules)
	if !ok {
		return product.BasePriceCents, domain.PricingRule{}, false
	}

	price, err := apply(product.BasePriceCents, rule)
	if err != nil {
		e.notify(rule, FieldActionValue, rule.ActionValue, err)
	}
	return price, rule, true
}

// PriceMapFor aplica PriceFor a cada produto de forma independente.
func (e *Engine) PriceMapFor(products []domain.Product, orderedActiveRules []domain.PricingRule) map[string]int64 {
	prices := make(map[string]int64, len(products))
	for _, p := range products {
		prices[p.ID] = e.PriceFor(p, orderedActiveRules)
	}
	return prices
}

func (e *Engine) notify(rule domain.PricingRule, field, value string, err error) {
	if e == nil || e.report == nil {
		return
	}
	e.report(MalformedValue{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Field:    field,
		Value:    value,
		Err:      err,
	})
}

var silent = &Engine{}

// PriceFor é o atalho sem reporter.
func PriceFor(product domain.Product, orderedActiveRules []domain.PricingRule) int64 {
	return silent.PriceFor(product, orderedActiveRules)
}

// PriceMapFor é o atalho sem reporter.
func PriceMapFor(products []domain.Product, orderedActiveRules []domain.PricingRule) map[string]int64 {
	return silent.PriceMapFor(products, orderedActiveRules)
}
