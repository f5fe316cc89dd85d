package domain

import (
	"sort"
	"time"
)

// ConditionType é a família de predicado que decide se uma regra se aplica a um produto.
type ConditionType string

const (
	ConditionCategoryIs       ConditionType = "category_is"
	ConditionStockLessThan    ConditionType = "stock_less_than"
	ConditionStockGreaterThan ConditionType = "stock_greater_than"

	// ConditionUnknown é o valor de fallback para tipos desconhecidos (nunca casa).
	ConditionUnknown ConditionType = "unknown"
)

// ParseConditionType converte a string da borda (JSON/DB) para o enum fechado.
func ParseConditionType(s string) ConditionType {
	switch ConditionType(s) {
	case ConditionCategoryIs, ConditionStockLessThan, ConditionStockGreaterThan:
		return ConditionType(s)
	}
	return ConditionUnknown
}

// Valid informa se o tipo pertence ao enum.
func (c ConditionType) Valid() bool {
	return ParseConditionType(string(c)) != ConditionUnknown
}

// IsStockThreshold informa se o valor da condição deve ser um inteiro.
func (c ConditionType) IsStockThreshold() bool {
	return c == ConditionStockLessThan || c == ConditionStockGreaterThan
}

// ActionType é a família de transformação de preço.
type ActionType string

const (
	ActionIncreasePercentage ActionType = "increase_percentage"
	ActionDecreasePercentage ActionType = "decrease_percentage"
	ActionIncreaseFixed      ActionType = "increase_fixed"
	ActionDecreaseFixed      ActionType = "decrease_fixed"

	// ActionUnknown é o fallback para tipos desconhecidos (preço inalterado).
	ActionUnknown ActionType = "unknown"
)

// ParseActionType converte a string da borda para o enum fechado.
func ParseActionType(s string) ActionType {
	switch ActionType(s) {
	case ActionIncreasePercentage, ActionDecreasePercentage, ActionIncreaseFixed, ActionDecreaseFixed:
		return ActionType(s)
	}
	return ActionUnknown
}

// Valid informa se o tipo pertence ao enum.
func (a ActionType) Valid() bool {
	return ParseActionType(string(a)) != ActionUnknown
}

// PricingRule é um par condição + ação com prioridade.
// Prioridade menor é avaliada primeiro; apenas regras ativas participam.
type PricingRule struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	ConditionType  ConditionType `json:"conditionType"`
	ConditionValue string        `json:"conditionValue"`
	ActionType     ActionType    `json:"actionType"`
	ActionValue    string        `json:"actionValue"`
	Priority       int           `json:"priority"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// DefaultRulePriority é usada quando a regra é criada sem prioridade.
const DefaultRulePriority = 1

// SortRules ordena as regras por prioridade crescente, desempatando pela ordem de criação
// e, por fim, pelo ID. A ordenação é estável e total, o que mantém o first-match determinístico.
func SortRules(rules []PricingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// ActiveOrdered devolve uma cópia contendo apenas as regras ativas, já ordenadas.
// É a forma explícita de preparar o conjunto de regras consumido pelo motor de preços.
func ActiveOrdered(rules []PricingRule) []PricingRule {
	active := make([]PricingRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	SortRules(active)
	return active
}
