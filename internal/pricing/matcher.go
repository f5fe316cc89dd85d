package pricing

import (
	"strconv"
	"strings"

	"goprice/internal/domain"
)

// Matches decide se uma regra se aplica a um produto.
// Tipos desconhecidos e limites de estoque não numéricos nunca casam.
func Matches(product domain.Product, rule domain.PricingRule) bool {
	ok, _ := match(product, rule)
	return ok
}

// match devolve também o erro de parsing do valor da condição, para que o Engine
// possa reportá-lo sem interromper a avaliação.
func match(product domain.Product, rule domain.PricingRule) (bool, error) {
	switch domain.ParseConditionType(string(rule.ConditionType)) {
	case domain.ConditionCategoryIs:
		return product.Category == rule.ConditionValue, nil

	case domain.ConditionStockLessThan:
		threshold, err := parseThreshold(rule.ConditionValue)
		if err != nil {
			return false, err
		}
		return product.StockQuantity < threshold, nil

	case domain.ConditionStockGreaterThan:
		threshold, err := parseThreshold(rule.ConditionValue)
		if err != nil {
			return false, err
		}
		return product.StockQuantity > threshold, nil

	default:
		return false, nil
	}
}

func parseThreshold(v string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(v))
}
