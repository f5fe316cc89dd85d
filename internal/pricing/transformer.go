package pricing

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"goprice/internal/domain"
)

var maxPriceCents = decimal.NewFromInt(math.MaxInt64)

// ErrPriceOutOfRange indica que a ação levaria o preço além de int64; o preço base é mantido.
var ErrPriceOutOfRange = errors.New("pricing: preço resultante fora do intervalo")

// Apply calcula o novo preço (em centavos) a partir do preço base e da ação da regra.
// A função é pura: tipo de ação desconhecido, valor não decimal ou resultado acima de int64
// devolvem o preço base.
func Apply(basePriceCents int64, rule domain.PricingRule) int64 {
	price, _ := apply(basePriceCents, rule)
	return price
}

func apply(basePriceCents int64, rule domain.PricingRule) (int64, error) {
	action := domain.ParseActionType(string(rule.ActionType))
	if action == domain.ActionUnknown {
		return basePriceCents, nil
	}

	value, err := decimal.NewFromString(strings.TrimSpace(rule.ActionValue))
	if err != nil {
		return basePriceCents, err
	}

	// A conta e o piso em zero são feitos em decimal; só o resultado final vira int64.
	base := decimal.NewFromInt(basePriceCents)
	var result decimal.Decimal

	switch action {
	case domain.ActionIncreasePercentage:
		result = base.Add(percentOf(base, value))
	case domain.ActionDecreasePercentage:
		result = base.Sub(percentOf(base, value))
	case domain.ActionIncreaseFixed:
		result = base.Add(value.Round(0))
	case domain.ActionDecreaseFixed:
		result = base.Sub(value.Round(0))
	}

	if result.IsNegative() {
		return 0, nil
	}
	if result.GreaterThan(maxPriceCents) {
		return basePriceCents, ErrPriceOutOfRange
	}
	return result.IntPart(), nil
}

// percentOf devolve base * pct / 100 truncado em direção a zero, sem arredondamento intermediário.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Shift(-2).Truncate(0)
}
