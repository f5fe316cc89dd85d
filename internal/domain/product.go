package domain

import (
	"math"
	"time"
)

// LowStockThreshold é o limite abaixo do qual um produto é considerado com estoque baixo.
const LowStockThreshold = 10

// Product representa o item do catálogo (a Entidade).
// Os preços são inteiros em centavos (unidade mínima da moeda).
type Product struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	StockQuantity     int       `json:"stockQuantity"`
	BasePriceCents    int64     `json:"basePriceCents"`
	CurrentPriceCents int64     `json:"currentPriceCents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewProduct monta um Produto aplicando a normalização de construção:
// quando o preço atual está ausente (nil), ele assume o preço base.
func NewProduct(id, name, category string, stock int, basePriceCents int64, currentPriceCents *int64) Product {
	p := Product{
		ID:             id,
		Name:           name,
		Category:       category,
		StockQuantity:  stock,
		BasePriceCents: basePriceCents,
	}
	if currentPriceCents != nil {
		p.CurrentPriceCents = *currentPriceCents
	} else {
		p.CurrentPriceCents = basePriceCents
	}
	return p
}

// PriceChanged informa se o preço atual difere do preço base.
func (p Product) PriceChanged() bool {
	return p.CurrentPriceCents != p.BasePriceCents
}

// PriceDifferenceCents é a diferença (atual - base) em centavos.
func (p Product) PriceDifferenceCents() int64 {
	return p.CurrentPriceCents - p.BasePriceCents
}

// PriceDifferencePercentage é a diferença percentual arredondada em 2 casas (0 quando a base é zero).
func (p Product) PriceDifferencePercentage() float64 {
	if p.BasePriceCents == 0 {
		return 0
	}
	pct := float64(p.PriceDifferenceCents()) / float64(p.BasePriceCents) * 100
	return math.Round(pct*100) / 100
}

func (p Product) LowStock() bool   { return p.StockQuantity < LowStockThreshold }
func (p Product) OutOfStock() bool { return p.StockQuantity == 0 }
func (p Product) InStock() bool    { return p.StockQuantity > 0 }

// PriceUpdate é uma alteração pendente do preço atual de um produto,
// aplicada em lote pelo repositório de catálogo.
type PriceUpdate struct {
	ProductID     string `json:"id"`
	NewPriceCents int64  `json:"newPriceCents"`
}

// PricePreview é a visão de um produto com o preço proposto pelas regras ativas.
type PricePreview struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	StockQuantity        int     `json:"stockQuantity"`
	BasePriceCents       int64   `json:"basePriceCents"`
	CurrentPriceCents    int64   `json:"currentPriceCents"`
	ProposedPriceCents   int64   `json:"proposedPriceCents"`
	PriceChanged         bool    `json:"priceChanged"`
	PriceDifferenceCents int64   `json:"priceDifferenceCents"`
	MatchedRuleID        *string `json:"matchedRuleId"`
	MatchedRuleName      *string `json:"matchedRuleName"`
}
