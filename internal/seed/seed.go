// Package seed carrega o catálogo de exemplo (produtos e regras) a partir de YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
	"goprice/internal/service/ruleservice"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type ProductSeed struct {
	Name              string `yaml:"name"`
	Category          string `yaml:"category"`
	StockQuantity     int    `yaml:"stockQuantity"`
	BasePriceCents    int64  `yaml:"basePriceCents"`
	CurrentPriceCents *int64 `yaml:"currentPriceCents"`
}

// RuleSeed omite prioridade (1) e active (true) quando ausentes.
type RuleSeed struct {
	Name           string `yaml:"name"`
	ConditionType  string `yaml:"conditionType"`
	ConditionValue string `yaml:"conditionValue"`
	ActionType     string `yaml:"actionType"`
	ActionValue    string `yaml:"actionValue"`
	Priority       *int   `yaml:"priority"`
	Active         *bool  `yaml:"active"`
}

type Catalog struct {
	Products []ProductSeed `yaml:"products"`
	Rules    []RuleSeed    `yaml:"rules"`
}

// Load decodifica um catálogo. Campos desconhecidos são erro.
func Load(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("seed: catálogo inválido: %w", err)
	}
	return c, nil
}

// Default devolve o catálogo embutido no binário.
func Default() (Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

type ProductStore interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
}

type RuleStore interface {
	ListAll(ctx context.Context) ([]domain.PricingRule, error)
	Save(ctx context.Context, rule domain.PricingRule) (domain.PricingRule, error)
	Delete(ctx context.Context, id string) error
}

// Result resume o que foi gravado.
type Result struct {
	ProductsCreated int
	ProductsSkipped int
	RulesDeleted    int
	RulesCreated    int
	RulesSkipped    int
}

type Seeder struct {
	products ProductStore
	rules    RuleStore
	logger   logger.Logger
	now      func() time.Time
}

func NewSeeder(products ProductStore, rules RuleStore, log logger.Logger) *Seeder {
	return &Seeder{
		products: products,
		rules:    rules,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Apply grava o catálogo. Produtos e regras já existentes (mesmo nome) são mantidos;
// com resetRules as regras atuais são apagadas antes.
func (s *Seeder) Apply(ctx context.Context, c Catalog, resetRules bool) (Result, error) {
	var res Result

	if err := s.seedProducts(ctx, c.Products, &res); err != nil {
		return res, err
	}
	if err := s.seedRules(ctx, c.Rules, resetRules, &res); err != nil {
		return res, err
	}

	s.logger.Info("seed concluído", map[string]interface{}{
		"products_created": res.ProductsCreated,
		"products_skipped": res.ProductsSkipped,
		"rules_deleted":    res.RulesDeleted,
		"rules_created":    res.RulesCreated,
		"rules_skipped":    res.RulesSkipped,
	})
	return res, nil
}

func (s *Seeder) seedProducts(ctx context.Context, seeds []ProductSeed, res *Result) error {
	existing, err := s.products.ListAll(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}

	for _, ps := range seeds {
		if names[ps.Name] {
			res.ProductsSkipped++
			continue
		}
		if ps.Name == "" || ps.Category == "" || ps.StockQuantity < 0 || ps.BasePriceCents <= 0 {
			return apperror.NewValidationError(fmt.Sprintf("produto de seed inválido: %q", ps.Name))
		}

		p := domain.NewProduct(uuid.NewString(), ps.Name, ps.Category, ps.StockQuantity, ps.BasePriceCents, ps.CurrentPriceCents)
		p.CreatedAt = s.now()
		p.UpdatedAt = p.CreatedAt
		if _, err := s.products.Save(ctx, p); err != nil {
			return err
		}
		names[ps.Name] = true
		res.ProductsCreated++
	}
	return nil
}

func (s *Seeder) seedRules(ctx context.Context, seeds []RuleSeed, reset bool, res *Result) error {
	existing, err := s.rules.ListAll(ctx)
	if err != nil {
		return err
	}

	names := make(map[string]bool, len(existing))
	for _, r := range existing {
		if reset {
			if err := s.rules.Delete(ctx, r.ID); err != nil {
				return err
			}
			res.RulesDeleted++
			continue
		}
		names[r.Name] = true
	}

	for i, rs := range seeds {
		if names[rs.Name] {
			res.RulesSkipped++
			continue
		}

		rule := rs.toRule(s.now().Add(time.Duration(i) * time.Millisecond))
		if err := ruleservice.Validate(rule); err != nil {
			return fmt.Errorf("regra de seed %q: %w", rs.Name, err)
		}
		if _, err := s.rules.Save(ctx, rule); err != nil {
			return err
		}
		names[rs.Name] = true
		res.RulesCreated++
	}
	return nil
}

func (rs RuleSeed) toRule(at time.Time) domain.PricingRule {
	rule := domain.PricingRule{
		ID:             uuid.NewString(),
		Name:           rs.Name,
		ConditionType:  domain.ParseConditionType(rs.ConditionType),
		ConditionValue: rs.ConditionValue,
		ActionType:     domain.ParseActionType(rs.ActionType),
		ActionValue:    rs.ActionValue,
		Priority:       domain.DefaultRulePriority,
		Active:         true,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if rs.Priority != nil {
		rule.Priority = *rs.Priority
	}
	if rs.Active != nil {
		rule.Active = *rs.Active
	}
	return rule
}
