package seed_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
	"goprice/internal/seed"
)

type MockProducts struct{ mock.Mock }

func (m *MockProducts) ListAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}
func (m *MockProducts) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return p, args.Error(0)
}

type MockRules struct{ mock.Mock }

func (m *MockRules) ListAll(ctx context.Context) ([]domain.PricingRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PricingRule), args.Error(1)
}
func (m *MockRules) Save(ctx context.Context, r domain.PricingRule) (domain.PricingRule, error) {
	args := m.Called(ctx, r)
	return r, args.Error(0)
}
func (m *MockRules) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestDefaultCatalog(t *testing.T) {
	c, err := seed.Default()

	require.NoError(t, err)
	assert.Len(t, c.Products, 15)
	require.Len(t, c.Rules, 3)
	assert.Equal(t, "Low Stock Premium", c.Rules[0].Name)
	assert.Equal(t, "Design Patterns", c.Products[14].Name)
	assert.Equal(t, int64(5499), c.Products[14].BasePriceCents)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := seed.Load(strings.NewReader("products:\n  - {name: x, price: 10}\n"))
	assert.Error(t, err)
}

func TestApply_CreatesMissing(t *testing.T) {
	products, rules := new(MockProducts), new(MockRules)
	products.On("ListAll", mock.Anything).Return([]domain.Product{{ID: "1", Name: "iPad Air"}}, nil)
	products.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.Name == "Clean Code" && p.CurrentPriceCents == 4299 && p.ID != ""
	})).Return(nil).Once()
	rules.On("ListAll", mock.Anything).Return([]domain.PricingRule{}, nil)
	rules.On("Save", mock.Anything, mock.MatchedBy(func(r domain.PricingRule) bool {
		return r.Name == "Clearance" && r.Priority == domain.DefaultRulePriority && r.Active
	})).Return(nil).Once()

	c, err := seed.Load(strings.NewReader(`
products:
  - {name: "iPad Air", category: "Electronics", stockQuantity: 12, basePriceCents: 59900}
  - {name: "Clean Code", category: "Books", stockQuantity: 35, basePriceCents: 4299}
rules:
  - {name: Clearance, conditionType: stock_greater_than, conditionValue: "40", actionType: decrease_fixed, actionValue: "500"}
`))
	require.NoError(t, err)

	res, err := seed.NewSeeder(products, rules, logger.NewNopLogger()).Apply(context.Background(), c, false)

	require.NoError(t, err)
	assert.Equal(t, seed.Result{ProductsCreated: 1, ProductsSkipped: 1, RulesCreated: 1}, res)
	products.AssertExpectations(t)
	rules.AssertExpectations(t)
}

// TestApply_ResetRules apaga as regras atuais antes de gravar as do catálogo.
func TestApply_ResetRules(t *testing.T) {
	products, rules := new(MockProducts), new(MockRules)
	products.On("ListAll", mock.Anything).Return([]domain.Product{}, nil)
	rules.On("ListAll", mock.Anything).Return([]domain.PricingRule{{ID: "old", Name: "Low Stock Premium"}}, nil)
	rules.On("Delete", mock.Anything, "old").Return(nil).Once()
	rules.On("Save", mock.Anything, mock.Anything).Return(nil).Times(3)

	c, err := seed.Default()
	require.NoError(t, err)
	c.Products = nil

	res, err := seed.NewSeeder(products, rules, logger.NewNopLogger()).Apply(context.Background(), c, true)

	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesDeleted)
	assert.Equal(t, 3, res.RulesCreated)
	rules.AssertExpectations(t)
}

func TestApply_InvalidRule(t *testing.T) {
	products, rules := new(MockProducts), new(MockRules)
	products.On("ListAll", mock.Anything).Return([]domain.Product{}, nil)
	rules.On("ListAll", mock.Anything).Return([]domain.PricingRule{}, nil)

	c := seed.Catalog{Rules: []seed.RuleSeed{{Name: "x", ConditionType: "weekday_is", ConditionValue: "mon", ActionType: "decrease_fixed", ActionValue: "1"}}}

	_, err := seed.NewSeeder(products, rules, logger.NewNopLogger()).Apply(context.Background(), c, false)

	var vErr *apperror.ValidationError
	assert.True(t, errors.As(err, &vErr))
	rules.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestApply_StoreError(t *testing.T) {
	products, rules := new(MockProducts), new(MockRules)
	products.On("ListAll", mock.Anything).Return([]domain.Product(nil), errors.New("db down"))

	_, err := seed.NewSeeder(products, rules, logger.NewNopLogger()).Apply(context.Background(), seed.Catalog{}, false)

	assert.EqualError(t, err, "db down")
}
