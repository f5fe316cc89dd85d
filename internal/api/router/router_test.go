package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goprice/internal/api/health"
	pricingapi "goprice/internal/api/pricing"
	"goprice/internal/api/product"
	"goprice/internal/api/router"
	"goprice/internal/api/rule"
	"goprice/internal/api/user"
	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/metrics"
	"goprice/internal/pkg/token"
	"goprice/internal/service/pricingservice"
	"goprice/internal/service/productservice"
	"goprice/internal/service/ruleservice"
)

// --- Mocks dos serviços ---

type MockPricing struct{ mock.Mock }

func (m *MockPricing) StartRun(ctx context.Context) (pricingservice.StartedRun, error) {
	args := m.Called(ctx)
	return args.Get(0).(pricingservice.StartedRun), args.Error(1)
}
func (m *MockPricing) ListLogs(ctx context.Context, limit int) ([]domain.PricingLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.PricingLog), args.Error(1)
}
func (m *MockPricing) GetLog(ctx context.Context, id string) (domain.PricingLog, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PricingLog), args.Error(1)
}
func (m *MockPricing) PreviewAll(ctx context.Context) ([]domain.PricePreview, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PricePreview), args.Error(1)
}
func (m *MockPricing) PreviewProduct(ctx context.Context, id string) (domain.PricePreview, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PricePreview), args.Error(1)
}

type MockRules struct{ mock.Mock }

func (m *MockRules) ListRules(ctx context.Context) ([]domain.PricingRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PricingRule), args.Error(1)
}
func (m *MockRules) CreateRule(ctx context.Context, in ruleservice.RuleInput) (domain.PricingRule, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.PricingRule), args.Error(1)
}
func (m *MockRules) UpdateRule(ctx context.Context, id string, in ruleservice.RuleInput) (domain.PricingRule, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.PricingRule), args.Error(1)
}
func (m *MockRules) DeleteRule(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockProducts struct{ mock.Mock }

func (m *MockProducts) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}
func (m *MockProducts) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}
func (m *MockProducts) CreateProduct(ctx context.Context, in productservice.ProductInput) (domain.Product, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Product), args.Error(1)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(domain.User), args.Error(1)
}
func (m *MockUsers) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

// --- Fixture ---

type fixture struct {
	handler  http.Handler
	pricing  *MockPricing
	rules    *MockRules
	products *MockProducts
	admin    string
	user     string
}

func newFixture(t *testing.T, redisErr error) fixture {
	t.Helper()
	log := logger.NewNopLogger()
	tokens := token.NewService("segredo", time.Hour)
	reg := prometheus.NewRegistry()
	metrics.NewMetrics(reg)

	f := fixture{pricing: new(MockPricing), rules: new(MockRules), products: new(MockProducts)}

	var err error
	f.admin, err = tokens.GenerateToken("admin-1", string(domain.RoleAdmin))
	require.NoError(t, err)
	f.user, err = tokens.GenerateToken("user-1", string(domain.RoleUser))
	require.NoError(t, err)

	ok := health.PingerFunc(func(context.Context) error { return nil })
	redis := health.PingerFunc(func(context.Context) error { return redisErr })

	f.handler = router.NewRouter(router.Handlers{
		Product: product.NewHandler(f.products, log),
		Rule:    rule.NewHandler(f.rules, log),
		Pricing: pricingapi.NewHandler(f.pricing, log),
		User:    user.NewHandler(new(MockUsers), log),
		Health:  health.NewHandler(ok, "goprice", redis, log),
	}, router.Options{TokenService: tokens, Gatherer: reg, Logger: log})
	return f
}

func (f fixture) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// --- Testes ---

// TestApply_Accepted: o disparo responde 202 com o ID do log, sem esperar a execução.
func TestApply_Accepted(t *testing.T) {
	f := newFixture(t, nil)
	f.pricing.On("StartRun", mock.Anything).Return(pricingservice.StartedRun{LogID: "log-1", JobID: "job-1", Status: domain.LogProcessing}, nil)

	rr := f.do(http.MethodPost, "/api/pricing_rules/apply", f.admin, "")

	require.Equal(t, http.StatusAccepted, rr.Code)
	var body pricingapi.ApplyResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "log-1", body.LogID)
	assert.Equal(t, domain.LogProcessing, body.Status)
}

func TestApply_EnqueueFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.pricing.On("StartRun", mock.Anything).Return(pricingservice.StartedRun{LogID: "log-1"}, apperror.NewInternalError("fila", errors.New("down")))

	rr := f.do(http.MethodPost, "/api/pricing_rules/apply", f.admin, "")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body pricingapi.ApplyResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.False(t, body.Success)
}

func TestApply_RequiresAdmin(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/pricing_rules/apply", "", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/pricing_rules/apply", f.user, "").Code)
	f.pricing.AssertNotCalled(t, "StartRun", mock.Anything)
}

// TestCreateRule_WrappedPayload aceita a regra dentro de "pricing_rule".
func TestCreateRule_WrappedPayload(t *testing.T) {
	f := newFixture(t, nil)
	f.rules.On("CreateRule", mock.Anything, mock.MatchedBy(func(in ruleservice.RuleInput) bool {
		return in.Name != nil && *in.Name == "Low Stock Premium"
	})).Return(domain.PricingRule{ID: "r1", Name: "Low Stock Premium"}, nil)

	rr := f.do(http.MethodPost, "/api/pricing_rules", f.admin, `{"pricing_rule":{"name":"Low Stock Premium"}}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	f.rules.AssertExpectations(t)
}

func TestCreateRule_ValidationError(t *testing.T) {
	f := newFixture(t, nil)
	f.rules.On("CreateRule", mock.Anything, mock.Anything).Return(domain.PricingRule{}, apperror.NewValidationError("prioridade"))

	rr := f.do(http.MethodPost, "/api/pricing_rules", f.admin, `{"name":"x","priority":0}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body.Category)
}

func TestCreateRule_MalformedJSON(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodPost, "/api/pricing_rules", f.admin, `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	f.rules.AssertNotCalled(t, "CreateRule", mock.Anything, mock.Anything)
}

func TestDeleteRule_NoContent(t *testing.T) {
	f := newFixture(t, nil)
	f.rules.On("DeleteRule", mock.Anything, "r1").Return(nil)

	rr := f.do(http.MethodDelete, "/api/pricing_rules/r1", f.admin, "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestGetLog_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	f.pricing.On("GetLog", mock.Anything, "nope").Return(domain.PricingLog{}, apperror.NewNotFoundError("nope"))

	rr := f.do(http.MethodGet, "/api/pricing_logs/nope", "", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListLogs_UsesDefaultLimit(t *testing.T) {
	f := newFixture(t, nil)
	msg := "boom"
	f.pricing.On("ListLogs", mock.Anything, 50).Return([]domain.PricingLog{
		{ID: "log-1", Status: domain.LogFailed, ErrorLog: &msg},
	}, nil)

	rr := f.do(http.MethodGet, "/api/pricing_logs", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"errorLog":"boom"`)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, nil)
	f.pricing.On("PreviewAll", mock.Anything).Return([]domain.PricePreview{{ID: "tv", ProposedPriceCents: 71910}}, nil)

	rr := f.do(http.MethodGet, "/api/price_preview", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"proposedPriceCents":71910`)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	f := newFixture(t, nil)
	f.products.On("ListProducts", mock.Anything).Return([]domain.Product(nil), apperror.NewDBError("list", errors.New("pq: senha incorreta")))

	rr := f.do(http.MethodGet, "/api/products", "", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "senha")
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var st health.Status
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&st))
	assert.Equal(t, "ok", st.Status)
	assert.True(t, st.Database.Connected)
	assert.Equal(t, "goprice", st.Database.Name)

	degraded := newFixture(t, errors.New("connection refused"))
	rr = degraded.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestMetricsAndDocs(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"/api/pricing_rules/apply"`)
}
