package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"goprice/internal/api/docs"
	"goprice/internal/api/health"
	pricingapi "goprice/internal/api/pricing"
	"goprice/internal/api/product"
	"goprice/internal/api/rule"
	"goprice/internal/api/user"
	"goprice/internal/domain"
	"goprice/internal/pkg/cache"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/middleware"
)

// Handlers agrupa os handlers já montados pelo main.
type Handlers struct {
	Product *product.Handler
	Rule    *rule.Handler
	Pricing *pricingapi.Handler
	User    *user.Handler
	Health  *health.Handler
}

// Options configura os middlewares globais.
type Options struct {
	TokenService    middleware.TokenService
	Cache           cache.Client // nil desliga o rate limit
	RateLimit       int
	RateLimitPeriod time.Duration
	Gatherer        prometheus.Gatherer
	Logger          logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recoverer(opts.Logger), middleware.RequestLogger(opts.Logger))

	// --- Infra ---
	r.HandleFunc("/health", h.Health.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/swagger/doc.json", docs.Handler).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- API ---
	api := r.PathPrefix("/api").Subrouter()
	if opts.Cache != nil {
		api.Use(middleware.RateLimiter(opts.Cache, opts.RateLimit, opts.RateLimitPeriod, opts.Logger))
	}

	auth := middleware.NewAuthMiddleware(opts.TokenService)
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return auth(middleware.PermissionMiddleware(domain.RoleAdmin)(fn))
	}

	api.HandleFunc("/register", h.User.RegisterUserHandler).Methods(http.MethodPost)
	api.HandleFunc("/login", h.User.LoginUserHandler).Methods(http.MethodPost)

	api.HandleFunc("/products", h.Product.ListProductsHandler).Methods(http.MethodGet)
	api.Handle("/products", adminOnly(h.Product.CreateProductHandler)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", h.Product.GetProductHandler).Methods(http.MethodGet)

	api.HandleFunc("/pricing_rules", h.Rule.ListRulesHandler).Methods(http.MethodGet)
	api.Handle("/pricing_rules", adminOnly(h.Rule.CreateRuleHandler)).Methods(http.MethodPost)
	api.Handle("/pricing_rules/apply", adminOnly(h.Pricing.ApplyRulesHandler)).Methods(http.MethodPost)
	api.Handle("/pricing_rules/{id}", adminOnly(h.Rule.UpdateRuleHandler)).Methods(http.MethodPut, http.MethodPatch)
	api.Handle("/pricing_rules/{id}", adminOnly(h.Rule.DeleteRuleHandler)).Methods(http.MethodDelete)

	api.HandleFunc("/pricing_logs", h.Pricing.ListLogsHandler).Methods(http.MethodGet)
	api.HandleFunc("/pricing_logs/{id}", h.Pricing.GetLogHandler).Methods(http.MethodGet)

	api.HandleFunc("/price_preview", h.Pricing.PreviewHandler).Methods(http.MethodGet)
	api.HandleFunc("/price_preview/{id}", h.Pricing.PreviewProductHandler).Methods(http.MethodGet)

	return r
}
