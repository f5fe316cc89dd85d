package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goprice/internal/domain"
	"goprice/internal/pkg/cache"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/middleware"
	"goprice/internal/pkg/token"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewService("segredo", time.Hour)
	admin, err := tokens.GenerateToken("u-1", string(domain.RoleAdmin))
	require.NoError(t, err)
	user, err := tokens.GenerateToken("u-2", string(domain.RoleUser))
	require.NoError(t, err)

	chain := middleware.NewAuthMiddleware(tokens)(middleware.PermissionMiddleware(domain.RoleAdmin)(okHandler))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"sem header", "", http.StatusUnauthorized},
		{"sem Bearer", admin, http.StatusUnauthorized},
		{"token inválido", "Bearer abc", http.StatusUnauthorized},
		{"usuário comum", "Bearer " + user, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pricing_rules", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			chain.ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

// memCache é um cache.Client em memória, suficiente para o rate limiter.
type memCache struct {
	values map[string]int
	err    error
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) { return "", cache.ErrCacheMiss }
func (m *memCache) GetInt(ctx context.Context, key string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return 0, cache.ErrCacheMiss
	}
	return v, nil
}
func (m *memCache) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	m.values[key] = value.(int)
	return nil
}
func (m *memCache) Incr(ctx context.Context, key string) (int64, error) {
	m.values[key]++
	return int64(m.values[key]), nil
}
func (m *memCache) Delete(ctx context.Context, keys ...string) error { return nil }
func (m *memCache) Ping(ctx context.Context) error                   { return m.err }

func TestRateLimiter(t *testing.T) {
	c := &memCache{values: map[string]int{}}
	h := middleware.RateLimiter(c, 2, time.Minute, logger.NewNopLogger())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	c := &memCache{values: map[string]int{}, err: errors.New("redis fora")}
	h := middleware.RateLimiter(c, 1, time.Minute, logger.NewNopLogger())(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRecoverer(t *testing.T) {
	h := middleware.Recoverer(logger.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
