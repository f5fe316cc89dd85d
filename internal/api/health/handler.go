package health

import (
	"context"
	"net/http"
	"time"

	"goprice/internal/api/response"
	"goprice/internal/pkg/logger"
)

// Pinger é qualquer dependência que responde a um ping (banco, Redis).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapta uma função a Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

type DependencyStatus struct {
	Connected bool   `json:"connected"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Status struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Database  DependencyStatus `json:"database"`
	Redis     DependencyStatus `json:"redis"`
}

type Handler struct {
	db     Pinger
	dbName string
	redis  Pinger
	logger logger.Logger
}

func NewHandler(db Pinger, dbName string, redis Pinger, log logger.Logger) *Handler {
	return &Handler{db: db, dbName: dbName, redis: redis, logger: log}
}

// HealthHandler lida com GET /health. Responde 503 se alguma dependência falhar.
// @Summary Estado do serviço e das dependências
// @Tags health
// @Produce json
// @Success 200 {object} Status
// @Failure 503 {object} Status
// @Router /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st := Status{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Database:  check(ctx, h.db),
		Redis:     check(ctx, h.redis),
	}
	if st.Database.Connected {
		st.Database.Name = h.dbName
	}

	code := http.StatusOK
	if !st.Database.Connected || !st.Redis.Connected {
		st.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, h.logger, code, st)
}

func check(ctx context.Context, p Pinger) DependencyStatus {
	if p == nil {
		return DependencyStatus{Error: "não configurado"}
	}
	if err := p.PingContext(ctx); err != nil {
		return DependencyStatus{Error: err.Error()}
	}
	return DependencyStatus{Connected: true}
}
