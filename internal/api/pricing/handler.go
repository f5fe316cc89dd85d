package pricing

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"goprice/internal/api/response"
	"goprice/internal/domain"
	"goprice/internal/pkg/logger"
	"goprice/internal/repository/logrepo"
	"goprice/internal/service/pricingservice"
)

type PricingService interface {
	StartRun(ctx context.Context) (pricingservice.StartedRun, error)
	ListLogs(ctx context.Context, limit int) ([]domain.PricingLog, error)
	GetLog(ctx context.Context, id string) (domain.PricingLog, error)
	PreviewAll(ctx context.Context) ([]domain.PricePreview, error)
	PreviewProduct(ctx context.Context, id string) (domain.PricePreview, error)
}

// ApplyResponse é a resposta do disparo de uma execução.
type ApplyResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Status  domain.LogStatus `json:"status,omitempty"`
	LogID   string           `json:"logId,omitempty"`
}

type Handler struct {
	Service PricingService
	Logger  logger.Logger
}

func NewHandler(svc PricingService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ApplyRulesHandler lida com POST /api/pricing_rules/apply (admin).
// Cria o log em processing, enfileira a execução e responde sem esperar por ela.
// @Summary Aplica as regras ativas a todo o catálogo em segundo plano
// @Tags pricing_rules
// @Produce json
// @Security BearerAuth
// @Success 202 {object} ApplyResponse
// @Failure 500 {object} ApplyResponse
// @Router /api/pricing_rules/apply [post]
func (h *Handler) ApplyRulesHandler(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.StartRun(r.Context())
	if err != nil {
		h.Logger.Error("falha ao disparar a aplicação das regras", err)
		response.JSON(w, h.Logger, http.StatusInternalServerError, ApplyResponse{
			Success: false,
			Message: "Falha ao enfileirar a aplicação das regras.",
			LogID:   run.LogID,
		})
		return
	}

	response.JSON(w, h.Logger, http.StatusAccepted, ApplyResponse{
		Success: true,
		Message: "As regras de preço estão sendo aplicadas em segundo plano.",
		Status:  run.Status,
		LogID:   run.LogID,
	})
}

// ListLogsHandler lida com GET /api/pricing_logs.
// @Summary Últimas execuções (mais recentes primeiro)
// @Tags pricing_logs
// @Produce json
// @Success 200 {array} domain.PricingLog
// @Router /api/pricing_logs [get]
func (h *Handler) ListLogsHandler(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Service.ListLogs(r.Context(), logrepo.DefaultRecentLimit)
	response.Handle(w, r, h.Logger, logs, err, http.StatusOK)
}

// GetLogHandler lida com GET /api/pricing_logs/{id}.
// @Summary Consulta uma execução
// @Tags pricing_logs
// @Produce json
// @Param id path string true "ID do log"
// @Success 200 {object} domain.PricingLog
// @Failure 404 {object} domain.ErrorResponse
// @Router /api/pricing_logs/{id} [get]
func (h *Handler) GetLogHandler(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.GetLog(r.Context(), mux.Vars(r)["id"])
	response.Handle(w, r, h.Logger, l, err, http.StatusOK)
}

// PreviewHandler lida com GET /api/price_preview.
// @Summary Preço proposto para cada produto, sem gravar
// @Tags price_preview
// @Produce json
// @Success 200 {array} domain.PricePreview
// @Router /api/price_preview [get]
func (h *Handler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	previews, err := h.Service.PreviewAll(r.Context())
	response.Handle(w, r, h.Logger, previews, err, http.StatusOK)
}

// PreviewProductHandler lida com GET /api/price_preview/{id}.
// @Summary Preço proposto para um produto
// @Tags price_preview
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.PricePreview
// @Failure 404 {object} domain.ErrorResponse
// @Router /api/price_preview/{id} [get]
func (h *Handler) PreviewProductHandler(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Service.PreviewProduct(r.Context(), mux.Vars(r)["id"])
	response.Handle(w, r, h.Logger, preview, err, http.StatusOK)
}
