package product

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"goprice/internal/api/response"
	"goprice/internal/domain"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/middleware"
	"goprice/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, in productservice.ProductInput) (domain.Product, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListProductsHandler lida com GET /api/products.
// @Summary Lista o catálogo
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Router /api/products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	response.Handle(w, r, h.Logger, products, err, http.StatusOK)
}

// GetProductHandler lida com GET /api/products/{id}.
// @Summary Busca um produto
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
// @Router /api/products/{id} [get]
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProduct(r.Context(), mux.Vars(r)["id"])
	response.Handle(w, r, h.Logger, product, err, http.StatusOK)
}

// CreateProductHandler lida com POST /api/products (admin).
// @Summary Cadastra um produto
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body productservice.ProductInput true "Produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
// @Router /api/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var in productservice.ProductInput
	if err := response.Decode(r, &in); err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusCreated)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Info("cadastro de produto", map[string]interface{}{"user_id": claims.UserID})
	}

	created, err := h.Service.CreateProduct(r.Context(), in)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}
