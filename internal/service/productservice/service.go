package productservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
)

// ProductRepository define o contrato que este Serviço espera da camada de persistência.
type ProductRepository interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
}

// ProductInput é o payload de cadastro. O preço atual é opcional e assume o preço base.
type ProductInput struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	StockQuantity     int    `json:"stockQuantity"`
	BasePriceCents    int64  `json:"basePriceCents"`
	CurrentPriceCents *int64 `json:"currentPriceCents"`
}

type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, apperror.NewValidationError("o ID do produto é obrigatório")
	}
	return s.repo.FindByID(ctx, id)
}

// CreateProduct valida e cadastra um produto no catálogo.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	switch {
	case in.Name == "" || in.Category == "":
		return domain.Product{}, apperror.NewValidationError("nome e categoria são obrigatórios")
	case in.StockQuantity < 0:
		return domain.Product{}, apperror.NewValidationError("o estoque não pode ser negativo")
	case in.BasePriceCents <= 0:
		return domain.Product{}, apperror.NewValidationError("o preço base deve ser positivo")
	case in.CurrentPriceCents != nil && *in.CurrentPriceCents < 0:
		return domain.Product{}, apperror.NewValidationError("o preço atual não pode ser negativo")
	}

	product := domain.NewProduct(uuid.NewString(), in.Name, in.Category, in.StockQuantity, in.BasePriceCents, in.CurrentPriceCents)
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("produto cadastrado", map[string]interface{}{"product_id": created.ID, "category": created.Category})
	return created, nil
}
