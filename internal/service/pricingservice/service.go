package pricingservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/metrics"
	"goprice/internal/pkg/queue"
	"goprice/internal/pricing"
	"goprice/internal/service/applyservice"
)

type CatalogRepository interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

type RuleRepository interface {
	ListActive(ctx context.Context) ([]domain.PricingRule, error)
}

type LogRepository interface {
	Create(ctx context.Context, l domain.PricingLog) error
	FindByID(ctx context.Context, id string) (domain.PricingLog, error)
	ListRecent(ctx context.Context, limit int) ([]domain.PricingLog, error)
}

// Enqueuer entrega a tarefa ao worker.
type Enqueuer interface {
	Push(ctx context.Context, task queue.Task) error
}

// StartedRun é a resposta imediata ao disparo de uma execução.
type StartedRun struct {
	LogID  string
	JobID  string
	Status domain.LogStatus
}

// Service cobre o lado da requisição: preview dos preços, disparo e consulta das execuções.
type Service struct {
	catalog CatalogRepository
	rules   RuleRepository
	logs    LogRepository
	queue   Enqueuer
	engine  *pricing.Engine
	logger  logger.Logger
	now     func() time.Time
}

func NewService(catalog CatalogRepository, rules RuleRepository, logs LogRepository, q Enqueuer, log logger.Logger, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	s := &Service{
		catalog: catalog,
		rules:   rules,
		logs:    logs,
		queue:   q,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.engine = pricing.NewEngine(func(mv pricing.MalformedValue) {
		m.MalformedValues.WithLabelValues(mv.Field).Inc()
		log.Warn("valor de regra malformado ignorado", map[string]interface{}{
			"rule_id": mv.RuleID,
			"field":   mv.Field,
			"value":   mv.Value,
		})
	})
	return s
}

// StartRun cria o log em processing e enfileira a execução, sem esperar por ela.
// Se a fila falhar o log fica em processing (órfão) e o erro é devolvido.
func (s *Service) StartRun(ctx context.Context) (StartedRun, error) {
	run := StartedRun{
		LogID:  uuid.NewString(),
		JobID:  uuid.NewString(),
		Status: domain.LogProcessing,
	}

	if err := s.logs.Create(ctx, domain.NewPricingLog(run.LogID, run.JobID, s.now())); err != nil {
		return StartedRun{}, err
	}

	task := queue.NewTask(run.JobID, applyservice.Workflow, run.LogID)
	if err := s.queue.Push(ctx, task); err != nil {
		s.logger.Error(fmt.Sprintf("falha ao enfileirar a execução %s", run.LogID), err)
		return run, apperror.NewInternalError("falha ao enfileirar a aplicação das regras", err)
	}

	s.logger.Info("execução enfileirada", map[string]interface{}{"log_id": run.LogID, "job_id": run.JobID})
	return run, nil
}

// ListLogs devolve as execuções mais recentes (limit <= 0 usa o padrão do repositório).
func (s *Service) ListLogs(ctx context.Context, limit int) ([]domain.PricingLog, error) {
	return s.logs.ListRecent(ctx, limit)
}

func (s *Service) GetLog(ctx context.Context, id string) (domain.PricingLog, error) {
	return s.logs.FindByID(ctx, id)
}

// PreviewAll calcula o preço proposto para todo o catálogo sem gravar nada.
func (s *Service) PreviewAll(ctx context.Context) ([]domain.PricePreview, error) {
	products, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	previews := make([]domain.PricePreview, 0, len(products))
	for _, p := range products {
		previews = append(previews, s.preview(p, rules))
	}
	return previews, nil
}

// PreviewProduct calcula o preço proposto de um único produto.
func (s *Service) PreviewProduct(ctx context.Context, id string) (domain.PricePreview, error) {
	product, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return domain.PricePreview{}, err
	}
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return domain.PricePreview{}, err
	}
	return s.preview(product, rules), nil
}

func (s *Service) preview(p domain.Product, rules []domain.PricingRule) domain.PricePreview {
	proposed, rule, matched := s.engine.Evaluate(p, rules)
	pv := domain.PricePreview{
		ID:                   p.ID,
		Name:                 p.Name,
		Category:             p.Category,
		StockQuantity:        p.StockQuantity,
		BasePriceCents:       p.BasePriceCents,
		CurrentPriceCents:    p.CurrentPriceCents,
		ProposedPriceCents:   proposed,
		PriceChanged:         proposed != p.BasePriceCents,
		PriceDifferenceCents: proposed - p.BasePriceCents,
	}
	if matched {
		pv.MatchedRuleID = &rule.ID
		pv.MatchedRuleName = &rule.Name
	}
	return pv
}
