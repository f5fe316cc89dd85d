// Package applyservice executa o fluxo de aplicação em lote: recalcula o preço de todo
// o catálogo com as regras ativas, grava as alterações numa única escrita e finaliza o
// log de execução (PricingLog) em success ou failed.
package applyservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/metrics"
	"goprice/internal/pkg/queue"
	"goprice/internal/pricing"
)

// Workflow é o nome da tarefa na fila.
const Workflow = "apply_pricing_rules"

// traceDepth é o número de frames guardados no resumo de erro.
const traceDepth = 5

// CatalogRepository é o que o fluxo precisa do catálogo.
type CatalogRepository interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	BulkSetPrice(ctx context.Context, updates []domain.PriceUpdate) (int, error)
}

// RuleRepository devolve as regras ativas já na ordem de avaliação.
type RuleRepository interface {
	ListActive(ctx context.Context) ([]domain.PricingRule, error)
}

// LogRepository lê e finaliza o log de execução.
type LogRepository interface {
	FindByID(ctx context.Context, id string) (domain.PricingLog, error)
	Update(ctx context.Context, l domain.PricingLog) error
}

// RunOutcome é o resultado de uma execução.
type RunOutcome struct {
	LogID         string    `json:"logId"`
	Success       bool      `json:"success"`
	AffectedCount int       `json:"affectedCount"`
	TotalProducts int       `json:"totalProducts"`
	Timestamp     time.Time `json:"timestamp"`
}

// Service executa o fluxo de aplicação em lote.
type Service struct {
	catalog CatalogRepository
	rules   RuleRepository
	logs    LogRepository
	engine  *pricing.Engine
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService cria o serviço. Valores malformados nas regras viram warning + métrica.
func NewService(catalog CatalogRepository, rules RuleRepository, logs LogRepository, log logger.Logger, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	s := &Service{
		catalog: catalog,
		rules:   rules,
		logs:    logs,
		logger:  logger.With(log, map[string]interface{}{"component": "apply"}),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.engine = pricing.NewEngine(s.reportMalformed)
	return s
}

func (s *Service) reportMalformed(mv pricing.MalformedValue) {
	s.metrics.MalformedValues.WithLabelValues(mv.Field).Inc()
	s.logger.Warn("valor de regra malformado ignorado", map[string]interface{}{
		"rule_id":   mv.RuleID,
		"rule_name": mv.RuleName,
		"field":     mv.Field,
		"value":     mv.Value,
		"error":     mv.Err.Error(),
	})
}

// HandleTask adapta Run para o worker da fila. A entrega é at-least-once: uma tarefa
// repetida para um log já finalizado é descartada sem erro.
func (s *Service) HandleTask(ctx context.Context, task queue.Task) error {
	_, err := s.Run(ctx, task.RunLogID)

	var conflict *apperror.ConflictError
	if errors.As(err, &conflict) {
		s.logger.Info("tarefa repetida ignorada: log já finalizado", map[string]interface{}{
			"log_id":  task.RunLogID,
			"task_id": task.ID,
		})
		return nil
	}
	return err
}

// Run recalcula os preços do catálogo e finaliza o log runLogID.
//
// Se o log não existe (ou não pode ser lido) nada é alterado e o erro é devolvido.
// Qualquer falha ao ler o catálogo, ler as regras ou gravar os preços marca o log como
// failed com um resumo do erro, e o erro original é devolvido para a fila.
func (s *Service) Run(ctx context.Context, runLogID string) (RunOutcome, error) {
	start := time.Now()
	fields := map[string]interface{}{"log_id": runLogID}

	runLog, err := s.logs.FindByID(ctx, runLogID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("log de execução %s indisponível", runLogID), err)
		return RunOutcome{}, err
	}
	if runLog.Status.Terminal() {
		return RunOutcome{}, apperror.NewConflictError(fmt.Sprintf("log de execução %s já finalizado (%s)", runLogID, runLog.Status))
	}

	s.logger.Info("execução iniciada", fields)

	affected, total, runErr := s.reprice(ctx)
	defer func() { s.metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	if runErr != nil {
		s.metrics.RunsTotal.WithLabelValues(string(domain.LogFailed)).Inc()
		s.logger.Error(fmt.Sprintf("execução %s falhou", runLogID), runErr)

		_ = runLog.Fail(Summarize(runErr))
		runLog.UpdatedAt = s.now()
		if err := s.logs.Update(ctx, runLog); err != nil {
			s.logger.Error(fmt.Sprintf("falha ao marcar a execução %s como failed", runLogID), err)
		}
		return RunOutcome{LogID: runLogID, Success: false, Timestamp: runLog.UpdatedAt}, runErr
	}

	_ = runLog.Succeed(affected, total)
	runLog.UpdatedAt = s.now()
	if err := s.logs.Update(ctx, runLog); err != nil {
		s.logger.Error(fmt.Sprintf("falha ao marcar a execução %s como success", runLogID), err)
		return RunOutcome{}, err
	}

	s.metrics.RunsTotal.WithLabelValues(string(domain.LogSuccess)).Inc()
	s.metrics.ProductsRepriced.Add(float64(affected))
	s.logger.Info("execução concluída", map[string]interface{}{
		"log_id":         runLogID,
		"affected_count": affected,
		"total_products": total,
		"duration_ms":    time.Since(start).Milliseconds(),
	})

	return RunOutcome{
		LogID:         runLogID,
		Success:       true,
		AffectedCount: affected,
		TotalProducts: total,
		Timestamp:     runLog.UpdatedAt,
	}, nil
}

// reprice lê os snapshots, calcula os novos preços e grava as diferenças.
// Um panic é convertido em erro para que o log ainda possa ser finalizado.
func (s *Service) reprice(ctx context.Context) (affected, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	products, err := s.catalog.ListAll(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "carregar catálogo")
	}
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "carregar regras ativas")
	}

	updates := make([]domain.PriceUpdate, 0)
	for _, p := range products {
		price := s.engine.PriceFor(p, rules)
		if price != p.CurrentPriceCents {
			updates = append(updates, domain.PriceUpdate{ProductID: p.ID, NewPriceCents: price})
		}
	}

	if len(updates) > 0 {
		written, err := s.catalog.BulkSetPrice(ctx, updates)
		if err != nil {
			return 0, 0, errors.Wrap(err, "gravar preços")
		}
		if written != len(updates) {
			s.logger.Warn("produtos removidos durante a execução", map[string]interface{}{
				"pending": len(updates),
				"written": written,
			})
		}
	}

	return len(updates), len(products), nil
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Summarize monta o resumo guardado no log: "<tipo da causa>: <mensagem>" seguido de
// até cinco frames da pilha capturada no erro.
func Summarize(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%T: %s", errors.Cause(err), err.Error())

	for e := err; e != nil; e = errors.Unwrap(e) {
		st, ok := e.(stackTracer)
		if !ok {
			continue
		}
		frames := st.StackTrace()
		if len(frames) > traceDepth {
			frames = frames[:traceDepth]
		}
		for _, f := range frames {
			fmt.Fprintf(&b, "\n%n (%s:%d)", f, f, f)
		}
		break
	}
	return b.String()
}
