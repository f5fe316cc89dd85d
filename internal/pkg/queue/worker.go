package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/metrics"
)

// HandlerFunc executa uma tarefa.
type HandlerFunc func(ctx context.Context, task Task) error

// ErrUnknownWorkflow é registrado quando nenhuma função atende o workflow da tarefa.
var ErrUnknownWorkflow = errors.New("queue: workflow desconhecido")

// Worker consome a fila com N goroutines.
type Worker struct {
	broker      Broker
	handlers    map[string]HandlerFunc
	concurrency int
	pollTimeout time.Duration
	log         logger.Logger
	metrics     *metrics.Metrics
}

// NewWorker cria um worker. Concorrência menor que 1 vira 1.
func NewWorker(broker Broker, concurrency int, pollTimeout time.Duration, log logger.Logger, m *metrics.Metrics) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Worker{
		broker:      broker,
		handlers:    make(map[string]HandlerFunc),
		concurrency: concurrency,
		pollTimeout: pollTimeout,
		log:         logger.With(log, map[string]interface{}{"component": "worker"}),
		metrics:     m,
	}
}

// Handle associa um workflow à sua função. Deve ser chamado antes do Run.
func (w *Worker) Handle(workflow string, fn HandlerFunc) {
	w.handlers[workflow] = fn
}

// Run consome tarefas até o contexto ser cancelado. A tarefa em execução termina antes do retorno.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		id := i
		g.Go(func() error {
			return w.loop(ctx, id)
		})
	}
	w.log.Info("worker iniciado", map[string]interface{}{"concurrency": w.concurrency})
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) error {
	log := logger.With(w.log, map[string]interface{}{"worker_id": id})
	for {
		if ctx.Err() != nil {
			return nil
		}

		task, ok, err := w.broker.Pop(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("falha ao ler a fila", map[string]interface{}{"error": err.Error()})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}

		// A tarefa roda num contexto que não é cancelado no shutdown, para que o log
		// de execução sempre chegue a um estado terminal.
		w.Process(context.WithoutCancel(ctx), task)
	}
}

// Process executa uma única tarefa, registrando a falha (erro ou panic) na lista de falhas.
func (w *Worker) Process(ctx context.Context, task Task) {
	fields := map[string]interface{}{"task_id": task.ID, "workflow": task.Workflow, "log_id": task.RunLogID}
	w.log.Info("tarefa recebida", fields)

	err := w.run(ctx, task)
	if err == nil {
		w.metrics.QueueTasks.WithLabelValues("success").Inc()
		w.log.Info("tarefa concluída", fields)
		return
	}

	w.metrics.QueueTasks.WithLabelValues("failed").Inc()
	w.log.Error(fmt.Sprintf("tarefa %s falhou", task.ID), err)
	if pushErr := w.broker.PushFailed(ctx, FailedTask{Task: task, Reason: err.Error(), FailedAt: time.Now().UTC()}); pushErr != nil {
		w.log.Error("falha ao registrar tarefa com erro", pushErr)
	}
}

func (w *Worker) run(ctx context.Context, task Task) (err error) {
	fn, ok := w.handlers[task.Workflow]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWorkflow, task.Workflow)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic na tarefa: %v", r)
		}
	}()
	return fn(ctx, task)
}
