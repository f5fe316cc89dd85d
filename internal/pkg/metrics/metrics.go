// Package metrics expõe os coletores Prometheus do GoPrice.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa os coletores das execuções de preço.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	ProductsRepriced prometheus.Counter
	MalformedValues  *prometheus.CounterVec
	QueueTasks       *prometheus.CounterVec
}

// NewMetrics cria e registra os coletores. Um registerer nil cria coletores soltos (útil em testes).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goprice_pricing_runs_total",
			Help: "Execuções do workflow de aplicação de regras, por status final.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "goprice_pricing_run_duration_seconds",
			Help:    "Duração das execuções do workflow de aplicação de regras.",
			Buckets: prometheus.DefBuckets,
		}),
		ProductsRepriced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goprice_products_repriced_total",
			Help: "Produtos cujo preço atual foi alterado por uma execução.",
		}),
		MalformedValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goprice_malformed_rule_values_total",
			Help: "Valores de regra que não puderam ser interpretados, por campo.",
		}, []string{"field"}),
		QueueTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goprice_queue_tasks_total",
			Help: "Tarefas consumidas da fila, por resultado.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.RunsTotal, m.RunDuration, m.ProductsRepriced, m.MalformedValues, m.QueueTasks)
	}
	return m
}
