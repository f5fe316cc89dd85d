// Command worker consome a fila do GoPrice fora do processo da API.
// Use com EMBEDDED_WORKER=false no servidor.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"goprice/config"
	"goprice/internal/pkg/cache"
	"goprice/internal/pkg/database"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/metrics"
	"goprice/internal/pkg/queue"
	"goprice/internal/repository/logrepo"
	"goprice/internal/repository/productrepo"
	"goprice/internal/repository/rulerepo"
	"goprice/internal/service/applyservice"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("⚠️ %v", err)
	}
	appLog := logger.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao Redis.", err)
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	productRepo := productrepo.NewProductRepository(db, cache.NewRedisClient(rdb), cfg.DBTimeout, cfg.CacheTTL, appLog)
	ruleRepo := rulerepo.NewRuleRepository(db, cfg.DBTimeout, appLog)
	logRepo := logrepo.NewLogRepository(db, cfg.DBTimeout, appLog)
	applySvc := applyservice.NewService(productRepo, ruleRepo, logRepo, appLog, m)

	worker := queue.NewWorker(queue.NewRedisBroker(rdb, cfg.QueueName), cfg.WorkerConcurrency, cfg.WorkerPollTimeout, appLog, m)
	worker.Handle(applyservice.Workflow, applySvc.HandleTask)

	// Só /metrics: o worker não expõe a API.
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	appLog.Info("Worker GoPrice iniciado", map[string]interface{}{
		"queue":       cfg.QueueName,
		"concurrency": cfg.WorkerConcurrency,
	})
	if err := g.Wait(); err != nil {
		appLog.Error("Worker encerrado com erro.", err)
		return
	}
	appLog.Info("Worker encerrado.", nil)
}
