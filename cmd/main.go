package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	// Infraestrutura e utilitários
	"goprice/config"
	"goprice/internal/pkg/cache"
	"goprice/internal/pkg/database"
	"goprice/internal/pkg/logger"
	"goprice/internal/pkg/metrics"
	"goprice/internal/pkg/queue"
	"goprice/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"goprice/internal/api/health"
	pricingapi "goprice/internal/api/pricing"
	"goprice/internal/api/product"
	"goprice/internal/api/router"
	"goprice/internal/api/rule"
	"goprice/internal/api/user"
	"goprice/internal/repository/logrepo"
	"goprice/internal/repository/productrepo"
	"goprice/internal/repository/rulerepo"
	"goprice/internal/repository/userrepo"
	"goprice/internal/service/applyservice"
	"goprice/internal/service/pricingservice"
	"goprice/internal/service/productservice"
	"goprice/internal/service/ruleservice"
	"goprice/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("⚠️ %v", err)
	}
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("⚡ Inicializando serviço GoPrice...", map[string]interface{}{"env": cfg.Environment})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Redis (cache, rate limit e fila)
	rdb, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao Redis.", err)
	}
	defer rdb.Close()
	cacheClient := cache.NewRedisClient(rdb)
	broker := queue.NewRedisBroker(rdb, cfg.QueueName)
	appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"queue": cfg.QueueName})

	// C. Métricas (Prometheus)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	ruleRepo := rulerepo.NewRuleRepository(db, cfg.DBTimeout, appLog)
	logRepo := logrepo.NewLogRepository(db, cfg.DBTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)

	// B. Serviços
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	productSvc := productservice.NewService(productRepo, appLog)
	ruleSvc := ruleservice.NewService(ruleRepo, appLog)
	pricingSvc := pricingservice.NewService(productRepo, ruleRepo, logRepo, broker, appLog, m)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)

	// C. Handlers
	handlers := router.Handlers{
		Product: product.NewHandler(productSvc, appLog),
		Rule:    rule.NewHandler(ruleSvc, appLog),
		Pricing: pricingapi.NewHandler(pricingSvc, appLog),
		User:    user.NewHandler(userSvc, appLog),
		Health:  health.NewHandler(db, database.Name(cfg.DatabaseURL), health.PingerFunc(cacheClient.Ping), appLog),
	}

	// 4. Roteador e Servidor
	r := router.NewRouter(handlers, router.Options{
		TokenService:    tokenSvc,
		Cache:           cacheClient,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
		Gatherer:        reg,
		Logger:          appLog,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução: servidor HTTP e (opcionalmente) o worker no mesmo processo
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLog.Info("Servidor GoPrice ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.EmbeddedWorker {
		applySvc := applyservice.NewService(productRepo, ruleRepo, logRepo, appLog, m)
		worker := queue.NewWorker(broker, cfg.WorkerConcurrency, cfg.WorkerPollTimeout, appLog, m)
		worker.Handle(applyservice.Workflow, applySvc.HandleTask)
		g.Go(func() error { return worker.Run(gctx) })
	}

	// Graceful Shutdown: sinal recebido ou falha em uma das goroutines
	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("Encerrando servidor...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLog.Error("Servidor encerrado com erro.", err)
		os.Exit(1)
	}
	appLog.Info("Servidor encerrado com sucesso.", nil)
}
