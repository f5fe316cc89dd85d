package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config armazena todas as configurações do GoPrice (API, Worker, Migrações e Seed).
type Config struct {
	// Geral
	Port            string        `envconfig:"PORT" default:"8080"`
	Environment     string        `envconfig:"ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	// Banco de Dados (PostgreSQL)
	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	// Cache e Fila (Redis)
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	// Segurança (JWT)
	JWTSecretKey string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	TokenExpiry  time.Duration `envconfig:"JWT_EXPIRY" default:"60m"`

	// Rate Limiting
	RateLimitMaxRequests int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"100"`
	RateLimitPeriod      time.Duration `envconfig:"RATE_LIMIT_PERIOD" default:"1m"`

	// Fila de tarefas e Worker
	QueueName         string        `envconfig:"QUEUE_NAME" default:"goprice:jobs"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"1"`
	WorkerPollTimeout time.Duration `envconfig:"WORKER_POLL_TIMEOUT" default:"2s"`
	EmbeddedWorker    bool          `envconfig:"EMBEDDED_WORKER" default:"true"`
}

// LoadConfig carrega o .env (se existir) e depois as variáveis de ambiente.
func LoadConfig() (*Config, error) {
	// O arquivo .env é opcional: em Docker as variáveis já vêm do ambiente.
	if err := godotenv.Load(); err != nil {
		log.Println("Aviso: arquivo .env não encontrado. Usando apenas variáveis do ambiente.")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("erro de configuração: %w", err)
	}

	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}

	return &cfg, nil
}
