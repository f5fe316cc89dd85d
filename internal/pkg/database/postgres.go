package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	// Driver pq para PostgreSQL (registrado como "postgres")
	_ "github.com/lib/pq"

	"goprice/migrations"
)

// NewPostgresDB inicializa e configura o pool de conexões com o PostgreSQL.
// Retorna a conexão *sqlx.DB pronta para uso (o *sql.DB fica em db.DB).
func NewPostgresDB(ctx context.Context, dataSourceName string) (*sqlx.DB, error) {
	// 1. Abrir e testar a conexão (sqlx.ConnectContext faz Open + Ping)
	db, err := sqlx.ConnectContext(ctx, "postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no DB: %w", err)
	}

	// 2. Configuração do Connection Pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}

// Migrate executa um comando do goose (up, down, status, redo, version...)
// sobre as migrações SQL embutidas no binário.
func Migrate(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: dialeto inválido: %w", err)
	}

	if err := goose.RunContext(ctx, command, db.DB, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Name extrai o nome do banco de uma URL postgres:// (usado no /health).
func Name(dataSourceName string) string {
	u, err := url.Parse(dataSourceName)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
