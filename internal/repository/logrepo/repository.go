package logrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
)

// DefaultRecentLimit é o tamanho padrão do histórico de execuções.
const DefaultRecentLimit = 50

type logRow struct {
	ID            string         `db:"id"`
	JobID         string         `db:"job_id"`
	AppliedAt     time.Time      `db:"applied_at"`
	Status        string         `db:"status"`
	AffectedCount int            `db:"affected_count"`
	TotalProducts int            `db:"total_products"`
	ErrorLog      sql.NullString `db:"error_log"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r logRow) toDomain() domain.PricingLog {
	l := domain.PricingLog{
		ID:            r.ID,
		JobID:         r.JobID,
		AppliedAt:     r.AppliedAt,
		Status:        domain.LogStatus(r.Status),
		AffectedCount: r.AffectedCount,
		TotalProducts: r.TotalProducts,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ErrorLog.Valid {
		l.ErrorLog = &r.ErrorLog.String
	}
	return l
}

func fromDomain(l domain.PricingLog) logRow {
	row := logRow{
		ID:            l.ID,
		JobID:         l.JobID,
		AppliedAt:     l.AppliedAt,
		Status:        string(l.Status),
		AffectedCount: l.AffectedCount,
		TotalProducts: l.TotalProducts,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	if l.ErrorLog != nil {
		row.ErrorLog = sql.NullString{String: *l.ErrorLog, Valid: true}
	}
	return row
}

const selectLogs = `
	SELECT id, job_id, applied_at, status, affected_count, total_products, error_log, created_at, updated_at
	FROM pricing_logs`

// LogRepository guarda o histórico de execuções (pricing_logs).
type LogRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewLogRepository(db *sqlx.DB, dbTimeout time.Duration, log logger.Logger) *LogRepository {
	return &LogRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Create insere o log no estado inicial.
func (r *LogRepository) Create(ctx context.Context, l domain.PricingLog) error {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
		INSERT INTO pricing_logs (id, job_id, applied_at, status, affected_count, total_products, error_log, created_at, updated_at)
		VALUES (:id, :job_id, :applied_at, :status, :affected_count, :total_products, :error_log, :created_at, :updated_at)`

	if _, err := r.DB.NamedExecContext(ctx, insertSQL, fromDomain(l)); err != nil {
		return apperror.NewDBError("falha ao criar log de execução", err)
	}
	return nil
}

func (r *LogRepository) FindByID(ctx context.Context, id string) (domain.PricingLog, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var row logRow
	err := r.DB.GetContext(ctx, &row, selectLogs+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PricingLog{}, apperror.NewNotFoundError(fmt.Sprintf("log de execução %s não existe", id))
	}
	if err != nil {
		return domain.PricingLog{}, apperror.NewDBError("falha ao buscar log de execução", err)
	}
	return row.toDomain(), nil
}

// Update grava o estado terminal do log. Só altera linhas ainda em "processing":
// se o log já foi finalizado por outra execução, devolve ConflictError.
func (r *LogRepository) Update(ctx context.Context, l domain.PricingLog) error {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
		UPDATE pricing_logs
		SET status = :status, affected_count = :affected_count, total_products = :total_products,
		    error_log = :error_log, updated_at = :updated_at
		WHERE id = :id AND status = 'processing'`

	res, err := r.DB.NamedExecContext(ctx, updateSQL, fromDomain(l))
	if err != nil {
		return apperror.NewDBError("falha ao atualizar log de execução", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao ler linhas alteradas", err)
	}
	if n == 0 {
		return apperror.NewConflictError(fmt.Sprintf("log de execução %s não está mais em processing", l.ID))
	}
	return nil
}

// ListRecent devolve as execuções mais recentes primeiro. limit <= 0 usa DefaultRecentLimit.
func (r *LogRepository) ListRecent(ctx context.Context, limit int) ([]domain.PricingLog, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var rows []logRow
	if err := r.DB.SelectContext(ctx, &rows, selectLogs+` ORDER BY applied_at DESC, id DESC LIMIT $1`, limit); err != nil {
		return nil, apperror.NewDBError("falha ao listar logs de execução", err)
	}

	logs := make([]domain.PricingLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toDomain())
	}
	return logs, nil
}
