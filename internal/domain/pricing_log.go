package domain

import (
	"errors"
	"time"
)

// LogStatus é o estado do registro de auditoria de uma execução em lote.
type LogStatus string

const (
	LogProcessing LogStatus = "processing" // único estado não-terminal
	LogSuccess    LogStatus = "success"
	LogFailed     LogStatus = "failed"
)

// Terminal informa se o status é final.
func (s LogStatus) Terminal() bool {
	return s == LogSuccess || s == LogFailed
}

// ErrLogAlreadyFinished é retornado por qualquer transição a partir de um estado terminal.
var ErrLogAlreadyFinished = errors.New("pricing log already in a terminal state")

// unknownFailure garante que um log "failed" nunca fique sem detalhe de erro.
const unknownFailure = "unknown error"

// PricingLog é o registro de auditoria (RunLog) de uma execução do fluxo de aplicação em lote.
type PricingLog struct {
	ID            string    `json:"id"`
	JobID         string    `json:"jobId,omitempty"`
	AppliedAt     time.Time `json:"appliedAt"`
	Status        LogStatus `json:"status"`
	AffectedCount int       `json:"affectedCount"`
	TotalProducts int       `json:"totalProducts"`
	ErrorLog      *string   `json:"errorLog"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewPricingLog cria o log no estado inicial "processing", com contadores zerados.
func NewPricingLog(id, jobID string, appliedAt time.Time) PricingLog {
	return PricingLog{
		ID:        id,
		JobID:     jobID,
		AppliedAt: appliedAt,
		Status:    LogProcessing,
		CreatedAt: appliedAt,
		UpdatedAt: appliedAt,
	}
}

// Succeed faz a transição processing -> success com os contadores da execução.
func (l *PricingLog) Succeed(affected, total int) error {
	if l.Status.Terminal() {
		return ErrLogAlreadyFinished
	}
	l.Status = LogSuccess
	l.AffectedCount = affected
	l.TotalProducts = total
	l.ErrorLog = nil
	return nil
}

// Fail faz a transição processing -> failed guardando o resumo do erro.
// Os contadores permanecem nos valores anteriores à execução.
func (l *PricingLog) Fail(detail string) error {
	if l.Status.Terminal() {
		return ErrLogAlreadyFinished
	}
	if detail == "" {
		detail = unknownFailure
	}
	l.Status = LogFailed
	l.ErrorLog = &detail
	return nil
}
