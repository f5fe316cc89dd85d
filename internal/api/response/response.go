// Package response padroniza as respostas JSON dos handlers.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
)

// Handle envia data com successStatus quando err é nil; caso contrário traduz o erro
// para {code, category, message}.
func Handle(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err == nil {
		JSON(w, log, successStatus, data)
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf("erro de servidor em %s %s", r.Method, r.URL.Path), err)
	} else {
		log.Debug("requisição rejeitada", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	JSON(w, log, status, domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// JSON escreve o corpo JSON com o status informado. data nil envia só o status.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("falha ao codificar JSON de resposta", err)
	}
}

// Decode lê o corpo JSON da requisição. Campos desconhecidos são ignorados.
func Decode(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperror.NewValidationError("corpo da requisição ausente")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("payload inválido, verifique o formato JSON")
	}
	return nil
}
