package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Conductor/internal/orchestrator"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeNoRequirements    ErrorCode = "NO_REQUIREMENTS"
	ErrCodeIncoherentReqs    ErrorCode = "INCOHERENT_REQUIREMENTS"
	ErrCodeRetryNotAllowed   ErrorCode = "RETRY_NOT_ALLOWED"
	ErrCodeUnknownAgent      ErrorCode = "UNKNOWN_AGENT"
	ErrCodeDispatchFailed    ErrorCode = "DISPATCH_FAILED"
	ErrCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	ErrorWithDetails(w, status, code, message, nil)
}

// ErrorWithDetails отправляет ответ с ошибкой и деталями.
func ErrorWithDetails(w http.ResponseWriter, status int, code ErrorCode, message string, details map[string]any) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleCoreError преобразует ошибку ядра в HTTP ответ.
// Возвращает true, если ошибка обработана.
func HandleCoreError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	var stateErr *orchestrator.StateError
	if errors.As(err, &stateErr) {
		details := map[string]any{
			"current_state":    stateErr.CurrentState.String(),
			"requested_action": stateErr.RequestedAction,
		}
		code := ErrCodeInvalidTransition
		if errors.Is(err, orchestrator.ErrRetryNotAllowed) {
			code = ErrCodeRetryNotAllowed
		}
		ErrorWithDetails(w, http.StatusConflict, code, stateErr.Error(), details)
		return true
	}

	switch {
	case errors.Is(err, orchestrator.ErrProjectNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, orchestrator.ErrNoRequirements):
		Error(w, http.StatusUnprocessableEntity, ErrCodeNoRequirements, err.Error())
	case errors.Is(err, orchestrator.ErrIncoherentRequirements):
		Error(w, http.StatusUnprocessableEntity, ErrCodeIncoherentReqs, err.Error())
	case errors.Is(err, orchestrator.ErrUnresolvableAgent):
		Error(w, http.StatusBadRequest, ErrCodeUnknownAgent, err.Error())
	case errors.Is(err, orchestrator.ErrDispatchFailed):
		Error(w, http.StatusBadGateway, ErrCodeDispatchFailed, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}
