package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shaiso/Conductor/internal/domain"
)

// GetProjectStatus обрабатывает GET /api/v1/projects/{id}/status.
// Возвращает проект, последние события аудита, историю переходов
// и список допустимых следующих состояний.
func (h *Handler) GetProjectStatus(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	status, err := h.core.GetStatus(r.Context(), projectID)
	if err != nil {
		HandleCoreError(w, h.logger, err)
		return
	}

	Success(w, status)
}

// GetAuditLogs обрабатывает GET /api/v1/projects/{id}/audit.
// Параметры: page, page_size, event_type (опционально).
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)

	var eventType *domain.EventType
	if raw := r.URL.Query().Get("event_type"); raw != "" {
		et, ok := domain.ParseEventType(raw)
		if !ok {
			BadRequest(w, fmt.Sprintf("unknown event_type: %s", raw))
			return
		}
		eventType = &et
	}

	logs, err := h.core.GetAuditLogs(r.Context(), projectID, page, pageSize, eventType)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, logs)
}

// RetryAgent обрабатывает POST /api/v1/projects/{id}/retry/{agent}.
// Тело запроса опционально: metadata участвует в dedup-хэше.
func (h *Handler) RetryAgent(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	agentRaw := r.PathValue("agent")
	agent, ok := domain.ParseAgentType(agentRaw)
	if !ok {
		Error(w, http.StatusBadRequest, ErrCodeUnknownAgent, fmt.Sprintf("unknown agent: %s", agentRaw))
		return
	}

	var req RetryRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	result, err := h.core.Retry(r.Context(), projectID, agent, req.Force, req.Metadata)
	if err != nil {
		HandleCoreError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusAccepted, DataResponse{Data: result})
}
