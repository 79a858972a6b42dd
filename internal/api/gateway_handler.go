package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/orchestrator"
)

// GatewayTransition обрабатывает POST /api/v1/projects/{id}/gateway.
// Применяет пользовательское решение на шлюзе. Повторный запрос
// с тем же request_id возвращает результат первого применения.
func (h *Handler) GatewayTransition(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req GatewayTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.RequestID == uuid.Nil {
		BadRequest(w, "request_id is required")
		return
	}

	action, ok := domain.ParseGatewayAction(req.Action)
	if !ok {
		BadRequest(w, fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	resp, err := h.core.GatewayTransition(r.Context(), orchestrator.GatewayRequest{
		ProjectID:     projectID,
		RequestID:     req.RequestID,
		Action:        action,
		CorrelationID: req.CorrelationID,
		UserID:        req.UserID,
	})
	if err != nil {
		HandleCoreError(w, h.logger, err)
		return
	}

	if resp.Replayed {
		Success(w, resp)
		return
	}
	Created(w, resp)
}

// GatewayHistory обрабатывает GET /api/v1/projects/{id}/gateway/history.
func (h *Handler) GatewayHistory(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	records, err := h.core.GetGatewayHistory(r.Context(), projectID)
	if err != nil {
		HandleCoreError(w, h.logger, err)
		return
	}

	List(w, records, len(records))
}
