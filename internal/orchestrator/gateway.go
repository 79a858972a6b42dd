package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// gatewayTransitions задаёт целевое состояние для каждого действия шлюза.
var gatewayTransitions = map[domain.GatewayAction]domain.ProjectState{
	domain.ActionFinalize:              domain.StateReqsReady,
	domain.ActionPlan:                  domain.StateReqsReady,
	domain.ActionRequestCodeValidation: domain.StateCodeValidationRequested,
}

// actionReasons — человекочитаемые причины переходов для истории.
var actionReasons = map[domain.GatewayAction]string{
	domain.ActionFinalize:              "User chose to finalize requirements",
	domain.ActionPlan:                  "User chose to proceed to planning",
	domain.ActionRequestCodeValidation: "User requested code validation",
}

// GatewayRequest — запрос пользовательского решения на шлюзе требований.
//
// CorrelationID необязателен: при uuid.Nil берётся correlation id из
// контекста запроса, а если и его нет — генерируется новый.
type GatewayRequest struct {
	ProjectID     uuid.UUID
	RequestID     uuid.UUID
	Action        domain.GatewayAction
	CorrelationID uuid.UUID
	UserID        *string
}

// resolveCorrelationID выбирает correlation id для записи шлюза так,
// чтобы GatewayAuditRecord и записи аудита одного решения несли один id.
func resolveCorrelationID(ctx context.Context, req GatewayRequest) uuid.UUID {
	if req.CorrelationID != uuid.Nil {
		return req.CorrelationID
	}
	if id, err := uuid.Parse(telemetry.CorrelationID(ctx)); err == nil {
		return id
	}
	return uuid.New()
}

// GatewayResponse — результат применения (или воспроизведения) решения.
// Повторный запрос с тем же RequestID возвращает тот же ответ, что и
// первый, с Replayed=true.
type GatewayResponse struct {
	ProjectID     uuid.UUID            `json:"project_id"`
	RequestID     uuid.UUID            `json:"request_id"`
	CorrelationID uuid.UUID            `json:"correlation_id"`
	Action        domain.GatewayAction `json:"action"`
	FromState     domain.ProjectState  `json:"from_state"`
	ToState       domain.ProjectState  `json:"to_state"`
	Replayed      bool                 `json:"replayed"`
	AppliedAt     time.Time            `json:"applied_at"`
}

func gatewayResponse(rec *domain.GatewayAuditRecord, replayed bool) *GatewayResponse {
	return &GatewayResponse{
		ProjectID:     rec.ProjectID,
		RequestID:     rec.RequestID,
		CorrelationID: rec.CorrelationID,
		Action:        rec.Action,
		FromState:     rec.FromState,
		ToState:       rec.ToState,
		Replayed:      replayed,
		AppliedAt:     rec.CreatedAt,
	}
}

// GatewayTransition применяет пользовательское решение на шлюзе
// требований ровно один раз.
//
// Идемпотентность обеспечивается уникальностью RequestID: повторная
// доставка того же запроса (в любой момент, из любого процесса)
// возвращает сохранённый результат первого применения и не трогает
// состояние проекта.
//
// Решение допустимо только в состоянии REQS_REFINING и только при
// наличии согласованного набора требований.
func (s *Service) GatewayTransition(ctx context.Context, req GatewayRequest) (*GatewayResponse, error) {
	if !req.Action.Valid() {
		return nil, fmt.Errorf("unknown gateway action %q", req.Action)
	}

	// Fast path: the request was already applied.
	if rec, err := s.store.GatewayRecordByRequestID(ctx, req.RequestID); err == nil {
		telemetry.GatewayRequests.WithLabelValues(req.Action.String(), "replayed").Inc()
		return gatewayResponse(rec, true), nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup gateway record: %w", err)
	}

	target := gatewayTransitions[req.Action]
	corrID := resolveCorrelationID(ctx, req)
	ctx = telemetry.WithCorrelationID(ctx, corrID.String())
	var rec *domain.GatewayAuditRecord

	err := s.store.WithProjectLock(ctx, req.ProjectID, func(tx ProjectTx) error {
		project := tx.Project()

		if project.Status != domain.StateReqsRefining {
			return &StateError{
				Err:             ErrInvalidStateTransition,
				CurrentState:    project.Status,
				RequestedAction: req.Action.String(),
			}
		}

		hasReqs, err := tx.HasRequirements(ctx)
		if err != nil {
			return fmt.Errorf("check requirements: %w", err)
		}
		if !hasReqs {
			return ErrNoRequirements
		}

		coherent, err := tx.AllCoherent(ctx)
		if err != nil {
			return fmt.Errorf("check requirement coherence: %w", err)
		}
		if !coherent {
			return ErrIncoherentRequirements
		}

		rec = &domain.GatewayAuditRecord{
			ID:            uuid.New(),
			ProjectID:     req.ProjectID,
			CorrelationID: corrID,
			RequestID:     req.RequestID,
			Action:        req.Action,
			FromState:     project.Status,
			ToState:       target,
			UserID:        req.UserID,
			CreatedAt:     s.now().UTC(),
		}
		if err := tx.InsertGatewayRecord(ctx, rec); err != nil {
			return fmt.Errorf("insert gateway record: %w", err)
		}

		triggeredBy := TriggeredBySystem
		if req.UserID != nil {
			triggeredBy = *req.UserID
		}
		return s.recordTransition(ctx, tx, req.ProjectID, project.Status, target, actionReasons[req.Action], triggeredBy, map[string]any{
			"gateway_action": req.Action.String(),
			"request_id":     req.RequestID.String(),
		})
	})
	if err != nil {
		// Another process applied the same RequestID between our fast
		// path and the insert. Serve its result.
		if errors.Is(err, ErrDuplicate) {
			existing, lookupErr := s.store.GatewayRecordByRequestID(ctx, req.RequestID)
			if lookupErr != nil {
				return nil, fmt.Errorf("re-read gateway record: %w", lookupErr)
			}
			telemetry.GatewayRequests.WithLabelValues(req.Action.String(), "replayed").Inc()
			return gatewayResponse(existing, true), nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, req.ProjectID)
		}
		if errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrNoRequirements) || errors.Is(err, ErrIncoherentRequirements) {
			telemetry.GatewayRequests.WithLabelValues(req.Action.String(), "rejected").Inc()
		}
		return nil, err
	}

	telemetry.GatewayRequests.WithLabelValues(req.Action.String(), "applied").Inc()
	telemetry.StateTransitions.WithLabelValues(rec.FromState.String(), rec.ToState.String()).Inc()

	s.logger.Info("gateway decision applied",
		"project_id", req.ProjectID,
		"request_id", req.RequestID,
		"action", req.Action,
		"from_state", rec.FromState,
		"to_state", rec.ToState,
		"reason", actionReasons[req.Action],
	)
	return gatewayResponse(rec, false), nil
}

// GetGatewayHistory возвращает решения шлюза по проекту, от новых к старым.
func (s *Service) GetGatewayHistory(ctx context.Context, projectID uuid.UUID) ([]domain.GatewayAuditRecord, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, err
	}
	records, err := s.store.GatewayHistory(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load gateway history: %w", err)
	}
	return records, nil
}
