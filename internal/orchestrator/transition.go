package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// TriggeredBySystem — инициатор по умолчанию для системных переходов.
const TriggeredBySystem = "system"

// TransitionState переводит проект в состояние to.
//
// Единый линеаризуемый путь мутации статуса: строка проекта блокируется
// на всё время validate-then-write, затем в той же транзакции пишутся
// state history, доменное событие и запись аудита, и обновляется статус.
//
// Переход в текущее состояние (no-op) допустим и тоже фиксируется в
// истории. Недопустимый переход возвращает StateError с видом
// ErrInvalidStateTransition и не оставляет никаких записей.
func (s *Service) TransitionState(ctx context.Context, projectID uuid.UUID, to domain.ProjectState, reason, triggeredBy string, metadata map[string]any) error {
	var from domain.ProjectState

	err := s.store.WithProjectLock(ctx, projectID, func(tx ProjectTx) error {
		project := tx.Project()
		from = project.Status

		if err := fsm.ValidateTransition(from, to); err != nil {
			return &StateError{
				Err:             ErrInvalidStateTransition,
				CurrentState:    from,
				RequestedAction: to.String(),
			}
		}

		return s.recordTransition(ctx, tx, projectID, from, to, reason, triggeredBy, metadata)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		var stateErr *StateError
		if errors.As(err, &stateErr) {
			s.logger.Warn("invalid state transition",
				"project_id", projectID,
				"from_state", stateErr.CurrentState,
				"to_state", to,
			)
		}
		return err
	}

	telemetry.StateTransitions.WithLabelValues(from.String(), to.String()).Inc()

	s.logger.Info("project state transitioned",
		"project_id", projectID,
		"from_state", from,
		"to_state", to,
		"triggered_by", triggeredBy,
	)
	return nil
}

// recordTransition пишет полный след принятого перехода внутри уже
// открытой транзакции: state history, обновление статуса, доменное
// событие и запись аудита. Либо все четыре записи, либо ни одной.
func (s *Service) recordTransition(ctx context.Context, tx ProjectTx, projectID uuid.UUID, from, to domain.ProjectState, reason, triggeredBy string, metadata map[string]any) error {
	now := s.now().UTC()
	fromCopy := from

	if err := tx.InsertStateHistory(ctx, &domain.StateHistoryEntry{
		ID:          uuid.New(),
		ProjectID:   projectID,
		FromState:   &fromCopy,
		ToState:     to,
		Reason:      reason,
		TriggeredBy: triggeredBy,
		Metadata:    metadata,
		CreatedAt:   now,
	}); err != nil {
		return fmt.Errorf("insert state history: %w", err)
	}

	if err := tx.UpdateStatus(ctx, to); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if err := tx.InsertDomainEvent(ctx, &domain.DomainEvent{
		ID:            uuid.New(),
		AggregateID:   projectID,
		AggregateType: "project",
		EventName:     "state_changed_to_" + strings.ToLower(to.String()),
		EventVersion:  1,
		EventData: map[string]any{
			"from_state":   from.String(),
			"to_state":     to.String(),
			"reason":       reason,
			"triggered_by": triggeredBy,
		},
		Metadata:  metadata,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}

	if err := tx.InsertAuditLog(ctx, &domain.AuditLogEntry{
		ID:            uuid.New(),
		ProjectID:     projectID,
		CorrelationID: telemetry.CorrelationID(ctx),
		EventType:     domain.EventStateTransition,
		Action:        fmt.Sprintf("State transition: %s -> %s", from, to),
		Details: map[string]any{
			"from_state": from.String(),
			"to_state":   to.String(),
			"reason":     reason,
		},
		UserID:    userIDFrom(triggeredBy),
		Success:   true,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

// userIDFrom возвращает user id для записи аудита.
// Системные и агентские инициаторы не являются пользователями.
func userIDFrom(triggeredBy string) *string {
	if triggeredBy == "" || triggeredBy == TriggeredBySystem || strings.HasPrefix(triggeredBy, "agent:") {
		return nil
	}
	return &triggeredBy
}
