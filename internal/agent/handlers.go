package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
	"github.com/shaiso/Conductor/internal/mq"
	"github.com/shaiso/Conductor/internal/orchestrator"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// handleDispatch обрабатывает сообщение agent.dispatch.
func (w *Worker) handleDispatch(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.AgentDispatchPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse agent.dispatch payload", "error", err)
		return err
	}

	agentType, ok := domain.ParseAgentType(payload.Agent)
	if !ok {
		// Permanently malformed, ack so it does not loop through the queue.
		w.logger.Error("unknown agent type in dispatch", "agent", payload.Agent, "task_id", payload.TaskID)
		return nil
	}

	if payload.CorrelationID != "" {
		ctx = telemetry.WithCorrelationID(ctx, payload.CorrelationID)
	}

	w.logger.Info("agent dispatch received",
		"task_id", payload.TaskID,
		"project_id", payload.ProjectID,
		"agent", agentType,
	)

	return w.runAgent(ctx, agentType, payload)
}

// runAgent выполняет один запуск агента: старт в журнале, вызов
// executor'а, запись результата и переход состояния.
func (w *Worker) runAgent(ctx context.Context, agentType domain.AgentType, payload mq.AgentDispatchPayload) error {
	correlationID := telemetry.CorrelationID(ctx)

	if err := w.core.RecordAgentStart(ctx, payload.ProjectID, agentType, correlationID, map[string]any{
		"task_id": payload.TaskID.String(),
	}); err != nil {
		return fmt.Errorf("record agent start: %w", err)
	}

	executor, err := w.registry.Get(agentType)
	if err != nil {
		return err
	}

	started := time.Now()
	result, execErr := executor.Execute(ctx, payload.ProjectID, payload.Metadata)
	durationMS := float64(time.Since(started)) / float64(time.Millisecond)

	if execErr != nil {
		telemetry.AgentExecutions.WithLabelValues(agentType.String(), "failed").Inc()

		if err := w.core.RecordAgentExecution(ctx, payload.ProjectID, agentType, correlationID, durationMS, false, execErr.Error(), nil); err != nil {
			w.logger.Error("record agent failure", "task_id", payload.TaskID, "error", err)
		}

		w.logger.Warn("agent execution failed",
			"task_id", payload.TaskID,
			"project_id", payload.ProjectID,
			"agent", agentType,
			"error", execErr,
		)
		return execErr
	}

	inputHash, err := fsm.ComputeInputHash(agentType, payload.Metadata)
	if err != nil {
		return fmt.Errorf("compute input hash: %w", err)
	}
	if err := w.core.StoreDedupResult(ctx, payload.ProjectID, agentType, inputHash, payload.TaskID.String(), result); err != nil {
		// Non-fatal: the result is in the audit trail either way.
		w.logger.Warn("store agent result", "task_id", payload.TaskID, "error", err)
	}

	if err := w.core.RecordAgentExecution(ctx, payload.ProjectID, agentType, correlationID, durationMS, true, "", result); err != nil {
		return fmt.Errorf("record agent completion: %w", err)
	}

	telemetry.AgentExecutions.WithLabelValues(agentType.String(), "completed").Inc()

	target := completionTargets[agentType]
	reason := fmt.Sprintf("Agent %s completed", agentType)
	err = w.core.TransitionState(ctx, payload.ProjectID, target, reason, "agent:"+agentType.String(), nil)
	if err != nil {
		// The project moved on while the agent ran (user decision, another
		// agent). The execution record stands, the transition does not.
		if errors.Is(err, orchestrator.ErrInvalidStateTransition) {
			w.logger.Warn("agent completion transition rejected",
				"task_id", payload.TaskID,
				"project_id", payload.ProjectID,
				"agent", agentType,
				"target", target,
			)
			return nil
		}
		return fmt.Errorf("transition after agent completion: %w", err)
	}

	w.logger.Info("agent execution completed",
		"task_id", payload.TaskID,
		"project_id", payload.ProjectID,
		"agent", agentType,
		"target", target,
		"duration_ms", durationMS,
	)
	return nil
}
