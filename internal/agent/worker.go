package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/mq"
)

const defaultPrefetch = 5

// Core — операции оркестрационного ядра, нужные воркеру.
// Реализуется orchestrator.Service.
type Core interface {
	RecordAgentStart(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, correlationID string, details map[string]any) error
	RecordAgentExecution(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, correlationID string, durationMS float64, success bool, errMessage string, details map[string]any) error
	StoreDedupResult(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash, taskRef string, result map[string]any) error
	TransitionState(ctx context.Context, projectID uuid.UUID, to domain.ProjectState, reason, triggeredBy string, metadata map[string]any) error
}

// completionTargets — состояние, в которое проект переходит после
// успешного завершения агента.
var completionTargets = map[domain.AgentType]domain.ProjectState{
	domain.AgentRequirements: domain.StateReqsRefining,
	domain.AgentRefine:       domain.StateReqsReady,
	domain.AgentPlan:         domain.StatePlanReady,
	domain.AgentPrompts:      domain.StatePromptsReady,
	domain.AgentValidation:   domain.StateCodeValidated,
}

// Worker потребляет agents.dispatch и выполняет запуски агентов.
//
// Worker — stateless компонент: несколько экземпляров могут потреблять
// из одной очереди. Вся координация (dedup, статусы) живёт в ядре.
type Worker struct {
	core     Core
	registry *Registry

	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Core — оркестрационное ядро.
	Core Core

	// Registry — реестр executor'ов (опционально; если nil — NewRegistry()).
	Registry *Registry

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Prefetch — количество сообщений для предварительной загрузки.
	Prefetch int

	// Logger — логгер.
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		core:     cfg.Core,
		registry: registry,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает Worker.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueAgentsDispatch),
		Handler:  w.handleDispatch,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("dispatch consumer error", "error", err)
		}
	}()

	w.logger.Info("agent worker started", "prefetch", w.prefetch)
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping agent worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}
	w.wg.Wait()

	w.logger.Info("agent worker stopped")
}
