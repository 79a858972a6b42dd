package domain

import (
	"time"

	"github.com/google/uuid"
)

// StateHistoryEntry — запись о принятом переходе состояния.
//
// Append-only: одна строка на каждый принятый переход, записи никогда
// не изменяются и не удаляются.
type StateHistoryEntry struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// FromState — состояние до перехода. Nil для самой первой записи.
	FromState *ProjectState `json:"from_state,omitempty"`

	// ToState — состояние после перехода.
	ToState ProjectState `json:"to_state"`

	// Reason — причина перехода.
	Reason string `json:"reason,omitempty"`

	// TriggeredBy — инициатор: user id, "agent:<type>" или "system".
	TriggeredBy string `json:"triggered_by,omitempty"`

	// Metadata — произвольные метаданные перехода.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogEntry — структурированная запись аудита.
//
// Append-only. Пишется для переходов состояний, завершений/падений
// агентов и попыток retry.
type AuditLogEntry struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// CorrelationID — идентификатор, связывающий записи одной логической операции.
	CorrelationID string `json:"correlation_id,omitempty"`

	// EventType — тип события.
	EventType EventType `json:"event_type"`

	// AgentType — агент, к которому относится запись (если применимо).
	AgentType *AgentType `json:"agent_type,omitempty"`

	// Action — человекочитаемое описание действия.
	Action string `json:"action"`

	// Details — структурированные детали события.
	Details map[string]any `json:"details,omitempty"`

	// UserID — пользователь-инициатор (если применимо).
	UserID *string `json:"user_id,omitempty"`

	// DurationMS — длительность операции в миллисекундах (если измерялась).
	DurationMS *float64 `json:"duration_ms,omitempty"`

	// Success — завершилась ли операция успешно.
	Success bool `json:"success"`

	// ErrorMessage — сообщение об ошибке при Success=false.
	ErrorMessage *string `json:"error_message,omitempty"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`
}

// DomainEvent — доменное событие для асинхронных потребителей.
//
// Append-only; единственное изменяемое поле — ProcessedAt, которое
// внешний потребитель выставляет ровно один раз.
type DomainEvent struct {
	// ID — уникальный идентификатор события.
	ID uuid.UUID `json:"id"`

	// AggregateID — идентификатор агрегата (обычно project id).
	AggregateID uuid.UUID `json:"aggregate_id"`

	// AggregateType — тип агрегата ("project").
	AggregateType string `json:"aggregate_type"`

	// EventName — имя события, например "state_changed_to_reqs_ready".
	EventName string `json:"event_name"`

	// EventVersion — версия схемы события.
	EventVersion int `json:"event_version"`

	// EventData — полезная нагрузка события.
	EventData map[string]any `json:"event_data"`

	// Metadata — произвольные метаданные.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`

	// ProcessedAt — время обработки внешним потребителем. Nil, пока не обработано.
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// DedupEntry — запись дедупликации запуска агента.
//
// Уникальна по (project_id, agent_type, input_hash), пока не истёк
// ExpiresAt. Просроченная запись логически отсутствует и не должна
// возвращаться выборками.
type DedupEntry struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// AgentType — агент, запуск которого дедуплицируется.
	AgentType AgentType `json:"agent_type"`

	// InputHash — канонический SHA-256 хэш входных данных запуска.
	InputHash string `json:"input_hash"`

	// TaskRef — ссылка на поставленную задачу (если известна).
	TaskRef *string `json:"task_ref,omitempty"`

	// Result — закэшированный результат выполнения (если завершилось).
	Result map[string]any `json:"result,omitempty"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt — время, после которого запись считается отсутствующей.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired возвращает true, если запись просрочена на момент now.
func (e *DedupEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// GatewayAuditRecord — запись о переходе через gateway.
//
// Уникальность RequestID — якорь идемпотентности: повторная вставка с тем
// же значением не создаёт вторую строку и не мутирует состояние проекта,
// а возвращает поля исходной записи.
type GatewayAuditRecord struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// CorrelationID — идентификатор логической операции.
	CorrelationID uuid.UUID `json:"correlation_id"`

	// RequestID — идемпотентный ключ запроса. Уникален.
	RequestID uuid.UUID `json:"request_id"`

	// Action — действие gateway, вызвавшее переход.
	Action GatewayAction `json:"action"`

	// FromState — состояние до перехода.
	FromState ProjectState `json:"from_state"`

	// ToState — состояние после перехода.
	ToState ProjectState `json:"to_state"`

	// UserID — пользователь-инициатор (если известен).
	UserID *string `json:"user_id,omitempty"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`
}
