package orchestrator

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

// Ошибки контракта Store. Реализации обязаны возвращать именно их
// (возможно обёрнутыми), чтобы ядро не зависело от конкретной БД.
var (
	// ErrNotFound — запись отсутствует.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate — нарушение уникальности (запись уже существует).
	ErrDuplicate = errors.New("already exists")
)

// Store — доступ ядра к реляционному хранилищу.
//
// Все append-only записи (audit log, доменные события, state history,
// gateway audit) никогда не изменяются и не удаляются этим ядром.
type Store interface {
	// GetProject возвращает проект. ErrNotFound, если проекта нет.
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// WithProjectLock выполняет fn в транзакции, удерживая блокировку
	// строки проекта (SELECT ... FOR UPDATE) на всё время validate-then-write.
	// Ошибка fn откатывает транзакцию и возвращается как есть.
	WithProjectLock(ctx context.Context, projectID uuid.UUID, fn func(tx ProjectTx) error) error

	// AppendAuditLog добавляет одну запись аудита.
	AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error

	// AppendExecutionRecord атомарно добавляет запись аудита и доменное
	// событие о выполнении агента.
	AppendExecutionRecord(ctx context.Context, entry *domain.AuditLogEntry, event *domain.DomainEvent) error

	// RecentAuditLogs возвращает последние записи аудита, новые первыми.
	RecentAuditLogs(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.AuditLogEntry, error)

	// RecentStateHistory возвращает последние переходы, новые первыми.
	RecentStateHistory(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.StateHistoryEntry, error)

	// ListAuditLogs возвращает страницу аудита (новые первыми) и общее
	// число записей под фильтром. Для неизвестного проекта — пустая
	// страница и total=0, не ошибка.
	ListAuditLogs(ctx context.Context, projectID uuid.UUID, offset, limit int, eventType *domain.EventType) ([]domain.AuditLogEntry, int, error)

	// CreateDedupEntry добавляет dedup запись.
	// ErrDuplicate при конфликте (project_id, agent_type, input_hash).
	CreateDedupEntry(ctx context.Context, entry *domain.DedupEntry) error

	// ActiveDedupEntry возвращает непросроченную dedup запись.
	// ErrNotFound, если записи нет или она просрочена.
	ActiveDedupEntry(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string) (*domain.DedupEntry, error)

	// SetDedupResult записывает результат выполнения в dedup запись.
	SetDedupResult(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string, taskRef string, result map[string]any) error

	// GatewayRecordByRequestID возвращает gateway запись по request_id.
	// ErrNotFound, если запрос ещё не обрабатывался.
	GatewayRecordByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.GatewayAuditRecord, error)

	// GatewayHistory возвращает gateway записи проекта, новые первыми.
	GatewayHistory(ctx context.Context, projectID uuid.UUID) ([]domain.GatewayAuditRecord, error)
}

// ProjectTx — операции внутри транзакции с заблокированной строкой проекта.
type ProjectTx interface {
	// Project возвращает строку проекта, прочитанную под блокировкой.
	Project() *domain.Project

	// UpdateStatus изменяет статус проекта (и updated_at).
	UpdateStatus(ctx context.Context, to domain.ProjectState) error

	// HasRequirements проверяет наличие хотя бы одного требования.
	HasRequirements(ctx context.Context) (bool, error)

	// AllCoherent проверяет, что все требования когерентны.
	AllCoherent(ctx context.Context) (bool, error)

	// InsertStateHistory добавляет запись истории переходов.
	InsertStateHistory(ctx context.Context, entry *domain.StateHistoryEntry) error

	// InsertAuditLog добавляет запись аудита.
	InsertAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error

	// InsertDomainEvent добавляет доменное событие.
	InsertDomainEvent(ctx context.Context, event *domain.DomainEvent) error

	// InsertGatewayRecord добавляет gateway запись.
	// ErrDuplicate при конфликте уникальности request_id.
	InsertGatewayRecord(ctx context.Context, rec *domain.GatewayAuditRecord) error
}
