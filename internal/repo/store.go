package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/orchestrator"
)

// Store — реализация хранилища оркестрационного ядра поверх Postgres.
// Собирает репозитории и добавляет транзакционные операции:
// WithProjectLock (SELECT ... FOR UPDATE) и атомарные парные записи.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time

	projects *ProjectRepo
	reqs     *RequirementRepo
	audits   *AuditLogRepo
	history  *StateHistoryRepo
	events   *DomainEventRepo
	dedup    *DedupRepo
	gateway  *GatewayRepo
}

// NewStore создаёт Store поверх пула соединений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		now:      time.Now,
		projects: NewProjectRepo(pool),
		reqs:     NewRequirementRepo(pool),
		audits:   NewAuditLogRepo(pool),
		history:  NewStateHistoryRepo(pool),
		events:   NewDomainEventRepo(pool),
		dedup:    NewDedupRepo(pool),
		gateway:  NewGatewayRepo(pool),
	}
}

// Projects возвращает репозиторий проектов (для API/CLI слоёв).
func (s *Store) Projects() *ProjectRepo { return s.projects }

// Requirements возвращает репозиторий требований.
func (s *Store) Requirements() *RequirementRepo { return s.reqs }

// Dedup возвращает репозиторий dedup записей (для janitor).
func (s *Store) Dedup() *DedupRepo { return s.dedup }

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return project, nil
}

func (s *Store) WithProjectLock(ctx context.Context, projectID uuid.UUID, fn func(tx orchestrator.ProjectTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	project, err := NewProjectRepo(tx).GetByIDForUpdate(ctx, projectID)
	if err != nil {
		return storeErr(err)
	}

	if err := fn(&projectTx{tx: tx, project: project, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	return storeErr(s.audits.Insert(ctx, entry))
}

func (s *Store) AppendExecutionRecord(ctx context.Context, entry *domain.AuditLogEntry, event *domain.DomainEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := NewAuditLogRepo(tx).Insert(ctx, entry); err != nil {
		return storeErr(err)
	}
	if err := NewDomainEventRepo(tx).Insert(ctx, event); err != nil {
		return storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) RecentAuditLogs(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.AuditLogEntry, error) {
	entries, err := s.audits.Recent(ctx, projectID, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return entries, nil
}

func (s *Store) RecentStateHistory(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.StateHistoryEntry, error) {
	entries, err := s.history.Recent(ctx, projectID, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return entries, nil
}

func (s *Store) ListAuditLogs(ctx context.Context, projectID uuid.UUID, offset, limit int, eventType *domain.EventType) ([]domain.AuditLogEntry, int, error) {
	entries, total, err := s.audits.List(ctx, projectID, offset, limit, eventType)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return entries, total, nil
}

func (s *Store) CreateDedupEntry(ctx context.Context, entry *domain.DedupEntry) error {
	return storeErr(s.dedup.Create(ctx, entry))
}

func (s *Store) ActiveDedupEntry(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string) (*domain.DedupEntry, error) {
	entry, err := s.dedup.GetActive(ctx, projectID, agent, inputHash, s.now().UTC())
	if err != nil {
		return nil, storeErr(err)
	}
	return entry, nil
}

func (s *Store) SetDedupResult(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string, taskRef string, result map[string]any) error {
	return storeErr(s.dedup.SetResult(ctx, projectID, agent, inputHash, taskRef, result))
}

func (s *Store) GatewayRecordByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.GatewayAuditRecord, error) {
	rec, err := s.gateway.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err)
	}
	return rec, nil
}

func (s *Store) GatewayHistory(ctx context.Context, projectID uuid.UUID) ([]domain.GatewayAuditRecord, error) {
	records, err := s.gateway.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}

// projectTx — операции над заблокированной строкой проекта.
type projectTx struct {
	tx      pgx.Tx
	project *domain.Project
	now     func() time.Time
}

func (t *projectTx) Project() *domain.Project {
	cp := *t.project
	return &cp
}

func (t *projectTx) UpdateStatus(ctx context.Context, to domain.ProjectState) error {
	return storeErr(NewProjectRepo(t.tx).UpdateStatus(ctx, t.project.ID, to, t.now().UTC()))
}

func (t *projectTx) HasRequirements(ctx context.Context) (bool, error) {
	return NewRequirementRepo(t.tx).HasAny(ctx, t.project.ID)
}

func (t *projectTx) AllCoherent(ctx context.Context) (bool, error) {
	return NewRequirementRepo(t.tx).AllCoherent(ctx, t.project.ID)
}

func (t *projectTx) InsertStateHistory(ctx context.Context, entry *domain.StateHistoryEntry) error {
	return storeErr(NewStateHistoryRepo(t.tx).Insert(ctx, entry))
}

func (t *projectTx) InsertAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	return storeErr(NewAuditLogRepo(t.tx).Insert(ctx, entry))
}

func (t *projectTx) InsertDomainEvent(ctx context.Context, event *domain.DomainEvent) error {
	return storeErr(NewDomainEventRepo(t.tx).Insert(ctx, event))
}

func (t *projectTx) InsertGatewayRecord(ctx context.Context, rec *domain.GatewayAuditRecord) error {
	return storeErr(NewGatewayRepo(t.tx).Insert(ctx, rec))
}

// storeErr переводит ошибки репозиториев в сигнальные ошибки контракта
// хранилища ядра.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return orchestrator.ErrNotFound
	case errors.Is(err, ErrAlreadyExists):
		return orchestrator.ErrDuplicate
	default:
		return err
	}
}
