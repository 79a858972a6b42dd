package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

// memStore is an in-memory Store implementation for the tests in this
// package. WithProjectLock serializes callbacks on a single mutex, which
// approximates the row lock closely enough for the race scenarios here.
type memStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project
	reqs     map[uuid.UUID][]domain.Requirement
	history  map[uuid.UUID][]domain.StateHistoryEntry
	audits   map[uuid.UUID][]domain.AuditLogEntry
	events   map[uuid.UUID][]domain.DomainEvent
	dedup    map[string]*domain.DedupEntry
	gwByReq  map[uuid.UUID]*domain.GatewayAuditRecord
	gwByProj map[uuid.UUID][]domain.GatewayAuditRecord
	now      func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		projects: make(map[uuid.UUID]*domain.Project),
		reqs:     make(map[uuid.UUID][]domain.Requirement),
		history:  make(map[uuid.UUID][]domain.StateHistoryEntry),
		audits:   make(map[uuid.UUID][]domain.AuditLogEntry),
		events:   make(map[uuid.UUID][]domain.DomainEvent),
		dedup:    make(map[string]*domain.DedupEntry),
		gwByReq:  make(map[uuid.UUID]*domain.GatewayAuditRecord),
		gwByProj: make(map[uuid.UUID][]domain.GatewayAuditRecord),
		now:      now,
	}
}

func (m *memStore) addProject(status domain.ProjectState) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &domain.Project{
		ID:        uuid.New(),
		Name:      "test project",
		Status:    status,
		CreatedAt: m.now(),
		UpdatedAt: m.now(),
	}
	m.projects[p.ID] = p
	return p.ID
}

func (m *memStore) addRequirement(projectID uuid.UUID, coherent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs[projectID] = append(m.reqs[projectID], domain.Requirement{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Title:      "requirement",
		IsCoherent: coherent,
		CreatedAt:  m.now(),
	})
}

func (m *memStore) projectStatus(id uuid.UUID) domain.ProjectState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[id].Status
}

func dedupKeyOf(projectID uuid.UUID, agent domain.AgentType, hash string) string {
	return fmt.Sprintf("%s/%s/%s", projectID, agent, hash)
}

func (m *memStore) GetProject(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) WithProjectLock(_ context.Context, projectID uuid.UUID, fn func(tx ProjectTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	return fn(&memTx{store: m, project: p})
}

func (m *memStore) AppendAuditLog(_ context.Context, entry *domain.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[entry.ProjectID] = append(m.audits[entry.ProjectID], *entry)
	return nil
}

func (m *memStore) AppendExecutionRecord(_ context.Context, entry *domain.AuditLogEntry, event *domain.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[entry.ProjectID] = append(m.audits[entry.ProjectID], *entry)
	m.events[event.AggregateID] = append(m.events[event.AggregateID], *event)
	return nil
}

func (m *memStore) RecentAuditLogs(_ context.Context, projectID uuid.UUID, limit int) ([]domain.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.audits[projectID]
	out := make([]domain.AuditLogEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memStore) RecentStateHistory(_ context.Context, projectID uuid.UUID, limit int) ([]domain.StateHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.history[projectID]
	out := make([]domain.StateHistoryEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memStore) ListAuditLogs(_ context.Context, projectID uuid.UUID, offset, limit int, eventType *domain.EventType) ([]domain.AuditLogEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var filtered []domain.AuditLogEntry
	all := m.audits[projectID]
	for i := len(all) - 1; i >= 0; i-- {
		if eventType != nil && all[i].EventType != *eventType {
			continue
		}
		filtered = append(filtered, all[i])
	}
	total := len(filtered)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func (m *memStore) CreateDedupEntry(_ context.Context, entry *domain.DedupEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dedupKeyOf(entry.ProjectID, entry.AgentType, entry.InputHash)
	if existing, ok := m.dedup[key]; ok && !existing.Expired(m.now()) {
		return ErrDuplicate
	}
	cp := *entry
	m.dedup[key] = &cp
	return nil
}

func (m *memStore) ActiveDedupEntry(_ context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string) (*domain.DedupEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.dedup[dedupKeyOf(projectID, agent, inputHash)]
	if !ok || entry.Expired(m.now()) {
		return nil, ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (m *memStore) SetDedupResult(_ context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string, taskRef string, result map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.dedup[dedupKeyOf(projectID, agent, inputHash)]
	if !ok {
		return ErrNotFound
	}
	if taskRef != "" {
		entry.TaskRef = &taskRef
	}
	if result != nil {
		entry.Result = result
	}
	return nil
}

func (m *memStore) GatewayRecordByRequestID(_ context.Context, requestID uuid.UUID) (*domain.GatewayAuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.gwByReq[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) GatewayHistory(_ context.Context, projectID uuid.UUID) ([]domain.GatewayAuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.gwByProj[projectID]
	out := make([]domain.GatewayAuditRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// memTx operates on the store while the caller holds the store mutex.
type memTx struct {
	store   *memStore
	project *domain.Project
}

func (t *memTx) Project() *domain.Project {
	cp := *t.project
	return &cp
}

func (t *memTx) UpdateStatus(_ context.Context, to domain.ProjectState) error {
	t.project.Status = to
	t.project.UpdatedAt = t.store.now()
	return nil
}

func (t *memTx) HasRequirements(_ context.Context) (bool, error) {
	return len(t.store.reqs[t.project.ID]) > 0, nil
}

func (t *memTx) AllCoherent(_ context.Context) (bool, error) {
	for _, r := range t.store.reqs[t.project.ID] {
		if !r.IsCoherent {
			return false, nil
		}
	}
	return true, nil
}

func (t *memTx) InsertStateHistory(_ context.Context, entry *domain.StateHistoryEntry) error {
	t.store.history[entry.ProjectID] = append(t.store.history[entry.ProjectID], *entry)
	return nil
}

func (t *memTx) InsertAuditLog(_ context.Context, entry *domain.AuditLogEntry) error {
	t.store.audits[entry.ProjectID] = append(t.store.audits[entry.ProjectID], *entry)
	return nil
}

func (t *memTx) InsertDomainEvent(_ context.Context, event *domain.DomainEvent) error {
	t.store.events[event.AggregateID] = append(t.store.events[event.AggregateID], *event)
	return nil
}

func (t *memTx) InsertGatewayRecord(_ context.Context, rec *domain.GatewayAuditRecord) error {
	if _, ok := t.store.gwByReq[rec.RequestID]; ok {
		return ErrDuplicate
	}
	cp := *rec
	t.store.gwByReq[rec.RequestID] = &cp
	t.store.gwByProj[rec.ProjectID] = append(t.store.gwByProj[rec.ProjectID], cp)
	return nil
}
