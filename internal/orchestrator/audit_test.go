package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

func TestRecordAgentExecution(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	err := env.svc.RecordAgentExecution(ctx, projectID, domain.AgentRefine, "corr-1", 1234.5, true, "", map[string]any{"rounds": 3})
	if err != nil {
		t.Fatalf("RecordAgentExecution: %v", err)
	}

	audits := env.store.audits[projectID]
	if len(audits) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audits))
	}
	entry := audits[0]
	if entry.EventType != domain.EventAgentCompleted {
		t.Errorf("event type = %s, want %s", entry.EventType, domain.EventAgentCompleted)
	}
	if entry.AgentType == nil || *entry.AgentType != domain.AgentRefine {
		t.Errorf("agent type = %v, want %s", entry.AgentType, domain.AgentRefine)
	}
	if entry.DurationMS == nil || *entry.DurationMS != 1234.5 {
		t.Errorf("duration = %v, want 1234.5", entry.DurationMS)
	}
	if entry.CorrelationID != "corr-1" {
		t.Errorf("correlation id = %q, want corr-1", entry.CorrelationID)
	}

	// The audit entry and the domain event land together.
	events := env.store.events[projectID]
	if len(events) != 1 {
		t.Fatalf("domain events = %d, want 1", len(events))
	}
	if events[0].EventName != "agent_refine_completed" {
		t.Errorf("event name = %q, want agent_refine_completed", events[0].EventName)
	}
}

func TestRecordAgentExecutionFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	err := env.svc.RecordAgentExecution(ctx, projectID, domain.AgentPlan, "corr-2", 50, false, "upstream timeout", nil)
	if err != nil {
		t.Fatalf("RecordAgentExecution: %v", err)
	}

	entry := env.store.audits[projectID][0]
	if entry.EventType != domain.EventAgentFailed {
		t.Errorf("event type = %s, want %s", entry.EventType, domain.EventAgentFailed)
	}
	if entry.Success {
		t.Error("failed execution recorded as successful")
	}
	if entry.ErrorMessage == nil || *entry.ErrorMessage != "upstream timeout" {
		t.Errorf("error message = %v, want upstream timeout", entry.ErrorMessage)
	}
	if env.store.events[projectID][0].EventName != "agent_plan_failed" {
		t.Errorf("event name = %q, want agent_plan_failed", env.store.events[projectID][0].EventName)
	}
}

func TestGetStatusLimits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateDraft)

	// DRAFT -> REQS_REFINING, then bounce REQS_REFINING <-> BLOCKED to
	// pile up history and audit entries.
	steps := []domain.ProjectState{domain.StateReqsRefining}
	for i := 0; i < 6; i++ {
		steps = append(steps, domain.StateBlocked, domain.StateReqsRefining)
	}
	for _, to := range steps {
		if err := env.svc.TransitionState(ctx, projectID, to, "bounce", TriggeredBySystem, nil); err != nil {
			t.Fatalf("TransitionState to %s: %v", to, err)
		}
	}

	status, err := env.svc.GetStatus(ctx, projectID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}

	if status.Project.ID != projectID {
		t.Errorf("project id = %s, want %s", status.Project.ID, projectID)
	}
	if status.Project.Status != domain.StateReqsRefining {
		t.Errorf("status = %s, want %s", status.Project.Status, domain.StateReqsRefining)
	}
	if len(status.RecentEvents) != 10 {
		t.Errorf("recent events = %d, want capped at 10", len(status.RecentEvents))
	}
	if len(status.RecentHistory) != 5 {
		t.Errorf("recent history = %d, want capped at 5", len(status.RecentHistory))
	}

	// Most recent first: the last transition was to REQS_REFINING.
	if status.RecentHistory[0].ToState != domain.StateReqsRefining {
		t.Errorf("newest history to_state = %s, want %s", status.RecentHistory[0].ToState, domain.StateReqsRefining)
	}
	if status.RecentHistory[1].ToState != domain.StateBlocked {
		t.Errorf("second newest history to_state = %s, want %s", status.RecentHistory[1].ToState, domain.StateBlocked)
	}
}

func TestGetStatusProjectNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.GetStatus(context.Background(), uuid.New())
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestGetAuditLogsPagination(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	for i := 0; i < 7; i++ {
		if err := env.svc.RecordAgentStart(ctx, projectID, domain.AgentRefine, fmt.Sprintf("corr-%d", i), nil); err != nil {
			t.Fatalf("RecordAgentStart: %v", err)
		}
	}

	page, err := env.svc.GetAuditLogs(ctx, projectID, 1, 3, nil)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if page.Total != 7 {
		t.Errorf("total = %d, want 7", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", page.TotalPages)
	}
	if len(page.Items) != 3 {
		t.Errorf("page items = %d, want 3", len(page.Items))
	}
	// Most recent first.
	if page.Items[0].CorrelationID != "corr-6" {
		t.Errorf("first item correlation = %q, want corr-6", page.Items[0].CorrelationID)
	}

	last, err := env.svc.GetAuditLogs(ctx, projectID, 3, 3, nil)
	if err != nil {
		t.Fatalf("GetAuditLogs last page: %v", err)
	}
	if len(last.Items) != 1 {
		t.Errorf("last page items = %d, want 1", len(last.Items))
	}

	beyond, err := env.svc.GetAuditLogs(ctx, projectID, 9, 3, nil)
	if err != nil {
		t.Fatalf("GetAuditLogs beyond journal: %v", err)
	}
	if len(beyond.Items) != 0 {
		t.Errorf("beyond-journal items = %d, want 0", len(beyond.Items))
	}
	if beyond.Total != 7 {
		t.Errorf("beyond-journal total = %d, want 7", beyond.Total)
	}
}

func TestGetAuditLogsEventTypeFilter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateDraft)

	if err := env.svc.TransitionState(ctx, projectID, domain.StateReqsRefining, "start", TriggeredBySystem, nil); err != nil {
		t.Fatalf("TransitionState: %v", err)
	}
	if err := env.svc.RecordAgentStart(ctx, projectID, domain.AgentRefine, "corr-1", nil); err != nil {
		t.Fatalf("RecordAgentStart: %v", err)
	}

	filter := domain.EventAgentStarted
	page, err := env.svc.GetAuditLogs(ctx, projectID, 1, 10, &filter)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("filtered total = %d, want 1", page.Total)
	}
	if len(page.Items) != 1 || page.Items[0].EventType != domain.EventAgentStarted {
		t.Errorf("filtered items = %+v, want one AGENT_STARTED entry", page.Items)
	}
}

func TestGetAuditLogsUnknownProject(t *testing.T) {
	env := newTestEnv()

	page, err := env.svc.GetAuditLogs(context.Background(), uuid.New(), 1, 20, nil)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("total = %d, want 0", page.Total)
	}
	if len(page.Items) != 0 {
		t.Errorf("items = %d, want 0", len(page.Items))
	}
	if page.TotalPages != 0 {
		t.Errorf("total pages = %d, want 0", page.TotalPages)
	}
}
