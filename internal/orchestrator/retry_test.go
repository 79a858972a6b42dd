package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
)

func TestRetryQueued(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, map[string]any{"round": 1})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if res.Status != RetryStatusQueued {
		t.Errorf("status = %s, want %s", res.Status, RetryStatusQueued)
	}
	if res.TaskRef != "task-1" {
		t.Errorf("task ref = %s, want task-1", res.TaskRef)
	}
	if env.runner.callCount() != 1 {
		t.Errorf("runner calls = %d, want 1", env.runner.callCount())
	}

	audits := env.store.audits[projectID]
	if len(audits) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audits))
	}
	if audits[0].EventType != domain.EventRetryAttempted {
		t.Errorf("audit event type = %s, want %s", audits[0].EventType, domain.EventRetryAttempted)
	}
	if !audits[0].Success {
		t.Error("retry audit entry not marked successful")
	}
}

func TestRetryNotAllowed(t *testing.T) {
	env := newTestEnv()
	projectID := env.store.addProject(domain.StateReqsRefining)

	_, err := env.svc.Retry(context.Background(), projectID, domain.AgentPlan, false, nil)
	if !errors.Is(err, ErrRetryNotAllowed) {
		t.Fatalf("err = %v, want ErrRetryNotAllowed", err)
	}

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err %T does not carry StateError", err)
	}
	if stateErr.CurrentState != domain.StateReqsRefining {
		t.Errorf("StateError current state = %s", stateErr.CurrentState)
	}
	if env.runner.callCount() != 0 {
		t.Errorf("runner calls = %d, want 0", env.runner.callCount())
	}
}

func TestRetryForced(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateDone)

	_, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, nil)
	if !errors.Is(err, ErrRetryNotAllowed) {
		t.Fatalf("err = %v, want ErrRetryNotAllowed", err)
	}

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, true, nil)
	if err != nil {
		t.Fatalf("forced Retry: %v", err)
	}
	if res.Status != RetryStatusQueued {
		t.Errorf("status = %s, want %s", res.Status, RetryStatusQueued)
	}
	if env.runner.callCount() != 1 {
		t.Errorf("runner calls = %d, want 1", env.runner.callCount())
	}
}

func TestRetryForcedSkipsDedup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	metadata := map[string]any{"round": 1}

	if _, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, metadata); err != nil {
		t.Fatalf("first Retry: %v", err)
	}

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, true, metadata)
	if err != nil {
		t.Fatalf("forced Retry: %v", err)
	}
	if res.Status != RetryStatusQueued {
		t.Errorf("status = %s, want %s (forced run bypasses dedup)", res.Status, RetryStatusQueued)
	}
	if env.runner.callCount() != 2 {
		t.Errorf("runner calls = %d, want 2", env.runner.callCount())
	}
}

func TestRetryDuplicateInput(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	metadata := map[string]any{"round": 1}

	if _, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, metadata); err != nil {
		t.Fatalf("first Retry: %v", err)
	}

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, metadata)
	if err != nil {
		t.Fatalf("second Retry: %v", err)
	}
	if res.Status != RetryStatusDuplicate {
		t.Errorf("status = %s, want %s", res.Status, RetryStatusDuplicate)
	}
	if res.TaskRef != "task-1" {
		t.Errorf("task ref = %s, want the first dispatch's task-1", res.TaskRef)
	}
	if env.runner.callCount() != 1 {
		t.Errorf("runner calls = %d, want 1 (no second dispatch)", env.runner.callCount())
	}
}

func TestRetryCachedResult(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	metadata := map[string]any{"round": 1}

	first, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, metadata)
	if err != nil {
		t.Fatalf("first Retry: %v", err)
	}

	// The worker finished and stored its result.
	_, hash, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, metadata)
	if err != nil {
		t.Fatalf("CheckAndGetDedup: %v", err)
	}
	if err := env.svc.StoreDedupResult(ctx, projectID, domain.AgentRefine, hash, first.TaskRef, map[string]any{"summary": "done"}); err != nil {
		t.Fatalf("StoreDedupResult: %v", err)
	}

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, metadata)
	if err != nil {
		t.Fatalf("second Retry: %v", err)
	}
	if res.Status != RetryStatusCached {
		t.Errorf("status = %s, want %s", res.Status, RetryStatusCached)
	}
	if res.Result["summary"] != "done" {
		t.Errorf("result = %v, want cached summary", res.Result)
	}
	if env.runner.callCount() != 1 {
		t.Errorf("runner calls = %d, want 1", env.runner.callCount())
	}
}

func TestRetryUnresolvableAgent(t *testing.T) {
	env := newTestEnv()
	projectID := env.store.addProject(domain.StateReqsRefining)
	env.svc.runners = map[domain.AgentType]Runner{}

	_, err := env.svc.Retry(context.Background(), projectID, domain.AgentRefine, false, nil)
	if !errors.Is(err, ErrUnresolvableAgent) {
		t.Fatalf("err = %v, want ErrUnresolvableAgent", err)
	}
}

func TestRetryInvalidAgent(t *testing.T) {
	env := newTestEnv()
	projectID := env.store.addProject(domain.StateReqsRefining)

	_, err := env.svc.Retry(context.Background(), projectID, domain.AgentType("SHIP_IT"), false, nil)
	if !errors.Is(err, ErrUnresolvableAgent) {
		t.Fatalf("err = %v, want ErrUnresolvableAgent", err)
	}
}

func TestRetryDispatchFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	env.runner.err = errors.New("broker unavailable")

	_, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, nil)
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("err = %v, want ErrDispatchFailed", err)
	}

	// The attempt recorded before the dispatch stays, and the failure
	// lands as its own entry on top of it.
	audits := env.store.audits[projectID]
	if len(audits) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(audits))
	}
	if audits[0].EventType != domain.EventRetryAttempted || !audits[0].Success {
		t.Errorf("first entry = %s success=%t, want successful %s", audits[0].EventType, audits[0].Success, domain.EventRetryAttempted)
	}
	if audits[1].EventType != domain.EventRetryAttempted {
		t.Errorf("audit event type = %s, want %s", audits[1].EventType, domain.EventRetryAttempted)
	}
	if audits[1].Success {
		t.Error("failed dispatch recorded as successful")
	}
	if audits[1].ErrorMessage == nil || *audits[1].ErrorMessage != "broker unavailable" {
		t.Errorf("audit error message = %v", audits[1].ErrorMessage)
	}
}

// submitObserver counts the audit entries visible at the moment Submit
// runs, to pin the record-then-dispatch order.
type submitObserver struct {
	store *memStore
	seen  int
}

func (r *submitObserver) Submit(_ context.Context, projectID uuid.UUID, _ map[string]any) (string, error) {
	r.seen = len(r.store.audits[projectID])
	return "task-obs", nil
}

func TestRetryRecordsAttemptBeforeDispatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	obs := &submitObserver{store: env.store}
	env.svc.runners[domain.AgentRefine] = obs

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, nil)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if res.TaskRef != "task-obs" {
		t.Errorf("task ref = %s, want task-obs", res.TaskRef)
	}
	if obs.seen != 1 {
		t.Errorf("audit entries at dispatch time = %d, want 1", obs.seen)
	}
	if total := len(env.store.audits[projectID]); total != 1 {
		t.Errorf("audit entries after dispatch = %d, want 1", total)
	}
}

func TestRetryDuplicateDuringPersistWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	input := map[string]any{"round": 1}

	// Another process holds the dedup lock but has not persisted its
	// entry yet. Dispatching here would launch the same work twice.
	hash, err := fsm.ComputeInputHash(domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("ComputeInputHash: %v", err)
	}
	if _, err := env.locker.TryAcquire(ctx, dedupLockKey(projectID, domain.AgentRefine, hash), time.Minute); err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}

	res, err := env.svc.Retry(ctx, projectID, domain.AgentRefine, false, input)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if res.Status != RetryStatusDuplicate {
		t.Errorf("status = %s, want %s", res.Status, RetryStatusDuplicate)
	}
	if res.TaskRef != "" {
		t.Errorf("task ref = %s, want none during the persist window", res.TaskRef)
	}
	if env.runner.callCount() != 0 {
		t.Errorf("runner calls = %d, want 0", env.runner.callCount())
	}
}

func TestRetryProjectNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Retry(context.Background(), uuid.New(), domain.AgentRefine, false, nil)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}
