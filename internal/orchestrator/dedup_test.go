package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
)

func TestCheckAndGetDedupNewInput(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	entry, hash, inFlight, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, map[string]any{"round": 1})
	if err != nil {
		t.Fatalf("CheckAndGetDedup: %v", err)
	}
	if entry != nil {
		t.Fatalf("entry = %+v, want nil for new input", entry)
	}
	if inFlight {
		t.Error("new input reported as in flight")
	}
	if hash == "" {
		t.Fatal("input hash is empty")
	}

	stored, err := env.store.ActiveDedupEntry(ctx, projectID, domain.AgentRefine, hash)
	if err != nil {
		t.Fatalf("dedup entry was not persisted: %v", err)
	}
	if stored.InputHash != hash {
		t.Errorf("stored hash = %s, want %s", stored.InputHash, hash)
	}
}

func TestCheckAndGetDedupDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	input := map[string]any{"round": 1}

	if _, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input); err != nil {
		t.Fatalf("first CheckAndGetDedup: %v", err)
	}

	entry, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("second CheckAndGetDedup: %v", err)
	}
	if entry == nil {
		t.Fatal("duplicate input not detected")
	}
	if entry.AgentType != domain.AgentRefine {
		t.Errorf("entry agent = %s, want %s", entry.AgentType, domain.AgentRefine)
	}
}

func TestCheckAndGetDedupDifferentInputs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)

	if _, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, map[string]any{"round": 1}); err != nil {
		t.Fatalf("first CheckAndGetDedup: %v", err)
	}

	entry, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, map[string]any{"round": 2})
	if err != nil {
		t.Fatalf("second CheckAndGetDedup: %v", err)
	}
	if entry != nil {
		t.Errorf("different input reported as duplicate: %+v", entry)
	}
}

func TestCheckAndGetDedupExpiredEntry(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	input := map[string]any{"round": 1}

	if _, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input); err != nil {
		t.Fatalf("first CheckAndGetDedup: %v", err)
	}

	// Past the entry TTL the same input counts as new work again.
	env.clock.Advance(2 * time.Hour)

	entry, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("CheckAndGetDedup after expiry: %v", err)
	}
	if entry != nil {
		t.Errorf("expired entry still reported as duplicate: %+v", entry)
	}
}

func TestCheckAndGetDedupTransientWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	input := map[string]any{"round": 1}

	// Another process holds the lock but has not persisted its entry yet.
	hash, err := fsm.ComputeInputHash(domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("ComputeInputHash: %v", err)
	}
	if _, err := env.locker.TryAcquire(ctx, dedupLockKey(projectID, domain.AgentRefine, hash), time.Minute); err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}

	entry, gotHash, inFlight, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("CheckAndGetDedup: %v", err)
	}
	// The entry is not visible yet, but the lock holder is about to
	// launch the same work: the window reads as a duplicate, not as new.
	if !inFlight {
		t.Error("transient window not reported as in flight")
	}
	if entry != nil {
		t.Errorf("entry = %+v, want nil during the persist window", entry)
	}
	if gotHash != hash {
		t.Errorf("hash = %s, want %s", gotHash, hash)
	}
}

func TestCheckAndGetDedupLockExpiredEntryAlive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	input := map[string]any{"round": 1}

	if _, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input); err != nil {
		t.Fatalf("first CheckAndGetDedup: %v", err)
	}

	// The short lock expires long before the entry does. A later caller
	// re-acquires the lock, loses the insert race against the live entry
	// and must still get the duplicate back.
	env.clock.Advance(time.Minute)

	entry, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("CheckAndGetDedup after lock expiry: %v", err)
	}
	if entry == nil {
		t.Fatal("live entry not returned after lock expiry")
	}
}

func TestStoreDedupResult(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	projectID := env.store.addProject(domain.StateReqsRefining)
	input := map[string]any{"round": 1}

	_, hash, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("CheckAndGetDedup: %v", err)
	}

	result := map[string]any{"summary": "ok"}
	if err := env.svc.StoreDedupResult(ctx, projectID, domain.AgentRefine, hash, "task-9", result); err != nil {
		t.Fatalf("StoreDedupResult: %v", err)
	}

	entry, _, _, err := env.svc.CheckAndGetDedup(ctx, projectID, domain.AgentRefine, input)
	if err != nil {
		t.Fatalf("CheckAndGetDedup after result: %v", err)
	}
	if entry == nil {
		t.Fatal("entry with result not returned as duplicate")
	}
	if entry.TaskRef == nil || *entry.TaskRef != "task-9" {
		t.Errorf("task ref = %v, want task-9", entry.TaskRef)
	}
	if entry.Result["summary"] != "ok" {
		t.Errorf("result = %v, want cached summary", entry.Result)
	}
}
