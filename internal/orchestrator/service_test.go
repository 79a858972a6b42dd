package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/lock"
)

// testClock is a manually advanced time source shared by the service,
// the store and the locker in a test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeRunner struct {
	mu      sync.Mutex
	taskRef string
	err     error
	calls   int
}

func (r *fakeRunner) Submit(_ context.Context, _ uuid.UUID, _ map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.taskRef, nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type testEnv struct {
	svc    *Service
	store  *memStore
	locker *lock.InMemoryLocker
	clock  *testClock
	runner *fakeRunner
}

func newTestEnv() *testEnv {
	clock := newTestClock()
	store := newMemStore(clock.Now)
	locker := lock.NewInMemoryLocker()
	locker.SetNow(clock.Now)
	runner := &fakeRunner{taskRef: "task-1"}

	runners := make(map[domain.AgentType]Runner)
	for _, agent := range []domain.AgentType{
		domain.AgentRequirements,
		domain.AgentRefine,
		domain.AgentPlan,
		domain.AgentPrompts,
		domain.AgentValidation,
	} {
		runners[agent] = runner
	}

	svc := New(Config{
		Store:   store,
		Locker:  locker,
		Runners: runners,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     clock.Now,
	})

	return &testEnv{svc: svc, store: store, locker: locker, clock: clock, runner: runner}
}
