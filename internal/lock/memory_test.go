package lock

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryLocker_AcquireConflict(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	ok, err := l.TryAcquire(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	ok, err = l.TryAcquire(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("second acquire of held key should fail")
	}

	// A different key is independent.
	ok, _ = l.TryAcquire(ctx, "other", time.Minute)
	if !ok {
		t.Error("acquire of a different key should succeed")
	}
}

func TestInMemoryLocker_TTLExpiry(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.SetNow(func() time.Time { return now })

	if ok, _ := l.TryAcquire(ctx, "k", 30*time.Second); !ok {
		t.Fatal("first acquire should succeed")
	}

	now = now.Add(29 * time.Second)
	if ok, _ := l.TryAcquire(ctx, "k", 30*time.Second); ok {
		t.Error("acquire before TTL expiry should fail")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := l.TryAcquire(ctx, "k", 30*time.Second); !ok {
		t.Error("acquire after TTL expiry should succeed")
	}
}

func TestInMemoryLocker_GetAndRelease(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	if _, found, _ := l.Get(ctx, "k"); found {
		t.Error("key should be absent before acquire")
	}

	l.TryAcquire(ctx, "k", time.Minute)

	val, found, err := l.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || val != "1" {
		t.Errorf("expected value %q, got %q (found=%v)", "1", val, found)
	}

	if err := l.Release(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, found, _ := l.Get(ctx, "k"); found {
		t.Error("key should be absent after release")
	}

	if ok, _ := l.TryAcquire(ctx, "k", time.Minute); !ok {
		t.Error("acquire after release should succeed")
	}
}

func TestInMemoryLocker_GetExpired(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.SetNow(func() time.Time { return now })

	l.TryAcquire(ctx, "k", 10*time.Second)
	now = now.Add(11 * time.Second)

	if _, found, _ := l.Get(ctx, "k"); found {
		t.Error("expired key should be reported as absent")
	}
}
