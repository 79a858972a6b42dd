package lock

import (
	"context"
	"sync"
	"time"
)

// InMemoryLocker — Locker в памяти процесса.
//
// Используется в тестах и одноузловых запусках без Redis. Семантика
// совпадает с RedisLocker: set-if-absent с TTL, просроченный ключ
// считается отсутствующим.
type InMemoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now — источник времени, подменяется в тестах.
	now func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewInMemoryLocker создаёт InMemoryLocker.
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetNow подменяет источник времени. Только для тестов.
func (l *InMemoryLocker) SetNow(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// TryAcquire захватывает ключ, если он свободен или просрочен.
func (l *InMemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && e.expiresAt.After(now) {
		return false, nil
	}

	l.entries[key] = memoryEntry{value: "1", expiresAt: now.Add(ttl)}
	return true, nil
}

// Get возвращает значение непросроченного ключа.
func (l *InMemoryLocker) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !e.expiresAt.After(l.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Release удаляет ключ.
func (l *InMemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}
