package lock

import (
	"context"
	"time"
)

// Locker — минимальный интерфейс advisory блокировки с TTL.
type Locker interface {
	// TryAcquire атомарно захватывает ключ на время ttl.
	// Возвращает true, если ключ был свободен и захвачен этим вызовом.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Get возвращает значение ключа и признак его существования.
	Get(ctx context.Context, key string) (string, bool, error)

	// Release снимает блокировку до истечения TTL.
	Release(ctx context.Context, key string) error
}
