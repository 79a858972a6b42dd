package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/lock"
)

// Default configuration values.
const (
	// defaultLockTTL — TTL advisory блокировки дедупликации.
	//
	// Намеренно короче и независим от TTL dedup записи: единственная
	// работа блокировки — закрыть узкое окно между её захватом и
	// persistence dedup записи первым вызывающим. Дальше дубликаты
	// подавляет сама dedup запись.
	defaultLockTTL = 30 * time.Second

	// defaultDedupTTL — TTL dedup записи.
	defaultDedupTTL = time.Hour
)

// Runner — узкий интерфейс диспетчеризации работы агента.
//
// Само выполнение агента живёт за пределами ядра (worker/queue);
// ядро только фиксирует факт диспетчеризации и получает ссылку на задачу.
type Runner interface {
	// Submit ставит работу агента в очередь и возвращает task reference.
	Submit(ctx context.Context, projectID uuid.UUID, metadata map[string]any) (string, error)
}

// Service — оркестрационное ядро.
type Service struct {
	store   Store
	locker  lock.Locker
	runners map[domain.AgentType]Runner

	lockTTL  time.Duration
	dedupTTL time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// Config — конфигурация Service.
type Config struct {
	// Store — реляционное хранилище.
	Store Store

	// Locker — advisory блокировки для дедупликации.
	Locker lock.Locker

	// Runners — диспетчеры по типам агентов.
	Runners map[domain.AgentType]Runner

	// LockTTL — TTL advisory блокировки (default: 30s).
	LockTTL time.Duration

	// DedupTTL — TTL dedup записи (default: 1h).
	DedupTTL time.Duration

	// Logger — логгер.
	Logger *slog.Logger

	// Now — источник времени (default: time.Now). Подменяется в тестах.
	Now func() time.Time
}

// New создаёт оркестрационное ядро.
func New(cfg Config) *Service {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	dedupTTL := cfg.DedupTTL
	if dedupTTL <= 0 {
		dedupTTL = defaultDedupTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	runners := cfg.Runners
	if runners == nil {
		runners = make(map[domain.AgentType]Runner)
	}

	return &Service{
		store:    cfg.Store,
		locker:   cfg.Locker,
		runners:  runners,
		lockTTL:  lockTTL,
		dedupTTL: dedupTTL,
		logger:   logger,
		now:      now,
	}
}
