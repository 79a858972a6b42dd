package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// defaultSchedule — каждые 10 минут.
const defaultSchedule = "*/10 * * * *"

// Pruner — удаление просроченных dedup записей.
// Реализуется repo.DedupRepo.
type Pruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Janitor периодически чистит просроченные dedup записи по cron-расписанию.
type Janitor struct {
	pruner   Pruner
	schedule string
	logger   *slog.Logger
	now      func() time.Time

	cron *cron.Cron
}

// Config — конфигурация Janitor.
type Config struct {
	// Pruner — хранилище dedup записей.
	Pruner Pruner

	// Schedule — cron-выражение (default: из JANITOR_SCHEDULE или каждые 10 минут).
	Schedule string

	// Logger — логгер.
	Logger *slog.Logger

	// Now — источник времени (default: time.Now). Подменяется в тестах.
	Now func() time.Time
}

// New создаёт новый Janitor.
func New(cfg Config) *Janitor {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = os.Getenv("JANITOR_SCHEDULE")
	}
	if schedule == "" {
		schedule = defaultSchedule
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Janitor{
		pruner:   cfg.Pruner,
		schedule: schedule,
		logger:   logger,
		now:      now,
	}
}

// Start запускает расписание. Первый проход выполняется сразу,
// чтобы подхватить записи, просроченные пока janitor был выключен.
func (j *Janitor) Start(ctx context.Context) error {
	j.cron = cron.New()

	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.Prune(ctx); err != nil {
			j.logger.Error("prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", j.schedule, err)
	}

	if err := j.Prune(ctx); err != nil {
		j.logger.Error("initial prune failed", "error", err)
	}

	j.cron.Start()
	j.logger.Info("janitor started", "schedule", j.schedule)
	return nil
}

// Stop останавливает расписание и дожидается текущего прохода.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
	j.logger.Info("janitor stopped")
}

// Prune выполняет один проход очистки.
func (j *Janitor) Prune(ctx context.Context) error {
	pruned, err := j.pruner.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("delete expired dedup entries: %w", err)
	}

	if pruned > 0 {
		telemetry.DedupEntriesPruned.Add(float64(pruned))
		j.logger.Info("pruned expired dedup entries", "count", pruned)
	}
	return nil
}
