package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// dedupLockKey строит ключ короткоживущей блокировки проверки дублей.
func dedupLockKey(projectID uuid.UUID, agent domain.AgentType, inputHash string) string {
	return fmt.Sprintf("dedup_lock:%s:%s:%s", projectID, agent, inputHash)
}

// CheckAndGetDedup проверяет, выполнялся ли уже запуск агента с таким
// входом. Возвращает существующую активную запись дедупликации, если
// работа уже идёт или завершена, либо nil, если вход новый и вызывающий
// должен ставить задачу.
//
// Блокировка закрывает окно гонки между конкурентными проверками:
// победитель создаёт запись и получает nil, проигравший находит её и
// получает дубль. Если блокировку взять не удалось, а запись ещё не
// видна (держатель не успел её сохранить), inFlight=true: вход — дубль,
// запускать нельзя, записи пока нет. Блокировка намеренно не снимается
// и истекает сама по TTL.
func (s *Service) CheckAndGetDedup(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, input map[string]any) (entry *domain.DedupEntry, inputHash string, inFlight bool, err error) {
	inputHash, err = fsm.ComputeInputHash(agent, input)
	if err != nil {
		return nil, "", false, fmt.Errorf("compute input hash: %w", err)
	}

	acquired, err := s.locker.TryAcquire(ctx, dedupLockKey(projectID, agent, inputHash), s.lockTTL)
	if err != nil {
		return nil, "", false, fmt.Errorf("acquire dedup lock: %w", err)
	}

	if !acquired {
		entry, err := s.store.ActiveDedupEntry(ctx, projectID, agent, inputHash)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Lock holder has not persisted the entry yet. Still a
				// duplicate: launching here would double-dispatch.
				telemetry.DedupChecks.WithLabelValues(agent.String(), "duplicate").Inc()
				s.logger.Info("duplicate agent input in flight",
					"project_id", projectID,
					"agent", agent,
					"input_hash", inputHash,
				)
				return nil, inputHash, true, nil
			}
			return nil, "", false, fmt.Errorf("lookup dedup entry: %w", err)
		}
		telemetry.DedupChecks.WithLabelValues(agent.String(), "duplicate").Inc()
		s.logger.Info("duplicate agent input detected",
			"project_id", projectID,
			"agent", agent,
			"input_hash", inputHash,
		)
		return entry, inputHash, false, nil
	}

	now := s.now().UTC()
	err = s.store.CreateDedupEntry(ctx, &domain.DedupEntry{
		ID:        uuid.New(),
		ProjectID: projectID,
		AgentType: agent,
		InputHash: inputHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.dedupTTL),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost the race on the unique key despite holding the lock
			// (a previous holder's entry is still active). Re-read and
			// report the duplicate instead of failing.
			entry, lookupErr := s.store.ActiveDedupEntry(ctx, projectID, agent, inputHash)
			if lookupErr != nil {
				if errors.Is(lookupErr, ErrNotFound) {
					// The conflicting entry expired between the insert
					// and the re-read. New work after all.
					telemetry.DedupChecks.WithLabelValues(agent.String(), "new").Inc()
					return nil, inputHash, false, nil
				}
				return nil, "", false, fmt.Errorf("re-read dedup entry: %w", lookupErr)
			}
			telemetry.DedupChecks.WithLabelValues(agent.String(), "duplicate").Inc()
			return entry, inputHash, false, nil
		}
		return nil, "", false, fmt.Errorf("create dedup entry: %w", err)
	}

	telemetry.DedupChecks.WithLabelValues(agent.String(), "new").Inc()
	return nil, inputHash, false, nil
}

// StoreDedupResult дописывает ссылку на задачу и результат выполнения
// в запись дедупликации, чтобы повторная проверка того же входа могла
// вернуть готовый ответ.
func (s *Service) StoreDedupResult(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash, taskRef string, result map[string]any) error {
	if err := s.store.SetDedupResult(ctx, projectID, agent, inputHash, taskRef, result); err != nil {
		return fmt.Errorf("store dedup result: %w", err)
	}
	return nil
}
