package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/Conductor/internal/domain"
)

// DomainEventRepo — репозиторий для работы с domain_events.
type DomainEventRepo struct {
	db DB
}

// NewDomainEventRepo создаёт новый DomainEventRepo.
func NewDomainEventRepo(db DB) *DomainEventRepo {
	return &DomainEventRepo{db: db}
}

// Insert добавляет доменное событие.
func (r *DomainEventRepo) Insert(ctx context.Context, event *domain.DomainEvent) error {
	dataJSON, err := json.Marshal(event.EventData)
	if err != nil {
		return fmt.Errorf("marshal event_data: %w", err)
	}
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO domain_events (id, aggregate_id, aggregate_type, event_name,
		                           event_version, event_data, metadata, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventName,
		event.EventVersion,
		dataJSON,
		metadataJSON,
		event.CreatedAt,
		event.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}
