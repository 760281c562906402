package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-stock/internal/db"
)

// Event is a persisted domain event.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Store defines the persistence operations required by the event bus.
type Store interface {
	Insert(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (Event, error)
	ListByAggregate(ctx context.Context, aggregateID uuid.UUID, limit int) ([]Event, error)
}

// PGStore writes events to the domain_events table.
type PGStore struct {
	DB db.DBTX
}

func (s PGStore) Insert(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (Event, error) {
	var ev Event
	err := s.DB.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`, topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	return ev, nil
}

func (s PGStore) ListByAggregate(ctx context.Context, aggregateID uuid.UUID, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events
		WHERE aggregate_id = $1
		ORDER BY occurred_at, id
		LIMIT $2`, aggregateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list domain events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
