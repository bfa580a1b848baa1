package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"testament/pkg/domain"
)

// OutboxSchema creates the event outbox. Events land here in the same
// database as the plans and are relayed to Kafka by the outbox relay, so
// an event is never published for a mutation that did not commit.
const OutboxSchema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
	id           UUID PRIMARY KEY,
	topic        TEXT NOT NULL,
	action       TEXT NOT NULL,
	plan_id      UUID NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_outbox_unpublished_idx
	ON audit_outbox (created_at) WHERE published_at IS NULL;
`

// PostgresStore implements Store using the transactional outbox pattern.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the outbox schema. Dev wiring and integration
// tests only; production runs migrations out of band.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, OutboxSchema); err != nil {
		return fmt.Errorf("ensure outbox schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, topic, action, plan_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), string(event.Topic), event.Action, event.PlanID.String(), payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append event to outbox: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPlan(ctx context.Context, planID domain.PlanID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_outbox WHERE plan_id = $1 ORDER BY created_at
	`, planID.String())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal event payload: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// NextBatch returns up to limit unpublished outbox records, oldest first.
// SKIP LOCKED lets multiple relay instances drain the outbox without
// stepping on each other.
func (s *PostgresStore) NextBatch(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, plan_id, payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox batch: %w", err)
	}
	defer rows.Close()

	var batch []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.PlanID, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox record: %w", err)
		}
		batch = append(batch, rec)
	}
	return batch, rows.Err()
}

// MarkPublished stamps the given outbox records as relayed.
func (s *PostgresStore) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $2 WHERE id = ANY($1)
	`, pq.Array(ids), at)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
