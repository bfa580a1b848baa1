package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// OutboxRecord is one unpublished event waiting for relay.
type OutboxRecord struct {
	ID      string
	Topic   string
	PlanID  string
	Payload []byte
}

// OutboxSource feeds the relay. PostgresStore implements it; tests use a
// memory source.
type OutboxSource interface {
	NextBatch(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Producer publishes one event to the external stream. Implemented by
// KafkaProducer; tests record instead.
type Producer interface {
	Produce(ctx context.Context, rec OutboxRecord) error
}

// Relay drains the outbox into the event stream. Events are relayed at
// least once: a crash between produce and MarkPublished re-sends the
// batch, so consumers must dedupe on record ID.
type Relay struct {
	source    OutboxSource
	producer  Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(source OutboxSource, producer Producer, logger *slog.Logger) *Relay {
	return &Relay{
		source:    source,
		producer:  producer,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run relays until ctx is cancelled. Errors are logged and retried on the
// next tick; the relay never drops an unpublished record.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RelayOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

// RelayOnce drains at most one batch. Exported for tests and for a final
// drain during shutdown.
func (r *Relay) RelayOnce(ctx context.Context) error {
	batch, err := r.source.NextBatch(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	published := make([]string, 0, len(batch))
	for _, rec := range batch {
		if err := r.producer.Produce(ctx, rec); err != nil {
			// Keep ordering: stop at the first failure and mark only
			// the prefix that made it out.
			if markErr := r.source.MarkPublished(ctx, published, time.Now()); markErr != nil {
				return fmt.Errorf("mark published after produce failure: %w", markErr)
			}
			return fmt.Errorf("produce event %s: %w", rec.ID, err)
		}
		published = append(published, rec.ID)
	}
	return r.source.MarkPublished(ctx, published, time.Now())
}

// KafkaProducer publishes outbox records to a Kafka topic, keyed by plan
// ID so all events of one plan land in one partition, in order.
type KafkaProducer struct {
	client *kgo.Client
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaProducer{client: client, topic: topic}, nil
}

func (p *KafkaProducer) Produce(ctx context.Context, rec OutboxRecord) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(rec.PlanID),
		Value: rec.Payload,
		Headers: []kgo.RecordHeader{
			{Key: "outbox_id", Value: []byte(rec.ID)},
			{Key: "topic", Value: []byte(rec.Topic)},
		},
	}
	return p.client.ProduceSync(ctx, record).FirstErr()
}

func (p *KafkaProducer) Close() {
	p.client.Close()
}
