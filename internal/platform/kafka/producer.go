// Package kafka publishes audit events to a Kafka topic for downstream
// consumers. The producer is an optional audit sink: the store write is the
// critical path, so produce failures are logged, never surfaced.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"vantage/internal/audit"
)

// Producer publishes audit events keyed by tenant so per-tenant ordering is
// preserved within a partition.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewProducer connects to the brokers and verifies reachability.
func NewProducer(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Producer{client: client, topic: topic, logger: logger}, nil
}

// Publish implements audit.Sink. Records are produced asynchronously; the
// delivery callback logs failures.
func (p *Producer) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.TenantID.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("failed to produce audit event",
				"topic", p.topic,
				"action", event.Action,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and closes the client.
func (p *Producer) Close(ctx context.Context) error {
	defer p.client.Close()
	return p.client.Flush(ctx)
}
