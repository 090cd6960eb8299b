package audit

import (
	"context"
	"time"
)

// Sink receives published events after they are persisted. The Kafka
// producer in internal/platform/kafka implements this; sinks are best-effort
// and must not block publishing.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses a
// Store for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
	sink  Sink
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSink forwards persisted events to an external sink (e.g. Kafka).
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists an event, deriving its category from the action when unset.
// The store write is the critical path; sink failures are swallowed so a
// slow broker cannot fail a human-gated administrative action.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		_ = p.sink.Publish(ctx, event)
	}
	return nil
}

// List returns a tenant's events in insertion order.
func (p *Publisher) List(ctx context.Context, tenantID string) ([]Event, error) {
	return p.store.ListByTenant(ctx, tenantID)
}
