package events

import (
	"context"
	"fmt"

	"agenda/pkg/kafka"
	"agenda/pkg/middleware"
)

const SchemaVersion = "1"

// Publisher emits domain events. Callers treat failures as non-fatal: the
// write that triggered the event has already been committed.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type messageWriter interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messageWriter
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	msg, err := buildMessage(ctx, p.source, eventType, key, payload)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func buildMessage(ctx context.Context, source, eventType, key string, payload any) (kafka.Message, error) {
	b := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventID("").
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(source)
	if rid := middleware.RequestIDFromContext(ctx); rid != "" {
		b.WithCorrelationID(rid)
	}

	msg, err := b.Build()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("build %s event: %w", eventType, err)
	}
	return msg, nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
