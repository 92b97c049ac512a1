package events

import (
	"context"
	"errors"
	"testing"

	"agenda/pkg/kafka"
	"agenda/pkg/middleware"
	"agenda/pkg/model"
)

type mockWriter struct {
	published []kafka.Message
	err       error
}

func (m *mockWriter) Publish(_ context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{producer: w, source: "slots"}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	payload := model.SlotCreated{SlotID: "s1", Date: "2025-01-06", Time: "14:00", Category: "entrenamiento"}
	if err := p.Publish(ctx, model.EventSlotCreated, "s1", payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(w.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(w.published))
	}
	msg := w.published[0]
	if msg.Key != "s1" {
		t.Errorf("key = %q, want s1", msg.Key)
	}
	if got := msg.GetEventType(); got != model.EventSlotCreated {
		t.Errorf("event type = %q", got)
	}
	if msg.GetEventID() == "" {
		t.Error("event id should be generated")
	}
	if got, _ := msg.GetHeader(kafka.HeaderSource); got != "slots" {
		t.Errorf("source = %q, want slots", got)
	}
	if got := msg.GetCorrelationID(); got != "req-1" {
		t.Errorf("correlation id = %q, want req-1", got)
	}

	var decoded model.SlotCreated
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if decoded != payload {
		t.Errorf("payload = %+v, want %+v", decoded, payload)
	}
}

func TestKafkaPublisher_PropagatesErrors(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{producer: w, source: "schedules"}

	if err := p.Publish(context.Background(), model.EventScheduleCreated, "x", model.ScheduleCreated{}); err == nil {
		t.Error("expected error from producer")
	}
	if err := p.Publish(context.Background(), model.EventScheduleCreated, "x", func() {}); err == nil {
		t.Error("expected encode error")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), "any", "k", nil); err != nil {
		t.Errorf("NopPublisher returned %v", err)
	}
}
