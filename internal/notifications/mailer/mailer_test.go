package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"agenda/pkg/model"

	"github.com/rabbitmq/amqp091-go"
)

type mockChannel struct {
	published []amqp091.Publishing
	keys      []string
	err       error
	closed    bool
}

func (m *mockChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if m.err != nil {
		return m.err
	}
	if exchange != "" {
		return errors.New("unexpected exchange " + exchange)
	}
	m.keys = append(m.keys, key)
	m.published = append(m.published, msg)
	return nil
}

func (m *mockChannel) Close() error {
	m.closed = true
	return nil
}

func TestEnqueue_PublishesPersistentJSON(t *testing.T) {
	ch := &mockChannel{}
	m := &RabbitMailer{channel: ch, queue: "agenda.emails"}

	email := model.Email{To: []string{"ana@example.com"}, Subject: "Enrollment confirmed", Body: "See you", EventID: "evt-1"}
	if err := m.Enqueue(context.Background(), email); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if len(ch.published) != 1 || ch.keys[0] != "agenda.emails" {
		t.Fatalf("published to %v", ch.keys)
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp091.Persistent || msg.ContentType != "application/json" || msg.MessageId != "evt-1" {
		t.Errorf("publishing = %+v", msg)
	}
	var got model.Email
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("body: %v", err)
	}
	if got.To[0] != "ana@example.com" || got.Subject != "Enrollment confirmed" {
		t.Errorf("email = %+v", got)
	}
}

func TestEnqueue_PropagatesPublishError(t *testing.T) {
	m := &RabbitMailer{channel: &mockChannel{err: amqp091.ErrClosed}, queue: "q"}
	if err := m.Enqueue(context.Background(), model.Email{}); !errors.Is(err, amqp091.ErrClosed) {
		t.Errorf("error = %v, want wrapped ErrClosed", err)
	}
}

func TestClose(t *testing.T) {
	ch := &mockChannel{}
	m := &RabbitMailer{channel: ch, queue: "q"}
	if err := m.Close(); err != nil || !ch.closed {
		t.Errorf("Close() = %v, closed = %v", err, ch.closed)
	}
}
