// Package mailer queues outgoing email on RabbitMQ for the mail relay to deliver.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"agenda/pkg/model"

	"github.com/rabbitmq/amqp091-go"
)

type Mailer interface {
	Enqueue(ctx context.Context, email model.Email) error
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type RabbitMailer struct {
	channel amqpChannel
	queue   string
}

// NewRabbitMailer opens a channel on conn and declares the durable queue.
func NewRabbitMailer(conn *amqp091.Connection, queue string) (*RabbitMailer, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return &RabbitMailer{
		channel: channel,
		queue:   queue,
	}, nil
}

func (m *RabbitMailer) Enqueue(ctx context.Context, email model.Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	message := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    email.EventID,
		Headers: amqp091.Table{
			"message_type": "JSON",
		},
	}

	if err := m.channel.PublishWithContext(ctx, "", m.queue, false, false, message); err != nil {
		return fmt.Errorf("failed to publish email: %w", err)
	}
	return nil
}

func (m *RabbitMailer) Close() error {
	return m.channel.Close()
}
