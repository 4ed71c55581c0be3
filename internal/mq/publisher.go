package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeModelChanged MessageType = "model.changed"
)

// Message — конверт сообщения.
type Message struct {
	// ID — идентификатор сообщения; для model.changed совпадает с ID события.
	ID string `json:"id"`

	Type MessageType `json:"type"`

	Payload json.RawMessage `json:"payload"`

	Timestamp time.Time `json:"timestamp"`
}

// NewMessage упаковывает payload в конверт.
func NewMessage(id string, msgType MessageType, payload any, at time.Time) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{ID: id, Type: msgType, Payload: body, Timestamp: at.UTC()}, nil
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,              // mandatory
			false,              // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishModelChanged публикует событие о закоммиченном изменении модели.
// Потребитель: auditor.
func (p *Publisher) PublishModelChanged(ctx context.Context, event domain.ChangeEvent) error {
	msg, err := NewMessage(event.ID.String(), MessageTypeModelChanged, event, event.CommittedAt)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeEvents, RoutingKeyModelChanged, msg)
}
