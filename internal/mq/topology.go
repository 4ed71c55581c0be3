package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents Exchange = "modelproxy.events"
	ExchangeDLQ    Exchange = "modelproxy.dlq"
)

// Queues — имена очередей.
const (
	QueueChangesAudit Queue = "changes.audit"
	QueueDLQChanges   Queue = "dlq.changes"
)

// Routing keys.
const (
	RoutingKeyModelChanged RoutingKey = "model.changed"
	RoutingKeyDLQChanges   RoutingKey = "changes"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// topology — полное описание объектов RabbitMQ, которые использует сервис.
var topology = struct {
	exchanges []exchangeDecl
	queues    []queueDecl
	bindings  []bindingDecl
}{
	exchanges: []exchangeDecl{
		{ExchangeEvents, amqp.ExchangeDirect},
		{ExchangeDLQ, amqp.ExchangeDirect},
	},
	queues: []queueDecl{
		// changes.audit — отклонённые auditor'ом события уходят в DLQ.
		{QueueChangesAudit, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQChanges),
		}},
		{QueueDLQChanges, nil},
	},
	bindings: []bindingDecl{
		{QueueChangesAudit, RoutingKeyModelChanged, ExchangeEvents},
		{QueueDLQChanges, RoutingKeyDLQChanges, ExchangeDLQ},
	},
}

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range topology.exchanges {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range topology.queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range topology.bindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  modelproxy RabbitMQ topology:

    modelproxy.events (direct)
    └── changes.audit [routing: model.changed]
            Consumer: modelproxy-auditor
            DLQ: dlq.changes

    modelproxy.dlq (direct)
    └── dlq.changes [routing: changes]
            Manual processing
  `
}
