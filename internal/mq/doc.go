// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий об изменениях модели
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - model.changed — изменение модели закоммичено в ветку
//
// Exchanges:
//   - modelproxy.events — события API
//   - modelproxy.dlq    — dead letter queue
package mq
