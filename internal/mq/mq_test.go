package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// fakeAcknowledger записывает решение consumer'а по сообщению.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acked = true; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func newTestConsumer(h Handler) *Consumer {
	return NewConsumer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), ConsumerConfig{
		Queue:   QueueChangesAudit,
		Handler: h,
	})
}

func changeEvent() domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:          uuid.New(),
		SessionID:   uuid.New(),
		AppID:       "sales-app",
		Branch:      "main",
		Revision:    "r7",
		Op:          domain.ChangeOpCreate,
		Kind:        domain.KindEntity,
		Module:      "Sales",
		Name:        "Shipment",
		UnitID:      "e-1",
		CommittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func delivery(t *testing.T, ack *fakeAcknowledger, body []byte, redelivered bool) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered, DeliveryTag: 1}
}

func TestMessageRoundTrip(t *testing.T) {
	event := changeEvent()

	msg, err := NewMessage(event.ID.String(), MessageTypeModelChanged, event, event.CommittedAt)
	require.NoError(t, err)

	got, err := ParsePayload[domain.ChangeEvent](msg)
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestParsePayload_Invalid(t *testing.T) {
	_, err := ParsePayload[domain.ChangeEvent](&Message{Type: MessageTypeModelChanged, Payload: []byte(`"nope"`)})
	assert.Error(t, err)
}

func TestConsumerSettle(t *testing.T) {
	event := changeEvent()
	msg, err := NewMessage(event.ID.String(), MessageTypeModelChanged, event, event.CommittedAt)
	require.NoError(t, err)
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantHandled bool
	}{
		{name: "success", body: body, wantAck: true, wantHandled: true},
		{name: "transient failure requeues", body: body, handlerErr: errors.New("db down"), wantRequeue: true, wantHandled: true},
		{name: "second failure goes to DLQ", body: body, redelivered: true, handlerErr: errors.New("db down"), wantHandled: true},
		{name: "permanent failure goes to DLQ", body: body, handlerErr: Permanent(errors.New("bad event")), wantHandled: true},
		{name: "malformed body goes to DLQ", body: []byte("{")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Delivery
			c := newTestConsumer(func(_ context.Context, d *Delivery) error {
				got = d
				return tt.handlerErr
			})

			ack := &fakeAcknowledger{}
			c.handle(context.Background(), delivery(t, ack, tt.body, tt.redelivered))

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)

			if !tt.wantHandled {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, event.ID.String(), got.Message.ID)
			assert.Equal(t, tt.redelivered, got.Redelivered)
		})
	}
}

func TestPermanent(t *testing.T) {
	cause := errors.New("cause")
	err := Permanent(cause)

	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorIs(t, err, cause)
}

func TestTopologyBindsEveryQueue(t *testing.T) {
	bound := make(map[Queue]bool)
	for _, b := range topology.bindings {
		bound[b.queue] = true
	}
	for _, q := range topology.queues {
		assert.True(t, bound[q.name], "queue %s has no binding", q.name)
	}
	assert.Contains(t, TopologyInfo(), string(QueueChangesAudit))
}
