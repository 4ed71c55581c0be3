// Package audit сохраняет события model.changed в журнал изменений.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/mq"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

// ErrInvalidEvent — событие не проходит проверку и не может быть сохранено.
var ErrInvalidEvent = errors.New("invalid change event")

// ChangeStore — журнал изменений (repo.ChangeRepo).
type ChangeStore interface {
	// Insert сохраняет событие; false — событие с таким ID уже есть.
	Insert(ctx context.Context, e domain.ChangeEvent) (bool, error)
}

// Auditor — обработчик очереди changes.audit.
type Auditor struct {
	store  ChangeStore
	logger *slog.Logger
}

// New создаёт Auditor.
func New(store ChangeStore, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{store: store, logger: logger}
}

// Handle реализует mq.Handler.
//
// Некорректные сообщения отклоняются как постоянная ошибка (уходят в DLQ);
// ошибки записи в БД возвращаются как есть, чтобы сообщение повторили.
// Повторная доставка уже сохранённого события — не ошибка.
func (a *Auditor) Handle(ctx context.Context, d *mq.Delivery) error {
	if d.Message.Type != mq.MessageTypeModelChanged {
		telemetry.ChangesAudited.WithLabelValues("rejected").Inc()
		return mq.Permanent(fmt.Errorf("%w: unexpected message type %q", ErrInvalidEvent, d.Message.Type))
	}

	event, err := mq.ParsePayload[domain.ChangeEvent](&d.Message)
	if err != nil {
		telemetry.ChangesAudited.WithLabelValues("rejected").Inc()
		return mq.Permanent(err)
	}
	if err := Validate(event); err != nil {
		telemetry.ChangesAudited.WithLabelValues("rejected").Inc()
		return mq.Permanent(err)
	}

	inserted, err := a.store.Insert(ctx, event)
	if err != nil {
		telemetry.ChangesAudited.WithLabelValues("error").Inc()
		return fmt.Errorf("insert change: %w", err)
	}

	logger := telemetry.WithAppID(a.logger, event.AppID).With("event_id", event.ID)
	if !inserted {
		telemetry.ChangesAudited.WithLabelValues("duplicate").Inc()
		logger.Debug("change already recorded")
		return nil
	}

	telemetry.ChangesAudited.WithLabelValues("recorded").Inc()
	logger.Info("change recorded",
		"qualified_name", event.QualifiedName(),
		"kind", event.Kind,
		"revision", event.Revision,
	)
	return nil
}

// Validate проверяет обязательные поля события.
func Validate(e domain.ChangeEvent) error {
	switch {
	case e.ID == uuid.Nil:
		return fmt.Errorf("%w: empty id", ErrInvalidEvent)
	case e.AppID == "":
		return fmt.Errorf("%w: empty app_id", ErrInvalidEvent)
	case e.Op != domain.ChangeOpCreate:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidEvent, e.Op)
	case !e.Kind.IsValid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	case e.Module == "" || e.Name == "":
		return fmt.Errorf("%w: empty module or name", ErrInvalidEvent)
	}
	return nil
}
