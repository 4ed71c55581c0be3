package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/locator"
	"github.com/ebstat/sdkmendixtest/internal/model"
	"github.com/ebstat/sdkmendixtest/internal/platform"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

const (
	defaultBranch = "main"

	// discardTimeout — сколько ждать удаления working copy после запроса.
	discardTimeout = 10 * time.Second
)

// SessionStore сохраняет аудит working copies (repo.SessionRepo).
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Finish(ctx context.Context, s *domain.Session) error
}

// EventPublisher публикует события об изменениях модели (mq.Publisher).
type EventPublisher interface {
	PublishModelChanged(ctx context.Context, event domain.ChangeEvent) error
}

// ModelService — операции над моделями приложений.
type ModelService struct {
	platform      platform.Platform
	locator       *locator.Locator
	sessions      SessionStore
	events        EventPublisher
	defaultBranch string
	logger        *slog.Logger
	now           func() time.Time
}

// Config — конфигурация ModelService.
type Config struct {
	Platform platform.Platform
	Locator  *locator.Locator

	// Sessions — опционально; без него сессии не записываются.
	Sessions SessionStore

	// Events — опционально; без него события не публикуются.
	Events EventPublisher

	// DefaultBranch — ветка для запросов без branch (default: main).
	DefaultBranch string

	Logger *slog.Logger
}

// New создаёт ModelService.
func New(cfg Config) *ModelService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	branch := cfg.DefaultBranch
	if branch == "" {
		branch = defaultBranch
	}

	loc := cfg.Locator
	if loc == nil {
		loc = locator.New(locator.Config{Logger: logger})
	}

	return &ModelService{
		platform:      cfg.Platform,
		locator:       loc,
		sessions:      cfg.Sessions,
		events:        cfg.Events,
		defaultBranch: branch,
		logger:        logger,
		now:           time.Now,
	}
}

// workspace — состояние одной операции внутри working copy.
type workspace struct {
	ref     domain.ModelRef
	wc      *platform.WorkingCopy
	session *domain.Session
	model   *model.Model
	logger  *slog.Logger

	changes []model.Change
	events  []domain.ChangeEvent
}

// stage запоминает изменение для отправки платформе и событие для публикации.
func (w *workspace) stage(ch model.Change, event domain.ChangeEvent) {
	w.changes = append(w.changes, ch)
	w.events = append(w.events, event)
}

// withWorkingCopy выполняет fn внутри временной working copy ветки ref.
func (s *ModelService) withWorkingCopy(ctx context.Context, ref domain.ModelRef, operation string, fn func(ctx context.Context, w *workspace) error) (err error) {
	if ref.AppID == "" {
		return fmt.Errorf("%w: app id is required", ErrInvalidRequest)
	}
	if ref.Branch == "" {
		ref.Branch = s.defaultBranch
	}

	logger := telemetry.WithAppID(telemetry.FromContext(ctx, s.logger), ref.AppID).
		With("branch", ref.Branch, "operation", operation)

	wc, err := s.platform.CreateWorkingCopy(ctx, ref.AppID, ref.Branch)
	if err != nil {
		return fmt.Errorf("create working copy: %w", err)
	}
	telemetry.WorkingCopiesOpen.Inc()
	logger = telemetry.WithWorkingCopy(logger, wc.ID)

	w := &workspace{ref: ref, wc: wc, logger: logger}
	w.session = &domain.Session{
		ID:            uuid.New(),
		AppID:         ref.AppID,
		Branch:        ref.Branch,
		WorkingCopyID: wc.ID,
		Operation:     operation,
		Status:        domain.SessionStatusOpen,
		CreatedAt:     s.now().UTC(),
	}

	defer func() {
		s.discard(ctx, w, err)
	}()

	if s.sessions != nil {
		if err := s.sessions.Create(ctx, w.session); err != nil {
			w.session = nil
			return fmt.Errorf("record session: %w", err)
		}
		w.logger = telemetry.WithSessionID(w.logger, w.session.ID.String())
	}

	doc, err := s.platform.LoadModel(ctx, wc.ID)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	w.model, err = model.Build(doc)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	if err := fn(ctx, w); err != nil {
		return err
	}

	if len(w.changes) == 0 {
		return nil
	}
	return s.commit(ctx, w)
}

// commit отправляет изменения платформе, коммитит и публикует события.
func (s *ModelService) commit(ctx context.Context, w *workspace) error {
	if err := s.platform.ApplyChanges(ctx, w.wc.ID, w.changes); err != nil {
		return fmt.Errorf("apply changes: %w", err)
	}

	message := fmt.Sprintf("modelproxy: %s", w.session.Operation)
	revision, err := s.platform.Commit(ctx, w.wc.ID, message)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	w.session.Revision = revision
	w.logger.Info("working copy committed", "revision", revision, "changes", len(w.changes))

	if s.events == nil {
		return nil
	}

	committedAt := s.now().UTC()
	for _, event := range w.events {
		event.ID = uuid.New()
		event.SessionID = w.session.ID
		event.AppID = w.ref.AppID
		event.Branch = w.ref.Branch
		event.Revision = revision
		event.CommittedAt = committedAt

		// Коммит уже в ветке: ошибка публикации не отменяет результат запроса.
		if err := s.events.PublishModelChanged(ctx, event); err != nil {
			w.logger.Error("failed to publish model change",
				"event_id", event.ID,
				"qualified_name", event.QualifiedName(),
				"error", err,
			)
		}
	}
	return nil
}

// discard удаляет working copy и закрывает сессию.
// Работает на отвязанном контексте: отмена запроса не должна оставить working copy.
func (s *ModelService) discard(ctx context.Context, w *workspace, opErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	if err := s.platform.DeleteWorkingCopy(ctx, w.wc.ID); err != nil {
		// Сессия остаётся OPEN, janitor удалит working copy по TTL.
		w.logger.Error("failed to delete working copy", "error", err)
		return
	}
	telemetry.WorkingCopiesOpen.Dec()

	if w.session == nil {
		return
	}

	status := domain.SessionStatusDiscarded
	switch {
	case opErr != nil:
		status = domain.SessionStatusFailed
		w.session.Error = opErr.Error()
	case w.session.Revision != "":
		status = domain.SessionStatusCommitted
	}
	w.session.Finish(status, s.now().UTC())

	if s.sessions == nil {
		return
	}
	if err := s.sessions.Finish(ctx, w.session); err != nil {
		w.logger.Warn("failed to finish session", "status", status, "error", err)
	}
}
