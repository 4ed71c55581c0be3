package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/repo"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

const (
	defaultTTL       = 30 * time.Minute
	defaultBatchSize = 100
)

// SessionStore — доступ к сессиям (repo.SessionRepo).
type SessionStore interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]domain.Session, error)
	Finish(ctx context.Context, s *domain.Session) error
}

// WorkingCopyDeleter удаляет working copy на платформе (platform.Platform).
type WorkingCopyDeleter interface {
	DeleteWorkingCopy(ctx context.Context, wcID string) error
}

// Locker — лидерство между экземплярами janitor'а.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
}

// Janitor — сборщик просроченных working copies.
type Janitor struct {
	sessions  SessionStore
	platform  WorkingCopyDeleter
	locker    Locker
	ttl       time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// Config — конфигурация Janitor.
type Config struct {
	Sessions SessionStore
	Platform WorkingCopyDeleter

	// Locker — опционально; без него каждый тик выполняется.
	Locker Locker

	TTL       time.Duration // возраст OPEN сессии, после которого она просрочена (default: 30m)
	BatchSize int           // сессий за один тик (default: 100)
	Logger    *slog.Logger
}

// New создаёт Janitor.
func New(cfg Config) *Janitor {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		sessions:  cfg.Sessions,
		platform:  cfg.Platform,
		locker:    cfg.Locker,
		ttl:       ttl,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Run запускает Tick по cron-расписанию до отмены ctx.
// Тик, который не успел завершиться к следующему срабатыванию, не дублируется.
func (j *Janitor) Run(ctx context.Context, schedule string) error {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	logger := cronLogger{logger: j.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		if _, err := j.TickIfLeader(ctx); err != nil {
			j.logger.Error("janitor tick failed", "error", err)
		}
	}))

	j.logger.Info("janitor started", "schedule", schedule, "ttl", j.ttl)
	c.Start()

	<-ctx.Done()
	// Stop не прерывает текущий тик; ждём его завершения.
	<-c.Stop().Done()
	j.logger.Info("janitor stopped")
	return nil
}

// TickIfLeader выполняет Tick, если этот экземпляр — лидер.
func (j *Janitor) TickIfLeader(ctx context.Context) (int, error) {
	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx)
		if err != nil {
			return 0, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			j.logger.Debug("not a leader, skipping tick")
			return 0, nil
		}
	}
	return j.Tick(ctx)
}

// Tick удаляет working copies просроченных сессий и возвращает их количество.
// Ошибка одной сессии не блокирует обработку остальных.
func (j *Janitor) Tick(ctx context.Context) (int, error) {
	now := j.now().UTC()

	stale, err := j.sessions.ListStale(ctx, now.Add(-j.ttl), j.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var expired int
	for i := range stale {
		s := &stale[i]
		if err := j.expire(ctx, s, now); err != nil {
			j.logger.Error("failed to expire session",
				"session_id", s.ID,
				"working_copy_id", s.WorkingCopyID,
				"error", err,
			)
			continue
		}
		expired++
	}

	j.logger.Info("janitor tick completed", "stale", len(stale), "expired", expired)
	return expired, nil
}

func (j *Janitor) expire(ctx context.Context, s *domain.Session, now time.Time) error {
	logger := telemetry.WithSessionID(j.logger, s.ID.String())

	if err := j.platform.DeleteWorkingCopy(ctx, s.WorkingCopyID); err != nil {
		return fmt.Errorf("delete working copy: %w", err)
	}

	age := s.Age(now).Round(time.Second)
	s.Error = fmt.Sprintf("working copy expired after %s", age)
	s.Finish(domain.SessionStatusExpired, now)

	err := j.sessions.Finish(ctx, s)
	if errors.Is(err, repo.ErrInvalidState) {
		// Запрос успел закрыть сессию сам, пока мы удаляли копию.
		logger.Debug("session finished concurrently")
		return nil
	}
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}

	telemetry.WorkingCopiesExpired.Inc()
	logger.Info("working copy expired",
		"working_copy_id", s.WorkingCopyID,
		"app_id", s.AppID,
		"age", age,
	)
	return nil
}
