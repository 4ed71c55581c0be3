package api

import (
	"context"
	"log/slog"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/repo"
)

// ModelService — операции с моделями (service.ModelService).
type ModelService interface {
	ListModules(ctx context.Context, ref domain.ModelRef) ([]domain.ModuleSummary, error)
	ListEntities(ctx context.Context, ref domain.ModelRef, module string) ([]domain.EntitySummary, error)
	CreateEntity(ctx context.Context, ref domain.ModelRef, module string, spec domain.EntitySpec) (*domain.EntitySummary, error)
	ListMicroflows(ctx context.Context, ref domain.ModelRef, module string) ([]domain.MicroflowSummary, error)
	GetMicroflow(ctx context.Context, ref domain.ModelRef, module, name string) (*domain.MicroflowDetails, error)
	CreateMicroflow(ctx context.Context, ref domain.ModelRef, module string, spec domain.MicroflowSpec) (*domain.MicroflowDetails, error)
}

// SessionLister — чтение аудита сессий (repo.SessionRepo).
type SessionLister interface {
	List(ctx context.Context, filter repo.SessionFilter) ([]domain.Session, error)
}

// ChangeLister — чтение журнала изменений (repo.ChangeRepo).
type ChangeLister interface {
	ListByApp(ctx context.Context, appID string, limit int) ([]domain.ChangeEvent, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	models   ModelService
	sessions SessionLister
	changes  ChangeLister
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Models ModelService

	// Sessions и Changes опциональны: без БД маршруты аудита отвечают 503.
	Sessions SessionLister
	Changes  ChangeLister

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		models:   cfg.Models,
		sessions: cfg.Sessions,
		changes:  cfg.Changes,
		logger:   logger,
	}
}
