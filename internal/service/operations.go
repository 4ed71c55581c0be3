package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/model"
	"github.com/ebstat/sdkmendixtest/internal/platform"
)

// Имена операций для аудита сессий.
const (
	OpListModules     = "list_modules"
	OpListEntities    = "list_entities"
	OpCreateEntity    = "create_entity"
	OpListMicroflows  = "list_microflows"
	OpGetMicroflow    = "get_microflow"
	OpCreateMicroflow = "create_microflow"
)

// ListModules возвращает модули приложения, отсортированные по имени.
func (s *ModelService) ListModules(ctx context.Context, ref domain.ModelRef) ([]domain.ModuleSummary, error) {
	var out []domain.ModuleSummary

	err := s.withWorkingCopy(ctx, ref, OpListModules, func(_ context.Context, w *workspace) error {
		modules := w.model.Modules()
		out = make([]domain.ModuleSummary, 0, len(modules))
		for _, m := range modules {
			out = append(out, domain.ModuleSummary{
				ID:           m.ID(),
				Name:         m.Name(),
				FromAppStore: m.FromAppStore(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListEntities возвращает сущности доменной модели модуля.
func (s *ModelService) ListEntities(ctx context.Context, ref domain.ModelRef, moduleName string) ([]domain.EntitySummary, error) {
	var out []domain.EntitySummary

	err := s.withWorkingCopy(ctx, ref, OpListEntities, func(_ context.Context, w *workspace) error {
		module, err := findModule(w.model, moduleName)
		if err != nil {
			return err
		}
		entities, err := w.model.Entities(module)
		if err != nil {
			return err
		}
		out = make([]domain.EntitySummary, 0, len(entities))
		for _, e := range entities {
			out = append(out, s.entitySummary(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateEntity создаёт сущность в модуле и коммитит её в ветку.
func (s *ModelService) CreateEntity(ctx context.Context, ref domain.ModelRef, moduleName string, spec domain.EntitySpec) (*domain.EntitySummary, error) {
	var out domain.EntitySummary

	err := s.withWorkingCopy(ctx, ref, OpCreateEntity, func(_ context.Context, w *workspace) error {
		if _, err := findModule(w.model, moduleName); err != nil {
			return err
		}
		entity, change, err := w.model.AddEntity(moduleName, spec)
		if err != nil {
			return err
		}
		w.stage(change, domain.ChangeEvent{
			Op:     domain.ChangeOpCreate,
			Kind:   domain.KindEntity,
			Module: moduleName,
			Name:   entity.Name(),
			UnitID: entity.ID(),
		})
		out = s.entitySummary(entity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMicroflows возвращает микрофлоу приложения.
//
// Непустой moduleFilter оставляет только микрофлоу, модуль которых
// (по locator'у) совпадает с фильтром с учётом регистра. Если не совпал
// ни один, возвращается ErrNoMatch.
func (s *ModelService) ListMicroflows(ctx context.Context, ref domain.ModelRef, moduleFilter string) ([]domain.MicroflowSummary, error) {
	var out []domain.MicroflowSummary

	err := s.withWorkingCopy(ctx, ref, OpListMicroflows, func(_ context.Context, w *workspace) error {
		microflows := w.model.Microflows()
		out = make([]domain.MicroflowSummary, 0, len(microflows))
		for _, mf := range microflows {
			summary := s.microflowSummary(mf)
			if moduleFilter != "" && (!summary.ModuleResolved || summary.Module != moduleFilter) {
				continue
			}
			out = append(out, summary)
		}
		if moduleFilter != "" && len(out) == 0 {
			return fmt.Errorf("%w: module %q", ErrNoMatch, moduleFilter)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetMicroflow загружает полное описание микрофлоу moduleName.name.
func (s *ModelService) GetMicroflow(ctx context.Context, ref domain.ModelRef, moduleName, name string) (*domain.MicroflowDetails, error) {
	var out *domain.MicroflowDetails

	err := s.withWorkingCopy(ctx, ref, OpGetMicroflow, func(ctx context.Context, w *workspace) error {
		var found *model.Unit
		var summary domain.MicroflowSummary
		for _, mf := range w.model.Microflows() {
			if mf.Name() != name {
				continue
			}
			sum := s.microflowSummary(mf)
			if sum.ModuleResolved && sum.Module == moduleName {
				found, summary = mf, sum
				break
			}
		}
		if found == nil {
			return fmt.Errorf("%w: %s.%s", ErrMicroflowNotFound, moduleName, name)
		}

		details, err := s.platform.LoadMicroflow(ctx, w.wc.ID, found.ID())
		switch {
		case errors.Is(err, platform.ErrNotFound):
			// Платформа ещё не отдала тело: показываем то, что есть в модели.
			w.logger.Debug("microflow details not available", "unit_id", found.ID())
			details = &model.MicroflowDetailsDoc{ID: found.ID(), Documentation: found.Documentation()}
		case err != nil:
			return fmt.Errorf("load microflow: %w", err)
		}

		out = microflowDetails(summary, details)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMicroflow создаёт пустой микрофлоу в модуле и коммитит его в ветку.
func (s *ModelService) CreateMicroflow(ctx context.Context, ref domain.ModelRef, moduleName string, spec domain.MicroflowSpec) (*domain.MicroflowDetails, error) {
	var out *domain.MicroflowDetails

	err := s.withWorkingCopy(ctx, ref, OpCreateMicroflow, func(_ context.Context, w *workspace) error {
		if _, err := findModule(w.model, moduleName); err != nil {
			return err
		}
		unit, change, err := w.model.AddMicroflow(moduleName, spec)
		if err != nil {
			return err
		}
		w.stage(change, domain.ChangeEvent{
			Op:     domain.ChangeOpCreate,
			Kind:   domain.KindMicroflow,
			Module: moduleName,
			Name:   unit.Name(),
			UnitID: unit.ID(),
		})
		out = microflowDetails(s.microflowSummary(unit), change.Details)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func findModule(m *model.Model, name string) (*model.Unit, error) {
	module, err := m.Module(name)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	return module, err
}
