package service

import (
	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/locator"
	"github.com/ebstat/sdkmendixtest/internal/model"
)

// resolveModule возвращает имя модуля элемента или UnresolvedModule.
func (s *ModelService) resolveModule(el locator.Element) (string, locator.Resolution) {
	res := s.locator.ResolveDetailed(el)
	if !res.OK {
		return domain.UnresolvedModule, res
	}
	return res.Name, res
}

func (s *ModelService) entitySummary(e *model.Entity) domain.EntitySummary {
	module, _ := s.resolveModule(e)

	attrs := make([]domain.AttributeSummary, 0, len(e.Attributes()))
	for _, a := range e.Attributes() {
		attrs = append(attrs, domain.AttributeSummary{
			Name:         a.Name,
			Type:         a.Type,
			Length:       a.Length,
			DefaultValue: a.DefaultValue,
		})
	}

	return domain.EntitySummary{
		ID:             e.ID(),
		Name:           e.Name(),
		QualifiedName:  e.QualifiedName(),
		Module:         module,
		Persistable:    e.Persistable(),
		Generalization: e.Generalization(),
		Documentation:  e.Documentation(),
		Attributes:     attrs,
	}
}

func (s *ModelService) microflowSummary(mf *model.Unit) domain.MicroflowSummary {
	module, res := s.resolveModule(mf)
	return domain.MicroflowSummary{
		ID:             mf.ID(),
		Name:           mf.Name(),
		QualifiedName:  mf.QualifiedName(),
		Module:         module,
		ModuleResolved: res.OK,
		ResolvedBy:     string(res.Strategy),
	}
}

func microflowDetails(summary domain.MicroflowSummary, doc *model.MicroflowDetailsDoc) *domain.MicroflowDetails {
	out := &domain.MicroflowDetails{
		MicroflowSummary: summary,
		Documentation:    doc.Documentation,
		ReturnType:       doc.ReturnType,
		Parameters:       make([]domain.Parameter, 0, len(doc.Parameters)),
		Activities:       make([]domain.Activity, 0, len(doc.Activities)),
		AllowedRoles:     doc.AllowedRoles,
	}
	if out.ReturnType == "" {
		out.ReturnType = model.DefaultReturnType
	}
	for _, p := range doc.Parameters {
		out.Parameters = append(out.Parameters, domain.Parameter{Name: p.Name, Type: p.Type})
	}
	for _, a := range doc.Activities {
		out.Activities = append(out.Activities, domain.Activity{Type: a.Type, Caption: a.Caption})
	}
	return out
}
