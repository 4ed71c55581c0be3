package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// Model — индексированный граф модели приложения.
//
// Model не потокобезопасен для изменений: каждый запрос строит
// свою Model из документа своей working copy.
type Model struct {
	project *Unit
	units   map[string]*Unit
	ordered []*Unit
}

// Build строит Model из документа.
// Проверяются только ID; ссылки между units разрешаются лениво.
func Build(doc *Document) (*Model, error) {
	m := &Model{
		units:   make(map[string]*Unit, len(doc.Units)+1),
		ordered: make([]*Unit, 0, len(doc.Units)),
	}

	project, err := m.register(doc.Project)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	m.project = project

	for _, ud := range doc.Units {
		u, err := m.register(ud)
		if err != nil {
			return nil, err
		}
		m.ordered = append(m.ordered, u)
	}

	return m, nil
}

func (m *Model) register(ud UnitDoc) (*Unit, error) {
	if ud.ID == "" {
		return nil, fmt.Errorf("%w (name %q)", ErrEmptyID, ud.Name)
	}
	if _, ok := m.units[ud.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ud.ID)
	}

	u := &Unit{model: m, doc: ud.clone()}
	for _, ed := range u.doc.Entities {
		u.entities = append(u.entities, &Entity{model: m, domainModelID: u.doc.ID, doc: ed})
	}
	m.units[ud.ID] = u
	return u, nil
}

func (m *Model) lookup(id string) (*Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDanglingReference, id)
	}
	return u, nil
}

// Project возвращает корневой unit.
func (m *Model) Project() *Unit {
	return m.project
}

// Unit возвращает unit по ID.
func (m *Model) Unit(id string) (*Unit, bool) {
	u, ok := m.units[id]
	return u, ok
}

// Modules возвращает модули, отсортированные по имени.
func (m *Model) Modules() []*Unit {
	modules := m.ofKind(domain.KindModule)
	slices.SortFunc(modules, func(a, b *Unit) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return modules
}

// Module возвращает модуль по имени (с учётом регистра).
func (m *Model) Module(name string) (*Unit, error) {
	for _, u := range m.ordered {
		if u.Kind() == domain.KindModule && u.Name() == name {
			return u, nil
		}
	}
	return nil, fmt.Errorf("module %q: %w", name, ErrNotFound)
}

// DomainModel возвращает доменную модель модуля.
func (m *Model) DomainModel(module *Unit) (*Unit, error) {
	for _, u := range m.ordered {
		if u.Kind() == domain.KindDomainModel && u.doc.ContainerID == module.ID() {
			return u, nil
		}
	}
	return nil, fmt.Errorf("domain model of module %q: %w", module.Name(), ErrNotFound)
}

// Entities возвращает сущности модуля.
func (m *Model) Entities(module *Unit) ([]*Entity, error) {
	dm, err := m.DomainModel(module)
	if err != nil {
		return nil, err
	}
	return dm.Entities(), nil
}

// Microflows возвращает все микрофлоу модели в порядке документа.
func (m *Model) Microflows() []*Unit {
	return m.ofKind(domain.KindMicroflow)
}

// Folder находит папку по пути "A/B/C" внутри модуля.
// Пустой путь — сам модуль.
func (m *Model) Folder(module *Unit, path string) (*Unit, error) {
	current := module
	path = strings.Trim(path, "/")
	if path == "" {
		return current, nil
	}

	for _, segment := range strings.Split(path, "/") {
		next := m.child(current, domain.KindFolder, segment)
		if next == nil {
			return nil, fmt.Errorf("folder %q in module %q: %w", path, module.Name(), ErrNotFound)
		}
		current = next
	}
	return current, nil
}

func (m *Model) child(parent *Unit, kind domain.Kind, name string) *Unit {
	for _, u := range m.ordered {
		if u.doc.ContainerID == parent.ID() && u.Kind() == kind && u.Name() == name {
			return u
		}
	}
	return nil
}

func (m *Model) ofKind(kind domain.Kind) []*Unit {
	var out []*Unit
	for _, u := range m.ordered {
		if u.Kind() == kind {
			out = append(out, u)
		}
	}
	return out
}

// moduleOf находит модуль unit'а структурно, без эвристик.
// Используется для проверки уникальности имён; ошибки ссылок игнорируются.
func (m *Model) moduleOf(u *Unit) *Unit {
	current := u
	for i, n := 0, len(m.units)+1; i < n; i++ {
		if current.Kind() == domain.KindModule {
			return current
		}
		next, ok := m.units[current.doc.ContainerID]
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}
