package model

import (
	"fmt"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/locator"
)

// Unit — узел модели. Реализует locator.Element и locator.Container.
type Unit struct {
	model *Model
	doc   UnitDoc

	entities []*Entity
}

var (
	_ locator.Element   = (*Unit)(nil)
	_ locator.Container = (*Unit)(nil)
	_ locator.Element   = (*Entity)(nil)
)

func (u *Unit) ID() string            { return u.doc.ID }
func (u *Unit) Name() string          { return u.doc.Name }
func (u *Unit) Kind() domain.Kind     { return u.doc.Kind }
func (u *Unit) QualifiedName() string { return u.doc.QualifiedName }
func (u *Unit) Documentation() string { return u.doc.Documentation }
func (u *Unit) FromAppStore() bool    { return u.doc.FromAppStore }

// Entities возвращает сущности доменной модели.
func (u *Unit) Entities() []*Entity {
	return u.entities
}

// Container возвращает родительский unit через индекс модели.
func (u *Unit) Container() (locator.Container, error) {
	if u.doc.ContainerID == "" {
		return nil, nil
	}
	parent, err := u.model.lookup(u.doc.ContainerID)
	if err != nil {
		return nil, fmt.Errorf("container of %s: %w", u.doc.ID, err)
	}
	return parent, nil
}

// DirectOwner возвращает модуль по ModuleID, если платформа его заполнила.
func (u *Unit) DirectOwner() (locator.Container, error) {
	if u.doc.ModuleID == "" {
		return nil, nil
	}
	owner, err := u.model.lookup(u.doc.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("module of %s: %w", u.doc.ID, err)
	}
	return owner, nil
}

// Entity — сущность доменной модели.
type Entity struct {
	model         *Model
	domainModelID string
	doc           EntityDoc
}

func (e *Entity) ID() string             { return e.doc.ID }
func (e *Entity) Name() string           { return e.doc.Name }
func (e *Entity) QualifiedName() string  { return e.doc.QualifiedName }
func (e *Entity) Persistable() bool      { return e.doc.Persistable }
func (e *Entity) Generalization() string { return e.doc.Generalization }
func (e *Entity) Documentation() string  { return e.doc.Documentation }

// Attributes возвращает атрибуты сущности.
func (e *Entity) Attributes() []AttributeDoc {
	return e.doc.Attributes
}

// Container возвращает доменную модель, в которой лежит сущность.
func (e *Entity) Container() (locator.Container, error) {
	dm, err := e.model.lookup(e.domainModelID)
	if err != nil {
		return nil, fmt.Errorf("domain model of %s: %w", e.doc.ID, err)
	}
	return dm, nil
}

// DirectOwner — у сущностей явной ссылки на модуль нет.
func (e *Entity) DirectOwner() (locator.Container, error) {
	return nil, nil
}
