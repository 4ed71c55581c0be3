package model

import (
	"fmt"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// Document — модель приложения в том виде, в каком её отдаёт платформа.
type Document struct {
	// Project — корневой unit (контейнера нет).
	Project UnitDoc `json:"project"`

	// Units — все остальные units в порядке, заданном платформой.
	Units []UnitDoc `json:"units"`
}

// UnitDoc — unit модели: модуль, папка, доменная модель, микрофлоу.
type UnitDoc struct {
	ID   string      `json:"id"`
	Kind domain.Kind `json:"kind"`
	Name string      `json:"name"`

	// ContainerID — ID родительского unit'а. Пусто только у проекта.
	ContainerID string `json:"containerId,omitempty"`

	// ModuleID — ID модуля-владельца. Платформа заполняет его не всегда.
	ModuleID string `json:"moduleId,omitempty"`

	// QualifiedName — "Module.Name" для документов модуля.
	QualifiedName string `json:"qualifiedName,omitempty"`

	Documentation string `json:"documentation,omitempty"`

	// FromAppStore — только для модулей.
	FromAppStore bool `json:"fromAppStore,omitempty"`

	// Entities — только для доменных моделей.
	Entities []EntityDoc `json:"entities,omitempty"`
}

// EntityDoc — сущность доменной модели.
type EntityDoc struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	QualifiedName  string         `json:"qualifiedName,omitempty"`
	Persistable    bool           `json:"persistable"`
	Generalization string         `json:"generalization,omitempty"`
	Documentation  string         `json:"documentation,omitempty"`
	Attributes     []AttributeDoc `json:"attributes,omitempty"`
}

// AttributeDoc — атрибут сущности.
type AttributeDoc struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Length       int    `json:"length,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// MicroflowDetailsDoc — полное описание микрофлоу.
// Платформа отдаёт его отдельным запросом, модель содержит только заголовки.
type MicroflowDetailsDoc struct {
	ID            string         `json:"id"`
	Documentation string         `json:"documentation,omitempty"`
	Parameters    []ParameterDoc `json:"parameters,omitempty"`
	ReturnType    string         `json:"returnType"`
	Activities    []ActivityDoc  `json:"activities,omitempty"`
	AllowedRoles  []string       `json:"allowedRoles,omitempty"`
}

// ParameterDoc — параметр микрофлоу.
type ParameterDoc struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ActivityDoc — действие микрофлоу.
type ActivityDoc struct {
	Type    string `json:"type"`
	Caption string `json:"caption,omitempty"`
}

// Clone возвращает глубокую копию документа.
func (d *Document) Clone() *Document {
	out := &Document{
		Project: d.Project.clone(),
		Units:   make([]UnitDoc, len(d.Units)),
	}
	for i := range d.Units {
		out.Units[i] = d.Units[i].clone()
	}
	return out
}

func (u UnitDoc) clone() UnitDoc {
	if u.Entities != nil {
		entities := make([]EntityDoc, len(u.Entities))
		for i, e := range u.Entities {
			e.Attributes = append([]AttributeDoc(nil), e.Attributes...)
			entities[i] = e
		}
		u.Entities = entities
	}
	return u
}

// Apply применяет изменения к документу.
// Используется платформой в памяти; удалённая платформа применяет их сама.
func (d *Document) Apply(changes []Change) error {
	for i, ch := range changes {
		if err := d.apply(ch); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

func (d *Document) apply(ch Change) error {
	if ch.Op != domain.ChangeOpCreate {
		return fmt.Errorf("%w: unsupported op %q", ErrInvalidSpec, ch.Op)
	}

	switch {
	case ch.Entity != nil:
		dm := d.find(ch.ContainerID)
		if dm == nil || dm.Kind != domain.KindDomainModel {
			return fmt.Errorf("%w: domain model %s", ErrDanglingReference, ch.ContainerID)
		}
		dm.Entities = append(dm.Entities, *ch.Entity)
		return nil

	case ch.Unit != nil:
		if d.find(ch.Unit.ID) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateID, ch.Unit.ID)
		}
		if d.find(ch.ContainerID) == nil {
			return fmt.Errorf("%w: container %s", ErrDanglingReference, ch.ContainerID)
		}
		d.Units = append(d.Units, ch.Unit.clone())
		return nil

	default:
		return fmt.Errorf("%w: empty change", ErrInvalidSpec)
	}
}

func (d *Document) find(id string) *UnitDoc {
	if id == "" {
		return nil
	}
	if d.Project.ID == id {
		return &d.Project
	}
	for i := range d.Units {
		if d.Units[i].ID == id {
			return &d.Units[i]
		}
	}
	return nil
}
