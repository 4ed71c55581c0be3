package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// Change — изменение модели, отправляемое платформе.
type Change struct {
	Op   domain.ChangeOp `json:"op"`
	Kind domain.Kind     `json:"kind"`

	// ContainerID — unit, в который добавляется элемент.
	ContainerID string `json:"containerId"`

	// Unit — новый unit (микрофлоу, папка).
	Unit *UnitDoc `json:"unit,omitempty"`

	// Entity — новая сущность (ContainerID — доменная модель).
	Entity *EntityDoc `json:"entity,omitempty"`

	// Details — тело нового микрофлоу.
	Details *MicroflowDetailsDoc `json:"details,omitempty"`
}

// identifierRe — допустимое имя элемента модели.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AttributeTypes — поддерживаемые типы атрибутов.
var AttributeTypes = map[string]bool{
	"AutoNumber":  true,
	"Binary":      true,
	"Boolean":     true,
	"DateTime":    true,
	"Decimal":     true,
	"Enumeration": true,
	"HashString":  true,
	"Integer":     true,
	"Long":        true,
	"String":      true,
}

// DefaultReturnType — тип результата микрофлоу по умолчанию.
const DefaultReturnType = "Void"

// ValidateName проверяет, что name — допустимый идентификатор.
func ValidateName(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// AddEntity добавляет сущность в доменную модель модуля.
func (m *Model) AddEntity(moduleName string, spec domain.EntitySpec) (*Entity, Change, error) {
	module, err := m.writableModule(moduleName)
	if err != nil {
		return nil, Change{}, err
	}
	if err := validateEntitySpec(spec); err != nil {
		return nil, Change{}, err
	}

	dm, err := m.DomainModel(module)
	if err != nil {
		return nil, Change{}, err
	}
	for _, e := range dm.entities {
		if e.Name() == spec.Name {
			return nil, Change{}, fmt.Errorf("%w: entity %s.%s", ErrDuplicateName, module.Name(), spec.Name)
		}
	}

	doc := EntityDoc{
		ID:             uuid.NewString(),
		Name:           spec.Name,
		QualifiedName:  module.Name() + domain.QualifiedNameDelimiter + spec.Name,
		Persistable:    spec.IsPersistable(),
		Generalization: spec.Generalization,
		Documentation:  spec.Documentation,
	}
	for _, a := range spec.Attributes {
		doc.Attributes = append(doc.Attributes, AttributeDoc{
			Name:         a.Name,
			Type:         a.Type,
			Length:       a.Length,
			DefaultValue: a.DefaultValue,
		})
	}

	entity := &Entity{model: m, domainModelID: dm.ID(), doc: doc}
	dm.doc.Entities = append(dm.doc.Entities, doc)
	dm.entities = append(dm.entities, entity)

	change := Change{
		Op:          domain.ChangeOpCreate,
		Kind:        domain.KindEntity,
		ContainerID: dm.ID(),
		Entity:      &doc,
	}
	return entity, change, nil
}

// AddMicroflow добавляет пустой микрофлоу в модуль (или в его папку).
func (m *Model) AddMicroflow(moduleName string, spec domain.MicroflowSpec) (*Unit, Change, error) {
	module, err := m.writableModule(moduleName)
	if err != nil {
		return nil, Change{}, err
	}
	if err := ValidateName(spec.Name); err != nil {
		return nil, Change{}, err
	}
	for _, p := range spec.Parameters {
		if err := ValidateName(p.Name); err != nil {
			return nil, Change{}, fmt.Errorf("parameter: %w", err)
		}
		if p.Type == "" {
			return nil, Change{}, fmt.Errorf("%w: parameter %q has no type", ErrInvalidSpec, p.Name)
		}
	}

	folder, err := m.Folder(module, spec.Folder)
	if err != nil {
		return nil, Change{}, err
	}

	for _, mf := range m.Microflows() {
		if mf.Name() == spec.Name && m.moduleOf(mf) == module {
			return nil, Change{}, fmt.Errorf("%w: microflow %s.%s", ErrDuplicateName, module.Name(), spec.Name)
		}
	}

	returnType := spec.ReturnType
	if returnType == "" {
		returnType = DefaultReturnType
	}

	doc := UnitDoc{
		ID:            uuid.NewString(),
		Kind:          domain.KindMicroflow,
		Name:          spec.Name,
		ContainerID:   folder.ID(),
		ModuleID:      module.ID(),
		QualifiedName: module.Name() + domain.QualifiedNameDelimiter + spec.Name,
		Documentation: spec.Documentation,
	}
	details := &MicroflowDetailsDoc{
		ID:            doc.ID,
		Documentation: spec.Documentation,
		ReturnType:    returnType,
	}
	for _, p := range spec.Parameters {
		details.Parameters = append(details.Parameters, ParameterDoc{Name: p.Name, Type: p.Type})
	}

	unit, err := m.register(doc)
	if err != nil {
		return nil, Change{}, err
	}
	m.ordered = append(m.ordered, unit)

	change := Change{
		Op:          domain.ChangeOpCreate,
		Kind:        domain.KindMicroflow,
		ContainerID: folder.ID(),
		Unit:        &doc,
		Details:     details,
	}
	return unit, change, nil
}

func (m *Model) writableModule(name string) (*Unit, error) {
	module, err := m.Module(name)
	if err != nil {
		return nil, err
	}
	if module.FromAppStore() {
		return nil, fmt.Errorf("%w: %s", ErrReadOnlyModule, name)
	}
	return module, nil
}

func validateEntitySpec(spec domain.EntitySpec) error {
	if err := ValidateName(spec.Name); err != nil {
		return err
	}

	seen := make(map[string]bool, len(spec.Attributes))
	for _, a := range spec.Attributes {
		if err := ValidateName(a.Name); err != nil {
			return fmt.Errorf("attribute: %w", err)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: attribute %q", ErrDuplicateName, a.Name)
		}
		seen[a.Name] = true

		if !AttributeTypes[a.Type] {
			return fmt.Errorf("%w: attribute %q has unknown type %q", ErrInvalidSpec, a.Name, a.Type)
		}
		if a.Length < 0 || (a.Length > 0 && a.Type != "String") {
			return fmt.Errorf("%w: length is only valid for String attributes", ErrInvalidSpec)
		}
	}

	if spec.Generalization != "" {
		head, tail, ok := strings.Cut(spec.Generalization, domain.QualifiedNameDelimiter)
		if !ok || ValidateName(head) != nil || ValidateName(tail) != nil {
			return fmt.Errorf("%w: generalization %q is not a qualified name", ErrInvalidSpec, spec.Generalization)
		}
	}
	return nil
}
