package domain

// ModelRef — адрес модели на платформе: приложение и ветка.
type ModelRef struct {
	// AppID — идентификатор приложения на платформе.
	AppID string `json:"app_id"`

	// Branch — ветка, из которой создаётся working copy.
	Branch string `json:"branch"`
}

// ModuleSummary — проекция модуля.
type ModuleSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// FromAppStore — модуль импортирован из маркетплейса (обычно read-only).
	FromAppStore bool `json:"from_app_store"`
}

// AttributeSummary — проекция атрибута сущности.
type AttributeSummary struct {
	Name string `json:"name"`

	// Type — тип атрибута: "String", "Integer", "Decimal", ...
	Type string `json:"type"`

	// Length — максимальная длина для String (0 — без ограничения).
	Length int `json:"length,omitempty"`

	DefaultValue string `json:"default_value,omitempty"`
}

// EntitySummary — проекция сущности доменной модели.
type EntitySummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`

	// Module — имя модуля, определённое через locator,
	// или UnresolvedModule, если определить не удалось.
	Module string `json:"module"`

	Persistable bool `json:"persistable"`

	// Generalization — qualified name родительской сущности (если есть).
	Generalization string `json:"generalization,omitempty"`

	Documentation string             `json:"documentation,omitempty"`
	Attributes    []AttributeSummary `json:"attributes"`
}

// MicroflowSummary — краткая проекция микрофлоу для списков.
type MicroflowSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name,omitempty"`

	// Module — имя модуля или UnresolvedModule.
	Module string `json:"module"`

	// ModuleResolved — false, если Module содержит метку UnresolvedModule.
	ModuleResolved bool `json:"module_resolved"`

	// ResolvedBy — стратегия locator'а, которая определила модуль.
	ResolvedBy string `json:"resolved_by,omitempty"`
}

// Parameter — параметр микрофлоу.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Activity — действие внутри микрофлоу.
type Activity struct {
	// Type — тип действия: "CreateObject", "Retrieve", "Commit", ...
	Type    string `json:"type"`
	Caption string `json:"caption,omitempty"`
}

// MicroflowDetails — полная проекция микрофлоу, загружаемая по запросу.
type MicroflowDetails struct {
	MicroflowSummary

	Documentation string      `json:"documentation,omitempty"`
	Parameters    []Parameter `json:"parameters"`
	ReturnType    string      `json:"return_type"`
	Activities    []Activity  `json:"activities"`
	AllowedRoles  []string    `json:"allowed_roles,omitempty"`
}

// EntitySpec — запрос на создание сущности.
type EntitySpec struct {
	Name           string             `json:"name"`
	Persistable    *bool              `json:"persistable,omitempty"` // по умолчанию true
	Generalization string             `json:"generalization,omitempty"`
	Documentation  string             `json:"documentation,omitempty"`
	Attributes     []AttributeSummary `json:"attributes,omitempty"`
}

// IsPersistable возвращает значение Persistable с учётом значения по умолчанию.
func (s EntitySpec) IsPersistable() bool {
	return s.Persistable == nil || *s.Persistable
}

// MicroflowSpec — запрос на создание микрофлоу.
type MicroflowSpec struct {
	Name          string      `json:"name"`
	Folder        string      `json:"folder,omitempty"` // путь папки внутри модуля: "Orders/Admin"
	Documentation string      `json:"documentation,omitempty"`
	Parameters    []Parameter `json:"parameters,omitempty"`
	ReturnType    string      `json:"return_type,omitempty"` // по умолчанию "Void"
}
