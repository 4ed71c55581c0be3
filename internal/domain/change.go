package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeOp — тип изменения модели.
type ChangeOp string

const (
	ChangeOpCreate ChangeOp = "create"
)

// ChangeEvent — событие об изменении модели, закоммиченном в ветку.
//
// Публикуется API в RabbitMQ после успешного коммита
// и сохраняется auditor'ом в таблицу model_changes.
type ChangeEvent struct {
	// ID — идентификатор события (ключ идемпотентности для auditor'а).
	ID uuid.UUID `json:"id"`

	// SessionID — сессия, в рамках которой сделано изменение.
	SessionID uuid.UUID `json:"session_id"`

	AppID  string `json:"app_id"`
	Branch string `json:"branch"`

	// Revision — ревизия после коммита.
	Revision string `json:"revision"`

	Op   ChangeOp `json:"op"`
	Kind Kind     `json:"kind"`

	// Module — модуль, в котором создан элемент.
	Module string `json:"module"`

	// Name — имя созданного элемента.
	Name string `json:"name"`

	// UnitID — идентификатор созданного элемента в модели.
	UnitID string `json:"unit_id"`

	CommittedAt time.Time `json:"committed_at"`
}

// QualifiedName возвращает "Module.Name".
func (e ChangeEvent) QualifiedName() string {
	return e.Module + QualifiedNameDelimiter + e.Name
}
