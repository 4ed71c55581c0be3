package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session — запись о working copy, созданной для обработки запроса.
//
// Working copy — временная копия модели на стороне платформы.
// Каждая сессия должна завершиться удалением working copy; если процесс
// упал посреди запроса, janitor находит OPEN сессии старше TTL и удаляет их.
type Session struct {
	// ID — уникальный идентификатор сессии.
	ID uuid.UUID `json:"id"`

	// AppID — приложение, для которого создана working copy.
	AppID string `json:"app_id"`

	// Branch — ветка, из которой создана working copy.
	Branch string `json:"branch"`

	// WorkingCopyID — идентификатор working copy на платформе.
	WorkingCopyID string `json:"working_copy_id"`

	// Operation — операция API, открывшая сессию ("list_microflows", ...).
	Operation string `json:"operation"`

	// Status — текущий статус сессии.
	Status SessionStatus `json:"status"`

	// Revision — ревизия, созданная коммитом (только для COMMITTED).
	Revision string `json:"revision,omitempty"`

	// Error — текст ошибки для FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время открытия working copy.
	CreatedAt time.Time `json:"created_at"`

	// FinishedAt — время закрытия. Nil, пока сессия OPEN.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finish переводит сессию в финальный статус.
func (s *Session) Finish(status SessionStatus, at time.Time) {
	s.Status = status
	s.FinishedAt = &at
}

// Age возвращает возраст сессии относительно now.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}
