package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// Entity DTOs

// CreateEntityRequest — запрос на создание сущности.
type CreateEntityRequest struct {
	Name           string             `json:"name"`
	Persistable    *bool              `json:"persistable,omitempty"`
	Generalization string             `json:"generalization,omitempty"`
	Documentation  string             `json:"documentation,omitempty"`
	Attributes     []AttributeRequest `json:"attributes,omitempty"`
}

// AttributeRequest — атрибут в запросе на создание сущности.
type AttributeRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Length       int    `json:"length,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

// ToSpec конвертирует запрос в domain.EntitySpec.
func (r CreateEntityRequest) ToSpec() domain.EntitySpec {
	spec := domain.EntitySpec{
		Name:           r.Name,
		Persistable:    r.Persistable,
		Generalization: r.Generalization,
		Documentation:  r.Documentation,
	}
	for _, a := range r.Attributes {
		spec.Attributes = append(spec.Attributes, domain.AttributeSummary{
			Name:         a.Name,
			Type:         a.Type,
			Length:       a.Length,
			DefaultValue: a.DefaultValue,
		})
	}
	return spec
}

// Microflow DTOs

// CreateMicroflowRequest — запрос на создание микрофлоу.
type CreateMicroflowRequest struct {
	Name          string             `json:"name"`
	Folder        string             `json:"folder,omitempty"`
	Documentation string             `json:"documentation,omitempty"`
	Parameters    []domain.Parameter `json:"parameters,omitempty"`
	ReturnType    string             `json:"return_type,omitempty"`
}

// ToSpec конвертирует запрос в domain.MicroflowSpec.
func (r CreateMicroflowRequest) ToSpec() domain.MicroflowSpec {
	return domain.MicroflowSpec{
		Name:          r.Name,
		Folder:        r.Folder,
		Documentation: r.Documentation,
		Parameters:    r.Parameters,
		ReturnType:    r.ReturnType,
	}
}

// Session DTOs

// SessionResponse — ответ с сессией working copy.
type SessionResponse struct {
	ID            uuid.UUID  `json:"id"`
	AppID         string     `json:"app_id"`
	Branch        string     `json:"branch"`
	WorkingCopyID string     `json:"working_copy_id"`
	Operation     string     `json:"operation"`
	Status        string     `json:"status"`
	Revision      string     `json:"revision,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// SessionFromDomain конвертирует domain.Session в SessionResponse.
func SessionFromDomain(s domain.Session) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		AppID:         s.AppID,
		Branch:        s.Branch,
		WorkingCopyID: s.WorkingCopyID,
		Operation:     s.Operation,
		Status:        s.Status.String(),
		Revision:      s.Revision,
		Error:         s.Error,
		CreatedAt:     s.CreatedAt,
		FinishedAt:    s.FinishedAt,
	}
}

// Change DTOs

// ChangeResponse — ответ с записью журнала изменений.
type ChangeResponse struct {
	ID            uuid.UUID `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	Branch        string    `json:"branch"`
	Revision      string    `json:"revision"`
	Op            string    `json:"op"`
	Kind          string    `json:"kind"`
	QualifiedName string    `json:"qualified_name"`
	UnitID        string    `json:"unit_id"`
	CommittedAt   time.Time `json:"committed_at"`
}

// ChangeFromDomain конвертирует domain.ChangeEvent в ChangeResponse.
func ChangeFromDomain(e domain.ChangeEvent) ChangeResponse {
	return ChangeResponse{
		ID:            e.ID,
		SessionID:     e.SessionID,
		Branch:        e.Branch,
		Revision:      e.Revision,
		Op:            string(e.Op),
		Kind:          string(e.Kind),
		QualifiedName: e.QualifiedName(),
		UnitID:        e.UnitID,
		CommittedAt:   e.CommittedAt,
	}
}
