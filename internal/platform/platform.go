package platform

import (
	"context"
	"time"

	"github.com/ebstat/sdkmendixtest/internal/model"
)

// WorkingCopy — временная копия модели ветки на стороне платформы.
type WorkingCopy struct {
	ID        string    `json:"id"`
	AppID     string    `json:"appId"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Platform — операции с моделями приложений на платформе.
type Platform interface {
	// CreateWorkingCopy создаёт working copy ветки приложения.
	CreateWorkingCopy(ctx context.Context, appID, branch string) (*WorkingCopy, error)

	// LoadModel загружает модель working copy.
	LoadModel(ctx context.Context, wcID string) (*model.Document, error)

	// LoadMicroflow загружает полное описание микрофлоу.
	LoadMicroflow(ctx context.Context, wcID, unitID string) (*model.MicroflowDetailsDoc, error)

	// ApplyChanges применяет изменения к working copy.
	ApplyChanges(ctx context.Context, wcID string, changes []model.Change) error

	// Commit коммитит working copy в ветку и возвращает новую ревизию.
	Commit(ctx context.Context, wcID, message string) (string, error)

	// DeleteWorkingCopy удаляет working copy. Удаление несуществующей — не ошибка.
	DeleteWorkingCopy(ctx context.Context, wcID string) error
}
