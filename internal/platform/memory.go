package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ebstat/sdkmendixtest/internal/model"
)

// DefaultBranch — ветка, в которую загружается модель из фикстуры.
const DefaultBranch = "main"

// Fixture — содержимое файла фикстуры для Memory.
type Fixture struct {
	Apps map[string]FixtureApp `json:"apps"`
}

// FixtureApp — приложение в фикстуре.
type FixtureApp struct {
	Model   model.Document                       `json:"model"`
	Details map[string]model.MicroflowDetailsDoc `json:"details,omitempty"`
}

// branchState — состояние ветки приложения.
type branchState struct {
	doc      *model.Document
	details  map[string]model.MicroflowDetailsDoc
	revision int
}

// memoryWorkingCopy — working copy в памяти.
type memoryWorkingCopy struct {
	info    WorkingCopy
	doc     *model.Document
	details map[string]model.MicroflowDetailsDoc
}

// Memory — платформа в памяти.
//
// Используется в тестах и для локальной разработки (PLATFORM_FIXTURE).
// Working copy — глубокая копия ветки; Commit записывает её обратно.
type Memory struct {
	mu       sync.Mutex
	apps     map[string]map[string]*branchState
	wcs      map[string]*memoryWorkingCopy
	failures map[string]error
	now      func() time.Time
}

var _ Platform = (*Memory)(nil)

// NewMemory создаёт платформу из фикстуры.
func NewMemory(fx Fixture) *Memory {
	m := &Memory{
		apps:     make(map[string]map[string]*branchState),
		wcs:      make(map[string]*memoryWorkingCopy),
		failures: make(map[string]error),
		now:      time.Now,
	}
	for appID, app := range fx.Apps {
		doc := app.Model
		m.apps[appID] = map[string]*branchState{
			DefaultBranch: {doc: doc.Clone(), details: cloneDetails(app.Details)},
		}
	}
	return m
}

// LoadFixture читает фикстуру из JSON файла.
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return NewMemory(fx), nil
}

// FailOn заставляет операцию op возвращать err (тесты).
// Имена операций совпадают с метками метрики: "commit", "load_model", ...
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// WorkingCopyIDs возвращает ID живых working copies.
func (m *Memory) WorkingCopyIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.wcs))
	for id := range m.wcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CreateWorkingCopy создаёт working copy ветки.
func (m *Memory) CreateWorkingCopy(_ context.Context, appID, branch string) (*WorkingCopy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["create_working_copy"]; err != nil {
		return nil, err
	}

	branches, ok := m.apps[appID]
	if !ok {
		return nil, fmt.Errorf("app %q: %w", appID, ErrNotFound)
	}
	state, ok := branches[branch]
	if !ok {
		return nil, fmt.Errorf("branch %q of app %q: %w", branch, appID, ErrNotFound)
	}

	now := m.now()
	wc := &memoryWorkingCopy{
		info: WorkingCopy{
			ID:        uuid.NewString(),
			AppID:     appID,
			Branch:    branch,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		},
		doc:     state.doc.Clone(),
		details: cloneDetails(state.details),
	}
	m.wcs[wc.info.ID] = wc

	info := wc.info
	return &info, nil
}

// LoadModel возвращает копию модели working copy.
func (m *Memory) LoadModel(_ context.Context, wcID string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["load_model"]; err != nil {
		return nil, err
	}
	wc, err := m.workingCopy(wcID)
	if err != nil {
		return nil, err
	}
	return wc.doc.Clone(), nil
}

// LoadMicroflow возвращает полное описание микрофлоу.
func (m *Memory) LoadMicroflow(_ context.Context, wcID, unitID string) (*model.MicroflowDetailsDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["load_unit"]; err != nil {
		return nil, err
	}
	wc, err := m.workingCopy(wcID)
	if err != nil {
		return nil, err
	}
	details, ok := wc.details[unitID]
	if !ok {
		return nil, fmt.Errorf("unit %q: %w", unitID, ErrNotFound)
	}
	return &details, nil
}

// ApplyChanges применяет изменения к модели working copy.
func (m *Memory) ApplyChanges(_ context.Context, wcID string, changes []model.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["apply_changes"]; err != nil {
		return err
	}
	wc, err := m.workingCopy(wcID)
	if err != nil {
		return err
	}

	// Применяем к копии, чтобы ошибка не оставила модель в половинчатом состоянии.
	next := wc.doc.Clone()
	if err := next.Apply(changes); err != nil {
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "INVALID_CHANGE", Message: err.Error()}
	}
	wc.doc = next
	for _, ch := range changes {
		if ch.Details != nil {
			wc.details[ch.Details.ID] = *ch.Details
		}
	}
	return nil
}

// Commit записывает модель working copy в ветку.
func (m *Memory) Commit(_ context.Context, wcID, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["commit"]; err != nil {
		return "", err
	}
	wc, err := m.workingCopy(wcID)
	if err != nil {
		return "", err
	}

	state := m.apps[wc.info.AppID][wc.info.Branch]
	state.doc = wc.doc.Clone()
	state.details = cloneDetails(wc.details)
	state.revision++
	return fmt.Sprintf("r%d", state.revision), nil
}

// DeleteWorkingCopy удаляет working copy.
func (m *Memory) DeleteWorkingCopy(_ context.Context, wcID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["delete_working_copy"]; err != nil {
		return err
	}
	delete(m.wcs, wcID)
	return nil
}

func (m *Memory) workingCopy(id string) (*memoryWorkingCopy, error) {
	wc, ok := m.wcs[id]
	if !ok {
		return nil, fmt.Errorf("working copy %q: %w", id, ErrNotFound)
	}
	return wc, nil
}

func cloneDetails(in map[string]model.MicroflowDetailsDoc) map[string]model.MicroflowDetailsDoc {
	out := make(map[string]model.MicroflowDetailsDoc, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
