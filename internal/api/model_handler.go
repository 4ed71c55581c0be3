package api

import (
	"encoding/json"
	"net/http"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// modelRef читает приложение из пути и ветку из ?branch=.
func modelRef(r *http.Request) domain.ModelRef {
	return domain.ModelRef{
		AppID:  r.PathValue("app"),
		Branch: r.URL.Query().Get("branch"),
	}
}

// ListModules возвращает модули приложения.
// GET /api/v1/apps/{app}/modules?branch=...
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.models.ListModules(r.Context(), modelRef(r))
	if HandleError(w, h.logger, err) {
		return
	}
	List(w, modules, len(modules))
}

// ListEntities возвращает сущности модуля.
// GET /api/v1/apps/{app}/modules/{module}/entities
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.models.ListEntities(r.Context(), modelRef(r), r.PathValue("module"))
	if HandleError(w, h.logger, err) {
		return
	}
	List(w, entities, len(entities))
}

// CreateEntity создаёт сущность в модуле.
// POST /api/v1/apps/{app}/modules/{module}/entities
func (h *Handler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	entity, err := h.models.CreateEntity(r.Context(), modelRef(r), r.PathValue("module"), req.ToSpec())
	if HandleError(w, h.logger, err) {
		return
	}
	Created(w, entity)
}

// ListMicroflows возвращает микрофлоу приложения.
// GET /api/v1/apps/{app}/microflows?module=...&branch=...
func (h *Handler) ListMicroflows(w http.ResponseWriter, r *http.Request) {
	microflows, err := h.models.ListMicroflows(r.Context(), modelRef(r), r.URL.Query().Get("module"))
	if HandleError(w, h.logger, err) {
		return
	}
	List(w, microflows, len(microflows))
}

// GetMicroflow возвращает полное описание микрофлоу.
// GET /api/v1/apps/{app}/modules/{module}/microflows/{name}
func (h *Handler) GetMicroflow(w http.ResponseWriter, r *http.Request) {
	mf, err := h.models.GetMicroflow(r.Context(), modelRef(r), r.PathValue("module"), r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, mf)
}

// CreateMicroflow создаёт микрофлоу в модуле.
// POST /api/v1/apps/{app}/modules/{module}/microflows
func (h *Handler) CreateMicroflow(w http.ResponseWriter, r *http.Request) {
	var req CreateMicroflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	mf, err := h.models.CreateMicroflow(r.Context(), modelRef(r), r.PathValue("module"), req.ToSpec())
	if HandleError(w, h.logger, err) {
		return
	}
	Created(w, mf)
}
