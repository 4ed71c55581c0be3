package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Recovery внутри: запросы с паникой попадают в лог и метрики как 500.
	chain := Chain(
		Metrics(),
		Logging(h.logger),
		Recovery(h.logger),
	)

	// Modules & entities
	mux.Handle("GET /api/v1/apps/{app}/modules", chain(http.HandlerFunc(h.ListModules)))
	mux.Handle("GET /api/v1/apps/{app}/modules/{module}/entities", chain(http.HandlerFunc(h.ListEntities)))
	mux.Handle("POST /api/v1/apps/{app}/modules/{module}/entities", chain(http.HandlerFunc(h.CreateEntity)))

	// Microflows
	mux.Handle("GET /api/v1/apps/{app}/microflows", chain(http.HandlerFunc(h.ListMicroflows)))
	mux.Handle("GET /api/v1/apps/{app}/modules/{module}/microflows/{name}", chain(http.HandlerFunc(h.GetMicroflow)))
	mux.Handle("POST /api/v1/apps/{app}/modules/{module}/microflows", chain(http.HandlerFunc(h.CreateMicroflow)))

	// Audit
	mux.Handle("GET /api/v1/sessions", chain(http.HandlerFunc(h.ListSessions)))
	mux.Handle("GET /api/v1/apps/{app}/changes", chain(http.HandlerFunc(h.ListChanges)))
}
