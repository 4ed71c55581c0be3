package api

import (
	"net/http"
	"strconv"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/repo"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListSessions возвращает аудит working copies.
// GET /api/v1/sessions?app=...&status=...&limit=...&offset=...
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		Unavailable(w, "session audit is disabled")
		return
	}

	q := r.URL.Query()
	filter := repo.SessionFilter{AppID: q.Get("app")}

	if s := q.Get("status"); s != "" {
		status, ok := domain.ParseSessionStatus(s)
		if !ok {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	limit, ok := parseLimit(q.Get("limit"))
	if !ok {
		BadRequest(w, "invalid limit")
		return
	}
	filter.Limit = limit

	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			BadRequest(w, "invalid offset")
			return
		}
		filter.Offset = offset
	}

	sessions, err := h.sessions.List(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		result[i] = SessionFromDomain(s)
	}
	List(w, result, len(result))
}

// ListChanges возвращает журнал изменений приложения.
// GET /api/v1/apps/{app}/changes?limit=...
func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	if h.changes == nil {
		Unavailable(w, "change journal is disabled")
		return
	}

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		BadRequest(w, "invalid limit")
		return
	}

	changes, err := h.changes.ListByApp(r.Context(), r.PathValue("app"), limit)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]ChangeResponse, len(changes))
	for i, c := range changes {
		result[i] = ChangeFromDomain(c)
	}
	List(w, result, len(result))
}

func parseLimit(s string) (int, bool) {
	if s == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit <= 0 {
		return 0, false
	}
	return min(limit, maxListLimit), true
}
