package httptransport

import (
	"net/http"
	"time"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/store"
)

type AdminHandlers struct {
	store    *store.Store
	activity *activity.Recorder
}

func NewAdminHandlers(st *store.Store, rec *activity.Recorder) *AdminHandlers {
	return &AdminHandlers{store: st, activity: rec}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "redis": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "redis": "up"})
	}
}

func (h *AdminHandlers) Activity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r, 50, activity.MaxEvents)
		items, err := h.activity.Recent(r.Context(), limit)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteOK(w, http.StatusOK, "", map[string]any{"items": items, "limit": limit})
	}
}

func (h *AdminHandlers) ActivityCounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := time.Now().UTC()
		if v := r.URL.Query().Get("date"); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
				return
			}
			day = t
		}
		counts, err := h.activity.Counts(r.Context(), day)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteOK(w, http.StatusOK, "", map[string]any{"date": day.Format(time.DateOnly), "counts": counts})
	}
}
