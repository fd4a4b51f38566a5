package httptransport

import (
	"encoding/json"
	"net/http"

	"shinetwoplay/internal/app/rooms"
	"shinetwoplay/internal/errkind"
	"shinetwoplay/internal/store"

	"github.com/go-chi/chi/v5"
)

var errInvalidJSON = errkind.New(errkind.Validation, "INVALID_JSON", "request body must be JSON")

type RoomHandlers struct {
	svc *rooms.Service
}

func NewRoomHandlers(svc *rooms.Service) *RoomHandlers {
	return &RoomHandlers{svc: svc}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

func (h *RoomHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rooms.CreateRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		resp, err := h.svc.Create(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		metricRoomsCreated.Add(1)
		WriteOK(w, http.StatusCreated, "Room created successfully", resp)
	}
}

func (h *RoomHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rooms.JoinRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		metricJoinChecks.Add(1)
		resp, err := h.svc.Join(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		msg := "Joined room successfully"
		if resp.IsReconnecting {
			msg = "Reconnecting to room"
		}
		WriteOK(w, http.StatusOK, msg, resp)
	}
}

func (h *RoomHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteOK(w, http.StatusOK, "", resp)
	}
}

func (h *RoomHandlers) Messages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r, 50, store.MaxMessages)
		resp, err := h.svc.Messages(r.Context(), chi.URLParam(r, "code"), limit)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteOK(w, http.StatusOK, "", resp)
	}
}
