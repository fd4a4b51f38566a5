package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"shinetwoplay/internal/errkind"
	"shinetwoplay/internal/store"

	"github.com/rs/zerolog/log"
)

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func WriteHTTPError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

// WriteError maps a classified error onto its HTTP status. Unclassified
// errors are logged and reported as SERVER_ERROR.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errkind.Of(err)
	if kind == errkind.Infrastructure {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request_failed")
		metricRequestErrors.Add(1)
		WriteHTTPError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return
	}
	WriteHTTPError(w, statusFor(err, kind), errkind.Code(err, "SERVER_ERROR"), errkind.Message(err))
}

func statusFor(err error, kind errkind.Kind) int {
	if errors.Is(err, store.ErrPlayerKicked) {
		return http.StatusForbidden
	}
	switch kind {
	case errkind.NotFound:
		return http.StatusNotFound
	case errkind.Capacity, errkind.Authorization:
		return http.StatusForbidden
	case errkind.RateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
