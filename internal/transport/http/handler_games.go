package httptransport

import (
	"net/http"

	"shinetwoplay/internal/game"

	"github.com/go-chi/chi/v5"
)

type gameListing struct {
	game.CatalogEntry
	// ServerSide is false for games started by redirect.
	ServerSide bool `json:"server_side"`
}

type GameHandlers struct {
	registry *game.Registry
}

func NewGameHandlers(registry *game.Registry) *GameHandlers {
	return &GameHandlers{registry: registry}
}

func (h *GameHandlers) listing(e game.CatalogEntry) gameListing {
	_, ok := h.registry.Get(e.GameID)
	return gameListing{CatalogEntry: e, ServerSide: ok}
}

func (h *GameHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		entries := game.Catalog()
		out := make([]gameListing, 0, len(entries))
		for _, e := range entries {
			out = append(out, h.listing(e))
		}
		WriteOK(w, http.StatusOK, "", out)
	}
}

func (h *GameHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := game.LookupCatalog(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, r, game.ErrGameNotFound)
			return
		}
		WriteOK(w, http.StatusOK, "", h.listing(e))
	}
}
