package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/app/rooms"
	"shinetwoplay/internal/config"
	"shinetwoplay/internal/game"
	"shinetwoplay/internal/store"
	"shinetwoplay/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Store    *store.Store
	Registry *game.Registry
	WS       *ws.Server
	Activity *activity.Recorder
}

func NewRouter(d Deps, cfg config.ServerConfig) *chi.Mux {
	roomHandlers := NewRoomHandlers(rooms.NewService(d.Store, d.Activity))
	gameHandlers := NewGameHandlers(d.Registry)
	adminHandlers := NewAdminHandlers(d.Store, d.Activity)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(BodyCaptureMiddleware(4096))

		r.Post("/rooms/create", roomHandlers.Create())
		r.Post("/rooms/join", roomHandlers.Join())
		r.Get("/rooms/{code}", roomHandlers.Get())
		r.Get("/rooms/{code}/messages", roomHandlers.Messages())

		r.Get("/games", gameHandlers.List())
		r.Get("/games/{id}", gameHandlers.Get())

		r.Get("/activity", adminHandlers.Activity())
		r.Get("/activity/counts", adminHandlers.ActivityCounts())
	})

	r.Get("/ws/room/{code}", d.WS.HandleWS)

	if cfg.MediaRoot != "" && cfg.MediaURLPrefix != "" {
		prefix := "/" + strings.Trim(cfg.MediaURLPrefix, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.MediaRoot))))
	}

	staticDir := filepath.Join("web", "static")
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	} else {
		log.Warn().Str("path", staticDir).Msg("static directory not found; skipping catch-all static route")
	}
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
