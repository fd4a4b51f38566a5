package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/config"
	"shinetwoplay/internal/game"
	"shinetwoplay/internal/logging"
	"shinetwoplay/internal/store"
	httptransport "shinetwoplay/internal/transport/http"
	"shinetwoplay/internal/ws"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional outside development
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	closeLog := logging.Init(cfg.Log)
	defer func() { _ = closeLog() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.Redis, store.Options{RoomTTL: cfg.Room.TTL, GracePeriod: cfg.Room.GracePeriod})
	defer func() { _ = st.Close() }()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed")
	}

	registry := game.DefaultRegistry()
	engine := game.NewEngine(st, registry)

	hub := ws.NewHub()
	switch cfg.Server.BroadcastBus {
	case "redis":
		bus := ws.NewRedisBus(st.Client(), hub)
		hub.UseBus(bus)
		<-bus.Run(ctx)
		log.Info().Msg("broadcasts fan out through redis pub/sub")
	case "", "local":
	default:
		log.Fatal().Str("bus", cfg.Server.BroadcastBus).Msg("unknown broadcast bus")
	}

	rec := activity.NewRecorder(st.Client(), cfg.Room.ActivityBuffer)
	rec.Start(ctx)

	wsSrv := ws.NewServer(st, engine, hub, rec, ws.ConfigFrom(cfg))
	wsSrv.Start(ctx)

	r := httptransport.NewRouter(httptransport.Deps{
		Store:    st,
		Registry: registry,
		WS:       wsSrv,
		Activity: rec,
	}, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	select {
	case <-rec.Done():
	case <-shutdownCtx.Done():
	}
}
