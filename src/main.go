package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"spendwise-server/src/api"
	"spendwise-server/src/config"
	"spendwise-server/src/db"
	"spendwise-server/src/events"
	"spendwise-server/src/gateway"
	"spendwise-server/src/gateway/inmemory"
	"spendwise-server/src/logger"
	"spendwise-server/src/views"
)

func main() {
	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := cfg.RequireSecret(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	gw, cleanup, err := openGateway(ctx, cfg, bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data store")
	}
	defer cleanup()

	reg := views.NewRegistry(gw, bus, log)
	defer reg.Close()
	go reg.Janitor(ctx, time.Minute, cfg.ViewIdleTimeout)

	router := api.NewRouter(gw, reg, log, api.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		DemoMode:       cfg.DemoMode,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Bool("demo", cfg.DemoMode).Msg("API server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// openGateway connects the configured store. For Postgres it also applies
// migrations and hooks the listing cache to the event bus.
func openGateway(ctx context.Context, cfg config.Config, bus *events.Bus, log zerolog.Logger) (gateway.Gateway, func(), error) {
	if cfg.InMemory() {
		log.Warn().Msg("Using in-memory store; data is lost on restart")
		store := inmemory.NewStore()
		if cfg.MemorySeedUser != "" {
			store.Seed(cfg.MemorySeedUser)
			log.Info().Str("user_id", cfg.MemorySeedUser).Msg("Seeded in-memory store")
		}
		return store, func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, nil, err
	}
	cache, err := db.NewCache(cfg.CacheMaxCost)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	pg := gateway.NewPostgres(pool, cache)
	unlisten := pg.Listen(bus)
	log.Info().Msg("Connected to database")

	return pg, func() {
		unlisten()
		cache.Close()
		pool.Close()
	}, nil
}
