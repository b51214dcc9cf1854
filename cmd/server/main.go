package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paradoks/streeplijst-backend/internal/api"
	"github.com/paradoks/streeplijst-backend/internal/api/ws"
	"github.com/paradoks/streeplijst-backend/internal/congressus"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
	"github.com/paradoks/streeplijst-backend/internal/core/service"
	"github.com/paradoks/streeplijst-backend/internal/infrastructure/config"
	mongodb "github.com/paradoks/streeplijst-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/paradoks/streeplijst-backend/internal/infrastructure/db/redis"
	"github.com/paradoks/streeplijst-backend/internal/infrastructure/nfc"
	"github.com/paradoks/streeplijst-backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; fall back to stderr.
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Msg("starting streeplijst backend")

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb unavailable")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	associations := mongodb.NewAssociationRepository(db)
	if err := associations.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create mongodb indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer rdb.Close()

	// --- Upstream facades ---
	memberCache := redisdb.NewMemberIDCache(rdb, log)
	token := func() string { return cfg.CongressusToken }
	facadeCfg := congressus.FacadeConfig{Token: token, Cache: memberCache}

	facades := []ports.UpstreamFacade{
		congressus.NewFacadeV20(facadeCfg, log),
		congressus.NewFacadeV30(facadeCfg, log),
	}

	// --- Card presence ---
	presence := service.NewPresenceTracker(log)
	if cfg.NFCEnabled {
		watcher := service.NewCardWatcher(nfc.NewMonitor(log), presence, log)
		go watcher.Run(ctx)
	} else {
		log.Warn().Msg("card reader disabled, presence endpoints will report no card")
	}

	hub := ws.NewHub(log)
	presenceUpdates, unsubscribe := presence.Subscribe()
	defer unsubscribe()
	go hub.Watch(ctx, presenceUpdates)

	// --- HTTP surface ---
	e := api.NewRouter(api.RouterDeps{
		Facades:      facades,
		Associations: associations,
		Presence:     presence,
		Hub:          hub,
		Mongo:        db,
		Redis:        rdb,
		Log:          log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("http server listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("stopped")
}
