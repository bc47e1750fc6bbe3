package main

import (
	"context"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/cache"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/logger"
	"github.com/kindling-app/kindling/internal/server"
	"github.com/kindling-app/kindling/internal/service/discovery"
	"github.com/kindling-app/kindling/internal/service/matching"
	"github.com/kindling-app/kindling/internal/service/quota"
	"github.com/kindling-app/kindling/internal/service/relationship"
	"github.com/kindling-app/kindling/internal/service/undo"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	quotaSvc := quota.NewService(appCtx)
	undoSvc := undo.NewService(appCtx)
	matchingSvc := matching.NewService(appCtx, quotaSvc, undoSvc)
	relationshipSvc := relationship.NewService(appCtx)
	discoverySvc := discovery.NewService(appCtx)

	registrars := []server.Registrar{
		matching.NewRegistrar(matchingSvc),
		undo.NewRegistrar(undoSvc),
		relationship.NewRegistrar(relationshipSvc),
		discovery.NewRegistrar(discoverySvc),
		quota.NewRegistrar(quotaSvc),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// Background sweep of expired undo slots.
	sweepCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	undoSvc.StartSweeper(sweepCtx)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
