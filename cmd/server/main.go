package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/completion"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/server"
	"github.com/oggyb/campus-match/internal/service/campus"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	log := logger.InitFromConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Client.Close()

	appCtx := app.New(cfg, database, redisCache, log)
	appCtx.Publisher = events.NewRedisPublisher(redisCache.Client, appCtx.Clock, log)
	appCtx.Completer = completion.NewFromConfig(cfg.OpenAI, log)
	if appCtx.Completer == nil {
		log.Warn("no completion API key configured, proximity picks use the heuristic only")
	}

	if cfg.Metrics.Enabled {
		router := server.NewHTTPRouter(map[string]server.Check{
			"db":    server.DBCheck(database),
			"redis": redisCache.Ping,
		})
		go func() {
			if err := server.StartHTTPServer(ctx, cfg.Metrics.Addr, router, log); err != nil {
				log.Error("metrics server stopped", "err", err)
			}
		}()
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedDemoData(database, rand.New(rand.NewSource(cfg.Discovery.Seed)), log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registrars := []server.Registrar{
		campus.NewRegistrar(appCtx),
	}

	if err := server.StartGRPCServer(ctx, cfg, log, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
