package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
)

func main() {
	// Load configuration
	cfg := config.New()
	cfg.Log.Component = "seed"
	log := logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	seed := cfg.Discovery.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := db.SeedDemoData(database, rand.New(rand.NewSource(seed)), log); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed", "password", db.DemoPassword)
}
