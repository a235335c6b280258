package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/completion"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/utils/random"
)

// AppContext holds shared dependencies for the services.
type AppContext struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     cache.Cache
	Logger    *slog.Logger
	Clock     clock.Clock
	Rand      random.Source
	Publisher events.Publisher
	// Completer is nil when no provider key is configured.
	Completer completion.Completer
}

// New creates a new AppContext with the real clock and a seeded random source.
// Publisher defaults to an in-memory recorder and Completer to nil until set.
func New(cfg *config.Config, db *gorm.DB, c cache.Cache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:    cfg,
		DB:        db,
		Cache:     c,
		Logger:    logger,
		Clock:     clock.Real{},
		Rand:      random.New(cfg.Discovery.Seed),
		Publisher: &events.Recorder{},
	}
}
