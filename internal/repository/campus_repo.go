package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/db"
)

// CampusRepository resolves a user's campus string to its campus row.
// Lookups are read-through cached because every proximity computation needs one.
type CampusRepository struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCampusRepository wires the repository. A nil cache or zero ttl disables caching.
func NewCampusRepository(database *gorm.DB, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CampusRepository {
	return &CampusRepository{db: database, cache: c, ttl: ttl, logger: logger}
}

// GetByNameOrCode finds a campus whose name or code equals the trimmed input.
// Returns (nil, nil) for a blank input or an unknown campus.
func (r *CampusRepository) GetByNameOrCode(ctx context.Context, nameOrCode string) (*db.Campus, error) {
	nameOrCode = strings.TrimSpace(nameOrCode)
	if nameOrCode == "" {
		return nil, nil
	}

	key := cache.KeyForCampus(nameOrCode)
	if campus, ok := r.fromCache(ctx, key); ok {
		return campus, nil
	}

	var rows []db.Campus
	err := r.db.WithContext(ctx).
		Where("name = ? OR code = ?", nameOrCode, nameOrCode).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	campus := &rows[0]
	r.toCache(ctx, key, campus)
	return campus, nil
}

func (r *CampusRepository) fromCache(ctx context.Context, key string) (*db.Campus, bool) {
	if r.cache == nil || r.ttl <= 0 {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.logger.Warn("campus cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	var campus db.Campus
	if err := json.Unmarshal([]byte(raw), &campus); err != nil {
		r.logger.Warn("campus cache entry malformed", "key", key, "err", err)
		return nil, false
	}
	return &campus, true
}

func (r *CampusRepository) toCache(ctx context.Context, key string, campus *db.Campus) {
	if r.cache == nil || r.ttl <= 0 {
		return
	}
	b, err := json.Marshal(campus)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, string(b), r.ttl); err != nil {
		r.logger.Warn("campus cache write failed", "key", key, "err", err)
	}
}
