// Package discovery serves the unscored, randomly ordered feed.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/utils/random"
)

type Profiles interface {
	ListPool(ctx context.Context, filter repository.CandidateFilter, exclude []uint64) ([]repository.PoolEntry, error)
	LoadByIDs(ctx context.Context, ids []uint64) ([]db.User, error)
	BlockedIDs(ctx context.Context, userID uint64) ([]uint64, error)
	BlockedByIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

// Query holds the optional feed filters.
type Query struct {
	Page    int
	Boost   bool
	Campus  string
	Program string
	Year    string
}

type Page struct {
	Total       int
	CurrentPage int
	PerPage     int
	Items       []db.User
}

type Feed struct {
	profiles Profiles
	rand     random.Source
	clock    clock.Clock
	cfg      config.DiscoveryConfig
	logger   *slog.Logger
}

func New(profiles Profiles, rnd random.Source, clk clock.Clock, cfg config.DiscoveryConfig, logger *slog.Logger) *Feed {
	return &Feed{profiles: profiles, rand: rnd, clock: clk, cfg: cfg, logger: logger}
}

// Page returns a random sample of the pool.
//
// Behavior:
//   - Only self and block edges in either direction are excluded; follows and swipes are not.
//   - Total is the filtered pool size, every call draws a fresh random order.
//   - With q.Boost, users whose boost has not expired come first.
//   - The requested page number is echoed, it does not select a slice of a stable order.
func (f *Feed) Page(ctx context.Context, me *db.User, q Query) (*Page, error) {
	if !me.Eligible() {
		return nil, svcErr.ErrProfileIncomplete
	}

	exclude := []uint64{me.ID}
	blocked, err := f.profiles.BlockedIDs(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocked ids: %w", err)
	}
	blockedBy, err := f.profiles.BlockedByIDs(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocked-by ids: %w", err)
	}
	exclude = append(append(exclude, blocked...), blockedBy...)

	pool, err := f.profiles.ListPool(ctx, repository.CandidateFilter{
		Gender:          me.GenderFilter(),
		CampusContains:  q.Campus,
		ProgramContains: q.Program,
		YearContains:    q.Year,
	}, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool: %w", err)
	}
	metrics.FeedCandidates.WithLabelValues("discover").Observe(float64(len(pool)))

	ids := f.order(pool, q.Boost)
	if len(ids) > f.cfg.PageSize {
		ids = ids[:f.cfg.PageSize]
	}
	users, err := f.profiles.LoadByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	metrics.FeedPagesTotal.WithLabelValues("discover").Inc()
	f.logger.Debug("discover page", "user", me.ID, "pool", len(pool), "returned", len(users), "boost", q.Boost)

	return &Page{
		Total:       len(pool),
		CurrentPage: max(q.Page, 1),
		PerPage:     f.cfg.PageSize,
		Items:       users,
	}, nil
}

// order shuffles the pool, then moves boosted entries to the front keeping both groups random.
func (f *Feed) order(pool []repository.PoolEntry, boost bool) []uint64 {
	f.rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	ids := make([]uint64, 0, len(pool))
	if !boost {
		for _, p := range pool {
			ids = append(ids, p.ID)
		}
		return ids
	}

	now := f.clock.Now()
	var rest []uint64
	for _, p := range pool {
		if p.BoostExpiresAt != nil && p.BoostExpiresAt.After(now) {
			ids = append(ids, p.ID)
		} else {
			rest = append(rest, p.ID)
		}
	}
	return append(ids, rest...)
}
