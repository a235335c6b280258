// Package matchmaker ranks candidates by a weighted compatibility score.
package matchmaker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

// ErrProfileIncomplete rejects requesters who cannot be matched yet.
var ErrProfileIncomplete = svcErr.ErrProfileIncomplete

type Profiles interface {
	ListEligibleCandidates(ctx context.Context, filter repository.CandidateFilter, exclude []uint64, limit int) ([]db.User, error)
	FollowingIDs(ctx context.Context, userID uint64) ([]uint64, error)
	BlockedIDs(ctx context.Context, userID uint64) ([]uint64, error)
	BlockedByIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type Swipes interface {
	SwipedTargetIDs(ctx context.Context, actorID uint64) ([]uint64, error)
}

// Candidate is a scored entry of a browse page.
type Candidate struct {
	User       db.User
	Score      int
	SharedTags []string
}

type Page struct {
	pagination.Page
	Items []Candidate
}

type Matchmaker struct {
	profiles Profiles
	swipes   Swipes
	cfg      config.MatchmakingConfig
	weights  Weights
	logger   *slog.Logger
}

func New(profiles Profiles, swipes Swipes, cfg config.MatchmakingConfig, logger *slog.Logger) *Matchmaker {
	return &Matchmaker{
		profiles: profiles,
		swipes:   swipes,
		cfg:      cfg,
		weights:  WeightsFrom(cfg),
		logger:   logger,
	}
}

// Page returns one page of candidates for me, best score first.
//
// Behavior:
//   - Excludes me, users I follow, users I blocked or who blocked me, users I already swiped.
//   - Fetches at most CandidateLimit rows, same campus then same program first.
//   - Sorts by score descending, ties keep fetch order.
//   - page is clamped into [1, last page].
func (m *Matchmaker) Page(ctx context.Context, me *db.User, page int) (*Page, error) {
	if !me.Eligible() {
		return nil, ErrProfileIncomplete
	}

	exclude, err := m.excludedIDs(ctx, me.ID)
	if err != nil {
		return nil, err
	}

	pool, err := m.profiles.ListEligibleCandidates(ctx, repository.CandidateFilter{
		Gender:        me.GenderFilter(),
		PreferCampus:  me.Campus,
		PreferProgram: me.AcademicProgram,
	}, exclude, m.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	metrics.FeedCandidates.WithLabelValues("browse").Observe(float64(len(pool)))

	s := newScorer(me, m.weights)
	scored := make([]Candidate, 0, len(pool))
	for _, u := range pool {
		score, shared := s.score(&u)
		if score < m.cfg.MinScore {
			continue
		}
		scored = append(scored, Candidate{User: u, Score: score, SharedTags: shared})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	meta, from, to := pagination.Window(len(scored), m.cfg.PageSize, page)
	metrics.FeedPagesTotal.WithLabelValues("browse").Inc()
	m.logger.Debug("browse page", "user", me.ID, "pool", len(pool), "ranked", len(scored), "page", meta.CurrentPage)

	return &Page{Page: meta, Items: scored[from:to]}, nil
}

func (m *Matchmaker) excludedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	exclude := []uint64{userID}
	for name, load := range map[string]func(context.Context, uint64) ([]uint64, error){
		"following":  m.profiles.FollowingIDs,
		"blocked":    m.profiles.BlockedIDs,
		"blocked-by": m.profiles.BlockedByIDs,
		"swiped":     m.swipes.SwipedTargetIDs,
	} {
		ids, err := load(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s ids: %w", name, err)
		}
		exclude = append(exclude, ids...)
	}
	return exclude, nil
}
