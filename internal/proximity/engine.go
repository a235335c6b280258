// Package proximity assigns each user one same-campus partner and measures how close they are.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/completion"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/metrics"
)

// Decision sources recorded in a Trail.
const (
	SourceExisting  = "existing"
	SourceOpenAI    = "openai"
	SourceHeuristic = "heuristic"
)

// Reasons attached when no partner is returned or the completer was skipped.
const (
	ReasonNoUserCampus  = "no_user_campus"
	ReasonNoCandidates  = "no_candidates"
	ReasonMissingAPIKey = "missing_api_key"
)

type Profiles interface {
	GetUser(ctx context.Context, id uint64) (*db.User, error)
	ListSameCampus(ctx context.Context, campus string, excludeID uint64) ([]db.User, error)
}

type Campuses interface {
	GetByNameOrCode(ctx context.Context, nameOrCode string) (*db.Campus, error)
}

type Assignments interface {
	Get(ctx context.Context, userID uint64) (*db.ProximityAssignment, error)
	Upsert(ctx context.Context, userID, partnerID uint64, at time.Time) error
	Delete(ctx context.Context, userID uint64) error
}

// Trail explains how a partner was resolved. It is diagnostic only.
type Trail struct {
	Source          string `json:"source,omitempty"`
	Reason          string `json:"reason,omitempty"`
	PartnerID       uint64 `json:"partner_id,omitempty"`
	Candidates      int    `json:"candidates"`
	RawResponse     string `json:"raw_response,omitempty"`
	ChosenIndex     int    `json:"chosen_index,omitempty"`
	CompletionError string `json:"completion_error,omitempty"`
	HeuristicScore  *int   `json:"heuristic_score,omitempty"`
	StaleRemoved    bool   `json:"stale_removed,omitempty"`
}

type Engine struct {
	profiles    Profiles
	campuses    Campuses
	assignments Assignments
	completer   completion.Completer
	clock       clock.Clock
	cfg         config.ProximityConfig
	logger      *slog.Logger
}

// New wires the engine. completer may be nil, every pick is then heuristic.
func New(
	profiles Profiles,
	campuses Campuses,
	assignments Assignments,
	completer completion.Completer,
	clk clock.Clock,
	cfg config.ProximityConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		profiles:    profiles,
		campuses:    campuses,
		assignments: assignments,
		completer:   completer,
		clock:       clk,
		cfg:         cfg,
		logger:      logger,
	}
}

// GetOrAssign returns the user's partner, assigning one when needed.
//
// Behavior:
//   - An existing assignment to an eligible partner is returned unchanged.
//   - An assignment to a missing, ineligible or self partner is deleted.
//   - Users without a campus, or alone on it, get nil and a Trail.Reason.
//   - Otherwise one same-campus user is picked and stored with the current time.
func (e *Engine) GetOrAssign(ctx context.Context, user *db.User) (*db.User, *Trail, error) {
	trail := &Trail{}

	existing, err := e.assignments.Get(ctx, user.ID)
	if err != nil {
		return nil, trail, fmt.Errorf("failed to load assignment: %w", err)
	}
	if existing != nil {
		partner, err := e.loadPartner(ctx, user.ID, existing.PartnerID)
		if err != nil {
			return nil, trail, err
		}
		if partner != nil {
			trail.Source = SourceExisting
			trail.PartnerID = partner.ID
			metrics.ProximityPicksTotal.WithLabelValues(SourceExisting).Inc()
			return partner, trail, nil
		}
		if err := e.assignments.Delete(ctx, user.ID); err != nil {
			return nil, trail, fmt.Errorf("failed to drop stale assignment: %w", err)
		}
		trail.StaleRemoved = true
	}

	if user.Campus == "" {
		trail.Reason = ReasonNoUserCampus
		metrics.ProximityPicksTotal.WithLabelValues("none").Inc()
		return nil, trail, nil
	}

	candidates, err := e.profiles.ListSameCampus(ctx, user.Campus, user.ID)
	if err != nil {
		return nil, trail, fmt.Errorf("failed to list campus candidates: %w", err)
	}
	trail.Candidates = len(candidates)
	if len(candidates) == 0 {
		trail.Reason = ReasonNoCandidates
		metrics.ProximityPicksTotal.WithLabelValues("none").Inc()
		return nil, trail, nil
	}

	picked := e.pickBest(ctx, user, candidates, trail)
	if err := e.assignments.Upsert(ctx, user.ID, picked.ID, e.clock.Now()); err != nil {
		return nil, trail, fmt.Errorf("failed to store assignment: %w", err)
	}
	trail.PartnerID = picked.ID
	metrics.ProximityPicksTotal.WithLabelValues(trail.Source).Inc()
	e.logger.Debug("proximity partner assigned", "user", user.ID, "partner", picked.ID, "trail", trail)

	return picked, trail, nil
}

// Partner returns the currently assigned partner without assigning one.
// nil means none or the assignment is stale.
func (e *Engine) Partner(ctx context.Context, userID uint64) (*db.User, error) {
	existing, err := e.assignments.Get(ctx, userID)
	if err != nil || existing == nil {
		return nil, err
	}
	return e.loadPartner(ctx, userID, existing.PartnerID)
}

// Reset deletes the user's assignment unconditionally.
func (e *Engine) Reset(ctx context.Context, userID uint64) error {
	return e.assignments.Delete(ctx, userID)
}

func (e *Engine) loadPartner(ctx context.Context, userID, partnerID uint64) (*db.User, error) {
	if partnerID == userID {
		return nil, nil
	}
	partner, err := e.profiles.GetUser(ctx, partnerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load partner %d: %w", partnerID, err)
	}
	if !partner.Eligible() {
		return nil, nil
	}
	return partner, nil
}
