// Package ledger records swipe intents and derives canonical mutual matches from them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

var (
	ErrSelfTarget     = svcErr.Reject("self_target", "cannot swipe on yourself")
	ErrUnknownIntent  = svcErr.Reject("unknown_intent", "intent must be one of dating, friend, study_buddy, ignored")
	ErrTargetNotFound = svcErr.Reject("target_not_found", "target user does not exist")
	ErrActorNotFound  = svcErr.Reject("actor_not_found", "actor user does not exist")
)

// LikerCountTTL is how long a cached liker count lives without activity.
const LikerCountTTL = time.Hour

// ListPageSize bounds one page of the mutual-match and my-likes lists.
const ListPageSize = 20

type SwipeStore interface {
	UpsertIntent(ctx context.Context, actorID, targetID uint64, intent string, at time.Time) error
	HasLiked(ctx context.Context, actorID, targetID uint64) (bool, error)
	GetLikers(ctx context.Context, targetID uint64, token *string, limit int) ([]db.SwipeIntent, *string, error)
	GetNewLikers(ctx context.Context, targetID uint64, token *string, limit int) ([]db.SwipeIntent, *string, error)
	CountLikers(ctx context.Context, targetID uint64) (int64, error)
	ListLikesBy(ctx context.Context, actorID uint64, intents []string, offset, limit int) ([]db.SwipeIntent, error)
	CountLikesBy(ctx context.Context, actorID uint64, intents []string) (int64, error)
	LikersAmong(ctx context.Context, targetID uint64, actorIDs []uint64) ([]uint64, error)
}

type MatchStore interface {
	Create(ctx context.Context, a, b uint64, intent string, at time.Time) (bool, error)
	Exists(ctx context.Context, a, b uint64) (bool, error)
	CounterpartIDs(ctx context.Context, userID uint64) ([]uint64, error)
	ListFor(ctx context.Context, userID uint64, intent string, offset, limit int) ([]db.Match, error)
	CountFor(ctx context.Context, userID uint64, intent string) (int64, error)
}

type ProfileReader interface {
	GetUser(ctx context.Context, id uint64) (*db.User, error)
	LoadByIDs(ctx context.Context, ids []uint64) ([]db.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) (*db.Notification, error)
}

// Summary is the public view of the other side of a match.
type Summary struct {
	ID              uint64 `json:"id"`
	DisplayName     string `json:"display_name"`
	Campus          string `json:"campus"`
	AcademicProgram string `json:"academic_program"`
	YearLevel       string `json:"year_level"`
}

// SummaryOf builds the public summary of u.
func SummaryOf(u *db.User) *Summary {
	return &Summary{
		ID:              u.ID,
		DisplayName:     u.DisplayName,
		Campus:          u.Campus,
		AcademicProgram: u.AcademicProgram,
		YearLevel:       u.YearLevel,
	}
}

// Result is returned to the swiping user.
type Result struct {
	Matched bool     `json:"matched"`
	Intent  string   `json:"intent"`
	Other   *Summary `json:"other_user,omitempty"`
}

// Liker is one entry of a "liked you" list.
type Liker struct {
	ActorID   uint64
	Intent    string
	UpdatedAt time.Time
}

// MutualMatch is one entry of the mutual-match list.
type MutualMatch struct {
	User      db.User
	Intent    string
	MatchedAt time.Time
}

type MatchPage struct {
	pagination.Page
	Items []MutualMatch
}

// LikedUser is one entry of the user's own likes.
type LikedUser struct {
	User    db.User
	Intent  string
	LikedAt time.Time
	// Matched is true while the other user likes back.
	Matched bool
}

type LikesPage struct {
	pagination.Page
	Items []LikedUser
}

type Ledger struct {
	swipes   SwipeStore
	matches  MatchStore
	profiles ProfileReader
	notifier Notifier
	cache    cache.Cache
	clock    clock.Clock
	logger   *slog.Logger
}

func New(
	swipes SwipeStore,
	matches MatchStore,
	profiles ProfileReader,
	notifier Notifier,
	c cache.Cache,
	clk clock.Clock,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		swipes:   swipes,
		matches:  matches,
		profiles: profiles,
		notifier: notifier,
		cache:    c,
		clock:    clk,
		logger:   logger,
	}
}

// RecordIntent upserts actor's intent toward target and derives the mutual match when the
// target already likes the actor back.
//
// Behavior:
//   - actor == target, unknown intents, unknown users and actors who are not matchable
//     (incomplete or disabled profile) are rejected before any write.
//   - The swipe row is overwritten, never duplicated.
//   - A like without reciprocity notifies the target with match_<intent>.
//   - A like completing the pair creates the canonical match (idempotent) and notifies the
//     target with mutual_match.
func (l *Ledger) RecordIntent(ctx context.Context, actorID, targetID uint64, intent string) (*Result, error) {
	if actorID == targetID {
		return nil, ErrSelfTarget
	}
	if !db.IsKnownIntent(intent) {
		return nil, ErrUnknownIntent
	}
	actor, err := l.profiles.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActorNotFound
		}
		return nil, fmt.Errorf("failed to load actor %d: %w", actorID, err)
	}
	if !actor.Eligible() {
		return nil, svcErr.ErrProfileIncomplete
	}
	target, err := l.profiles.GetUser(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to load target %d: %w", targetID, err)
	}

	now := l.clock.Now()
	if err := l.swipes.UpsertIntent(ctx, actorID, targetID, intent, now); err != nil {
		return nil, fmt.Errorf("failed to record intent: %w", err)
	}
	metrics.SwipesTotal.WithLabelValues(intent).Inc()
	// the target gains or loses a liker, an ignore also hides the target from the actor's list
	l.invalidateLikerCount(ctx, targetID)
	l.invalidateLikerCount(ctx, actorID)

	result := &Result{Intent: intent}
	if !db.IsLikeIntent(intent) {
		return result, nil
	}

	reciprocated, err := l.swipes.HasLiked(ctx, targetID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reciprocity: %w", err)
	}
	if !reciprocated {
		l.notify(ctx, notify.Notification{
			Recipient: targetID,
			From:      actorID,
			Type:      notify.TypeForIntent(intent),
			Data:      map[string]any{"intent": intent},
		})
		return result, nil
	}

	created, err := l.matches.Create(ctx, actorID, targetID, intent, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record match: %w", err)
	}
	if created {
		metrics.MutualMatchesTotal.Inc()
	}
	l.logger.Debug("mutual match", "actor", actorID, "target", targetID, "intent", intent, "created", created)

	l.notify(ctx, notify.Notification{
		Recipient: targetID,
		From:      actorID,
		Type:      notify.TypeMutualMatch,
		Data:      map[string]any{"intent": intent},
	})

	result.Matched = true
	result.Other = SummaryOf(target)
	return result, nil
}

// AreMatched reports whether a canonical match row exists for {a, b}.
func (l *Ledger) AreMatched(ctx context.Context, a, b uint64) (bool, error) {
	return l.matches.Exists(ctx, a, b)
}

// MutualMatchIDs returns the users userID is matched with.
func (l *Ledger) MutualMatchIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	return l.matches.CounterpartIDs(ctx, userID)
}

// ListMutualMatches pages through userID's matches, newest first. A non-empty intent keeps
// only matches completed with that intent. Matches whose other user no longer exists are
// counted but not returned.
func (l *Ledger) ListMutualMatches(ctx context.Context, userID uint64, intent string, page int) (*MatchPage, error) {
	if intent != "" && !db.IsLikeIntent(intent) {
		return nil, ErrUnknownIntent
	}
	total, err := l.matches.CountFor(ctx, userID, intent)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	meta, from, to := pagination.Window(int(total), ListPageSize, page)
	out := &MatchPage{Page: meta, Items: []MutualMatch{}}
	if from == to {
		return out, nil
	}

	rows, err := l.matches.ListFor(ctx, userID, intent, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	ids := make([]uint64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].Counterpart(userID))
	}
	users, err := l.loadByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		u, ok := users[rows[i].Counterpart(userID)]
		if !ok {
			continue
		}
		out.Items = append(out.Items, MutualMatch{User: u, Intent: rows[i].Intent, MatchedAt: rows[i].CreatedAt})
	}
	return out, nil
}

// ListMyLikes pages through the users userID liked, newest first, flagging the ones who
// like back. A non-empty intent keeps only that like intent.
func (l *Ledger) ListMyLikes(ctx context.Context, userID uint64, intent string, page int) (*LikesPage, error) {
	var intents []string
	if intent != "" {
		if !db.IsLikeIntent(intent) {
			return nil, ErrUnknownIntent
		}
		intents = []string{intent}
	}
	total, err := l.swipes.CountLikesBy(ctx, userID, intents)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	meta, from, to := pagination.Window(int(total), ListPageSize, page)
	out := &LikesPage{Page: meta, Items: []LikedUser{}}
	if from == to {
		return out, nil
	}

	rows, err := l.swipes.ListLikesBy(ctx, userID, intents, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TargetID)
	}
	users, err := l.loadByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	back, err := l.swipes.LikersAmong(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check likes back: %w", err)
	}
	likesBack := make(map[uint64]struct{}, len(back))
	for _, id := range back {
		likesBack[id] = struct{}{}
	}

	for _, r := range rows {
		u, ok := users[r.TargetID]
		if !ok {
			continue
		}
		_, matched := likesBack[r.TargetID]
		out.Items = append(out.Items, LikedUser{User: u, Intent: r.Intent, LikedAt: r.UpdatedAt, Matched: matched})
	}
	return out, nil
}

func (l *Ledger) loadByID(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	users, err := l.profiles.LoadByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	byID := make(map[uint64]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// ListLikedYou pages through everyone who liked userID, minus users userID ignored.
func (l *Ledger) ListLikedYou(ctx context.Context, userID uint64, token *string, limit int) ([]Liker, *string, error) {
	swipes, next, err := l.swipes.GetLikers(ctx, userID, token, limit)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(swipes), next, nil
}

// ListNewLikedYou is ListLikedYou without likes userID already returned.
func (l *Ledger) ListNewLikedYou(ctx context.Context, userID uint64, token *string, limit int) ([]Liker, *string, error) {
	swipes, next, err := l.swipes.GetNewLikers(ctx, userID, token, limit)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(swipes), next, nil
}

// CountLikedYou returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from the cache (likes:count:userID) and refreshes its TTL on a hit.
//  2. On a miss or unparsable entry, falls back to the DB.
//  3. On DB fetch, writes the count back with LikerCountTTL.
func (l *Ledger) CountLikedYou(ctx context.Context, userID uint64) (uint64, error) {
	key := cache.KeyForLikeCount(userID)

	if cached, err := l.cache.Get(ctx, key); err == nil {
		if n, err := strconv.ParseUint(cached, 10, 64); err == nil {
			metrics.LikerCountCache.WithLabelValues("hit").Inc()
			// refresh TTL since this user is active
			_ = l.cache.Expire(ctx, key, LikerCountTTL)
			return n, nil
		}
	}
	metrics.LikerCountCache.WithLabelValues("miss").Inc()

	count, err := l.swipes.CountLikers(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := l.cache.Set(ctx, key, strconv.FormatInt(count, 10), LikerCountTTL); err != nil {
		l.logger.Warn("liker count cache write failed", "user", userID, "err", err)
	}
	return uint64(count), nil
}

// invalidateLikerCount drops the cached count.
func (l *Ledger) invalidateLikerCount(ctx context.Context, userID uint64) {
	if err := l.cache.Del(ctx, cache.KeyForLikeCount(userID)); err != nil {
		l.logger.Warn("liker count cache invalidation failed", "user", userID, "err", err)
	}
}

func (l *Ledger) notify(ctx context.Context, n notify.Notification) {
	if _, err := l.notifier.Notify(ctx, n); err != nil {
		l.logger.Error("swipe notification failed", "type", n.Type, "recipient", n.Recipient, "err", err)
	}
}

func toLikers(swipes []db.SwipeIntent) []Liker {
	out := make([]Liker, 0, len(swipes))
	for _, s := range swipes {
		out = append(out, Liker{ActorID: s.ActorID, Intent: s.Intent, UpdatedAt: s.UpdatedAt})
	}
	return out
}
