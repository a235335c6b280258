package campus

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/discovery"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/ledger"
	"github.com/oggyb/campus-match/internal/matchmaker"
	"github.com/oggyb/campus-match/internal/nearby"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/proximity"
	"github.com/oggyb/campus-match/internal/repository"
)

// likersPageSize bounds one page of the liked-you lists.
const likersPageSize = 20

// Service implements campusmatch.v1.MatchService.
// It parses and validates requests, then hands off to the matching components.
type Service struct {
	appCtx   *app.AppContext
	validate *validator.Validate

	profiles   *repository.ProfileRepository
	notifier   *notify.Service
	matchmaker *matchmaker.Matchmaker
	feed       *discovery.Feed
	ledger     *ledger.Ledger
	engine     *proximity.Engine
	nearby     *nearby.Notifier
}

// NewService wires every component from the shared AppContext.
func NewService(appCtx *app.AppContext) *Service {
	cfg := appCtx.Config
	database := appCtx.DB
	logger := appCtx.Logger

	profiles := repository.NewProfileRepository(database)
	swipes := repository.NewSwipeRepository(database)
	campuses := repository.NewCampusRepository(database, appCtx.Cache, cfg.Proximity.CampusCacheTTL, logger)
	notifier := notify.NewService(repository.NewNotificationRepository(database), appCtx.Publisher, appCtx.Clock, logger)

	l := ledger.New(
		swipes,
		repository.NewMatchRepository(database),
		profiles,
		notifier,
		appCtx.Cache,
		appCtx.Clock,
		logger,
	)
	engine := proximity.New(
		profiles,
		campuses,
		repository.NewAssignmentRepository(database),
		appCtx.Completer,
		appCtx.Clock,
		cfg.Proximity,
		logger,
	)

	return &Service{
		appCtx:     appCtx,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		profiles:   profiles,
		notifier:   notifier,
		matchmaker: matchmaker.New(profiles, swipes, cfg.Matchmaking, logger),
		feed:       discovery.New(profiles, appCtx.Rand, appCtx.Clock, cfg.Discovery, logger),
		ledger:     l,
		engine:     engine,
		nearby:     nearby.New(profiles, engine, l, notifier, appCtx.Publisher, appCtx.Clock, cfg.Nearby, logger),
	}
}

// Browse returns a scored page of candidates.
//
// Behavior:
//   - Rejects requesters whose profile is incomplete or disabled.
//   - Candidates at or above the high-compatibility threshold are told, at most once per
//     viewer and cooldown window, that someone finds them a strong match.
//
// Example:
//
//	svc.Browse(ctx, &BrowseRequest{UserID: "42", Page: 1})
func (s *Service) Browse(ctx context.Context, req *BrowseRequest) (*BrowseResponse, error) {
	s.appCtx.Logger.Debug("Browse called", "user", req.UserID, "page", req.Page)

	me, err := s.requester(ctx, req, req.UserID)
	if err != nil {
		return nil, err
	}

	page, err := s.matchmaker.Page(ctx, me, req.Page)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.notifyHighCompatibility(ctx, me, page.Items)

	now := s.appCtx.Clock.Now()
	resp := &BrowseResponse{Page: page.Page, Items: make([]ScoredProfile, 0, len(page.Items))}
	for i := range page.Items {
		c := &page.Items[i]
		resp.Items = append(resp.Items, ScoredProfile{
			Profile:            toProfile(&c.User, now),
			CompatibilityScore: c.Score,
			SharedTags:         nonNil(c.SharedTags),
		})
	}
	return resp, nil
}

// Discover returns a random page of the filtered pool.
func (s *Service) Discover(ctx context.Context, req *DiscoverRequest) (*DiscoverResponse, error) {
	s.appCtx.Logger.Debug("Discover called", "user", req.UserID, "page", req.Page, "boost", req.Boost)

	me, err := s.requester(ctx, req, req.UserID)
	if err != nil {
		return nil, err
	}

	page, err := s.feed.Page(ctx, me, discovery.Query{
		Page:    req.Page,
		Boost:   req.Boost,
		Campus:  req.Campus,
		Program: req.Program,
		Year:    req.Year,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock.Now()
	resp := &DiscoverResponse{
		Total:       page.Total,
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
		Items:       make([]Profile, 0, len(page.Items)),
	}
	for i := range page.Items {
		resp.Items = append(resp.Items, toProfile(&page.Items[i], now))
	}
	return resp, nil
}

// Swipe records the actor's intent toward the target and reports a mutual match.
//
// Example:
//
//	svc.Swipe(ctx, &SwipeRequest{ActorUserID: "1", TargetUserID: "2", Intent: "dating"})
func (s *Service) Swipe(ctx context.Context, req *SwipeRequest) (*SwipeResponse, error) {
	s.appCtx.Logger.Debug("Swipe called", "actor", req.ActorUserID, "target", req.TargetUserID, "intent", req.Intent)

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.Map(err)
	}
	actorID, err := parseID("actor_user_id", req.ActorUserID)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID("target_user_id", req.TargetUserID)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.RecordIntent(ctx, actorID, targetID, req.Intent)
	if err != nil {
		s.appCtx.Logger.Warn("RecordIntent failed", "actor", actorID, "target", targetID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &SwipeResponse{Matched: res.Matched, Intent: res.Intent, OtherUser: res.Other}, nil
}

// AreMatched reports whether the two users share a mutual match.
func (s *Service) AreMatched(ctx context.Context, req *AreMatchedRequest) (*AreMatchedResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.Map(err)
	}
	a, err := parseID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	b, err := parseID("other_user_id", req.OtherUserID)
	if err != nil {
		return nil, err
	}

	matched, err := s.ledger.AreMatched(ctx, a, b)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &AreMatchedResponse{Matched: matched}, nil
}

// ListMutualMatches returns the user's mutual matches, newest first.
func (s *Service) ListMutualMatches(ctx context.Context, req *ListMutualMatchesRequest) (*ListMutualMatchesResponse, error) {
	me, err := s.requester(ctx, req, req.UserID)
	if err != nil {
		return nil, err
	}
	page, err := s.ledger.ListMutualMatches(ctx, me.ID, req.Intent, req.Page)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock.Now()
	resp := &ListMutualMatchesResponse{Page: page.Page, Items: make([]MatchedProfile, 0, len(page.Items))}
	for i := range page.Items {
		m := &page.Items[i]
		resp.Items = append(resp.Items, MatchedProfile{
			Profile:   toProfile(&m.User, now),
			Intent:    m.Intent,
			MatchedAt: m.MatchedAt,
		})
	}
	return resp, nil
}

// ListMyLikes returns the users the caller liked, newest first, flagging who likes back.
func (s *Service) ListMyLikes(ctx context.Context, req *ListMyLikesRequest) (*ListMyLikesResponse, error) {
	me, err := s.requester(ctx, req, req.UserID)
	if err != nil {
		return nil, err
	}
	page, err := s.ledger.ListMyLikes(ctx, me.ID, req.Intent, req.Page)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock.Now()
	resp := &ListMyLikesResponse{Page: page.Page, Items: make([]LikedProfile, 0, len(page.Items))}
	for i := range page.Items {
		l := &page.Items[i]
		resp.Items = append(resp.Items, LikedProfile{
			Profile:  toProfile(&l.User, now),
			MyIntent: l.Intent,
			LikedAt:  l.LikedAt,
			Matched:  l.Matched,
		})
	}
	return resp, nil
}

// ListLikedYou returns everyone who liked the recipient, newest first.
//
// Behavior:
//   - Excludes users the recipient explicitly ignored.
//   - Supports cursor-based pagination with pagination_token.
//   - Returns actor_id, intent and a millisecond timestamp.
func (s *Service) ListLikedYou(ctx context.Context, req *ListLikedYouRequest) (*ListLikedYouResponse, error) {
	s.appCtx.Logger.Debug("ListLikedYou called", "recipient", req.RecipientUserID, "token", req.PaginationToken)

	recipientID, err := s.recipient(ctx, req, req.RecipientUserID)
	if err != nil {
		return nil, err
	}
	likers, next, err := s.ledger.ListLikedYou(ctx, recipientID, req.PaginationToken, likersPageSize)
	if err != nil {
		s.appCtx.Logger.Error("GetLikers failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return toLikersResponse(likers, next), nil
}

// ListNewLikedYou is ListLikedYou without the users the recipient already liked back.
func (s *Service) ListNewLikedYou(ctx context.Context, req *ListLikedYouRequest) (*ListLikedYouResponse, error) {
	s.appCtx.Logger.Debug("ListNewLikedYou called", "recipient", req.RecipientUserID)

	recipientID, err := s.recipient(ctx, req, req.RecipientUserID)
	if err != nil {
		return nil, err
	}
	likers, next, err := s.ledger.ListNewLikedYou(ctx, recipientID, req.PaginationToken, likersPageSize)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toLikersResponse(likers, next), nil
}

// CountLikedYou returns how many users liked the recipient, served from cache when warm.
func (s *Service) CountLikedYou(ctx context.Context, req *CountLikedYouRequest) (*CountLikedYouResponse, error) {
	recipientID, err := s.recipient(ctx, req, req.RecipientUserID)
	if err != nil {
		return nil, err
	}
	n, err := s.ledger.CountLikedYou(ctx, recipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CountLikedYouResponse{Count: n}, nil
}

// GetProximityMatch returns the user's proximity partner, assigning one on first use.
func (s *Service) GetProximityMatch(ctx context.Context, req *ProximityRequest) (*ProximityResponse, error) {
	me, err := s.requester(ctx, req, req.UserID)
	if err != nil {
		return nil, err
	}

	st, err := s.engine.Status(ctx, me)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &ProximityResponse{
		LocationPercentage:       st.LocationPercentage,
		DistanceMeters:           st.PartnerDistanceMeters,
		MatchProximityPercentage: st.MatchProximityPercentage,
		IsProximityMatch:         st.IsProximityMatch,
		IsNearby:                 st.IsNearby,
		Debug:                    st.Trail,
	}
	if st.Trail != nil {
		resp.Reason = st.Trail.Reason
	}
	if st.Partner != nil {
		p := toProfile(st.Partner, s.appCtx.Clock.Now())
		resp.Partner = &p
	}
	return resp, nil
}

// ResetProximityMatch drops the user's assignment; the next GetProximityMatch picks again.
func (s *Service) ResetProximityMatch(ctx context.Context, req *ProximityRequest) (*ResetProximityMatchResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := parseID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Reset(ctx, userID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &ResetProximityMatchResponse{Reset: true}, nil
}

// UpdateLocation stores coordinates and triggers the live proximity signals.
// Notification failures never fail the call.
func (s *Service) UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*UpdateLocationResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := parseID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.nearby.UpdateLocation(ctx, userID, *req.Latitude, *req.Longitude); err != nil {
		return nil, svcErr.Map(err)
	}
	return &UpdateLocationResponse{Updated: true}, nil
}

// GetRadar places same-campus users around the campus base point.
func (s *Service) GetRadar(ctx context.Context, req *ProximityRequest) (*RadarResponse, error) {
	me, err := s.requester(ctx, req, req.UserID)
	if err != nil {
		return nil, err
	}
	radar, err := s.engine.Radar(ctx, me)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return radar, nil
}

// requester validates req and loads the calling user, who must be matchable.
func (s *Service) requester(ctx context.Context, req any, rawID string) (*db.User, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.Map(err)
	}
	id, err := parseID("user_id", rawID)
	if err != nil {
		return nil, err
	}
	me, err := s.profiles.GetUser(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !me.Eligible() {
		return nil, svcErr.Map(svcErr.ErrProfileIncomplete)
	}
	return me, nil
}

func (s *Service) recipient(ctx context.Context, req any, rawID string) (uint64, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return 0, svcErr.Map(err)
	}
	return parseID("recipient_user_id", rawID)
}

func (s *Service) notifyHighCompatibility(ctx context.Context, viewer *db.User, items []matchmaker.Candidate) {
	cfg := s.appCtx.Config.Matchmaking
	for i := range items {
		c := &items[i]
		if c.Score < cfg.HighCompatibilityThreshold {
			continue
		}
		_, err := s.notifier.NotifyOnce(ctx, notify.Notification{
			Recipient:      c.User.ID,
			From:           viewer.ID,
			Type:           notify.TypeHighCompatibilityMatch,
			NotifiableType: "user",
			NotifiableID:   &viewer.ID,
			Data:           map[string]any{"compatibility_score": c.Score},
		}, cfg.HighCompatibilityCooldown)
		if err != nil {
			s.appCtx.Logger.Warn("high compatibility notification failed", "viewer", viewer.ID, "candidate", c.User.ID, "err", err)
		}
	}
}

func toLikersResponse(likers []ledger.Liker, next *string) *ListLikedYouResponse {
	resp := &ListLikedYouResponse{Likers: make([]Liker, 0, len(likers)), NextPaginationToken: next}
	for _, l := range likers {
		resp.Likers = append(resp.Likers, Liker{
			ActorID:       formatID(l.ActorID),
			Intent:        l.Intent,
			UnixTimestamp: uint64(l.UpdatedAt.UnixMilli()),
		})
	}
	return resp
}

func parseID(field, raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, svcErr.InvalidArgument(field + " must be a valid uint64")
	}
	return id, nil
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
