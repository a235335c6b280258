// Package nearby reacts to location updates: it refreshes the proximity partner's live
// distance and tells mutual matches when they come within range of each other.
package nearby

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/geo"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/proximity"
)

var ErrInvalidCoordinates = svcErr.Reject("invalid_coordinates", "latitude must be within [-90, 90] and longitude within [-180, 180]")

type Locations interface {
	GetUser(ctx context.Context, id uint64) (*db.User, error)
	UpdateLocation(ctx context.Context, id uint64, lat, lon float64, at time.Time) error
	ListNearbyEnabled(ctx context.Context, ids []uint64) ([]db.User, error)
}

// Partners resolves and measures the proximity partner.
type Partners interface {
	Partner(ctx context.Context, userID uint64) (*db.User, error)
	MatchProximityPercentage(user, partner *db.User) *int
	IsNearbyMatch(user, partner *db.User, radiusM float64) bool
}

type Matches interface {
	MutualMatchIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type Notifications interface {
	RecentExists(ctx context.Context, kind string, a, b uint64, window time.Duration) (bool, error)
	Notify(ctx context.Context, n notify.Notification) (*db.Notification, error)
}

type Notifier struct {
	locations     Locations
	partners      Partners
	matches       Matches
	notifications Notifications
	publisher     events.Publisher
	clock         clock.Clock
	cfg           config.NearbyConfig
	logger        *slog.Logger
}

func New(
	locations Locations,
	partners Partners,
	matches Matches,
	notifications Notifications,
	publisher events.Publisher,
	clk clock.Clock,
	cfg config.NearbyConfig,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		locations:     locations,
		partners:      partners,
		matches:       matches,
		notifications: notifications,
		publisher:     publisher,
		clock:         clk,
		cfg:           cfg,
		logger:        logger,
	}
}

// UpdateLocation stores the user's coordinates, then runs the live partner update and the
// nearby-match scan. Only the write can fail the call; everything after it is logged.
func (n *Notifier) UpdateLocation(ctx context.Context, userID uint64, lat, lon float64) error {
	if !validCoordinates(lat, lon) {
		return ErrInvalidCoordinates
	}
	if err := n.locations.UpdateLocation(ctx, userID, lat, lon, n.clock.Now()); err != nil {
		return err
	}
	metrics.LocationUpdatesTotal.Inc()

	user, err := n.locations.GetUser(ctx, userID)
	if err != nil {
		n.logger.Error("failed to reload user after location update", "user", userID, "err", err)
		return nil
	}

	n.publishPartnerProximity(ctx, user)
	n.notifyNearbyMatches(ctx, user)
	return nil
}

// publishPartnerProximity runs whether or not the nearby feature is enabled.
func (n *Notifier) publishPartnerProximity(ctx context.Context, user *db.User) {
	partner, err := n.partners.Partner(ctx, user.ID)
	if err != nil {
		n.logger.Warn("failed to load proximity partner", "user", user.ID, "err", err)
		return
	}
	if partner == nil {
		return
	}

	evt := events.MatchProximityUpdated{
		UserID:              user.ID,
		MatchUserID:         partner.ID,
		ProximityPercentage: n.partners.MatchProximityPercentage(user, partner),
		IsNearby10m:         n.partners.IsNearbyMatch(user, partner, 0),
	}
	if d, ok := proximity.DistanceToPartner(user, partner); ok {
		rounded := int(math.Round(d))
		evt.DistanceMeters = &rounded
	}
	if err := n.publisher.Publish(ctx, evt); err != nil {
		metrics.EventPublishErrors.WithLabelValues(evt.EventName()).Inc()
		n.logger.Warn("proximity update publish failed", "user", user.ID, "partner", partner.ID, "err", err)
	}
}

func (n *Notifier) notifyNearbyMatches(ctx context.Context, user *db.User) {
	if !user.NearbyMatchEnabled || !user.HasLocation() {
		return
	}

	ids, err := n.matches.MutualMatchIDs(ctx, user.ID)
	if err != nil {
		n.logger.Warn("failed to load mutual matches", "user", user.ID, "err", err)
		return
	}
	others, err := n.locations.ListNearbyEnabled(ctx, ids)
	if err != nil {
		n.logger.Warn("failed to load nearby-enabled matches", "user", user.ID, "err", err)
		return
	}

	myRadius := n.clampRadius(user.NearbyMatchRadiusM)
	for i := range others {
		other := &others[i]
		d, ok := geo.DistanceMeters(user.Latitude, user.Longitude, other.Latitude, other.Longitude)
		if !ok {
			continue
		}
		if d > myRadius || d > n.clampRadius(other.NearbyMatchRadiusM) {
			continue
		}

		recent, err := n.notifications.RecentExists(ctx, notify.TypeNearbyMatch, user.ID, other.ID, n.cfg.Cooldown)
		if err != nil {
			n.logger.Warn("nearby cooldown check failed", "user", user.ID, "other", other.ID, "err", err)
			continue
		}
		if recent {
			continue
		}

		meters := int(math.Round(d))
		data := map[string]any{
			"distance_m":    meters,
			"distance_text": geo.DistanceText(meters),
		}
		for _, pair := range [][2]uint64{{user.ID, other.ID}, {other.ID, user.ID}} {
			_, err := n.notifications.Notify(ctx, notify.Notification{
				Recipient:      pair[0],
				From:           pair[1],
				Type:           notify.TypeNearbyMatch,
				NotifiableType: "user",
				NotifiableID:   &pair[1],
				Data:           data,
			})
			if err != nil {
				n.logger.Error("nearby notification failed", "recipient", pair[0], "from", pair[1], "err", err)
			}
		}
	}
}

// clampRadius bounds a user's configured radius to the allowed range.
func (n *Notifier) clampRadius(radiusM int) float64 {
	return float64(min(max(radiusM, n.cfg.MinRadiusM), n.cfg.MaxRadiusM))
}

func validCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
