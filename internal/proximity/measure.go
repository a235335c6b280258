package proximity

import (
	"context"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/geo"
)

// campusBase returns the user's campus when it has a base point. Lookup failures count as
// "no base" so callers report unknown instead of failing.
func (e *Engine) campusBase(ctx context.Context, campusName string) *db.Campus {
	campus, err := e.campuses.GetByNameOrCode(ctx, campusName)
	if err != nil {
		e.logger.Warn("campus lookup failed", "campus", campusName, "err", err)
		return nil
	}
	if !campus.HasBaseLocation() {
		return nil
	}
	return campus
}

// DistanceToCampusBase is the user's distance to their campus base point.
func (e *Engine) DistanceToCampusBase(ctx context.Context, user *db.User) (float64, bool) {
	campus := e.campusBase(ctx, user.Campus)
	if campus == nil {
		return 0, false
	}
	return geo.DistanceMeters(user.Latitude, user.Longitude, campus.BaseLatitude, campus.BaseLongitude)
}

// DistanceToPartner is the distance between two users.
func DistanceToPartner(user, partner *db.User) (float64, bool) {
	return geo.DistanceMeters(user.Latitude, user.Longitude, partner.Latitude, partner.Longitude)
}

// LocationPercentage is 100 within the check-in radius of the campus base, 0 at the
// percentage bound and linear in between. nil means unknown.
func (e *Engine) LocationPercentage(ctx context.Context, user *db.User) *int {
	d, ok := e.DistanceToCampusBase(ctx, user)
	if !ok {
		return nil
	}
	pct := geo.PercentBetween(d, e.cfg.CheckInRadiusM, e.cfg.PercentageMaxM)
	return &pct
}

// MatchProximityPercentage applies the same scale to the user-partner distance, full at
// MatchFullRadiusM. nil means unknown.
func (e *Engine) MatchProximityPercentage(user, partner *db.User) *int {
	d, ok := DistanceToPartner(user, partner)
	if !ok {
		return nil
	}
	pct := geo.PercentBetween(d, e.cfg.MatchFullRadiusM, e.cfg.PercentageMaxM)
	return &pct
}

// IsProximityMatch is true when both users share a campus with a base point and both are
// checked in at it.
func (e *Engine) IsProximityMatch(ctx context.Context, user, partner *db.User) bool {
	if user.Campus == "" || user.Campus != partner.Campus {
		return false
	}
	campus := e.campusBase(ctx, user.Campus)
	if campus == nil {
		return false
	}
	du, ok := geo.DistanceMeters(user.Latitude, user.Longitude, campus.BaseLatitude, campus.BaseLongitude)
	if !ok {
		return false
	}
	dp, ok := geo.DistanceMeters(partner.Latitude, partner.Longitude, campus.BaseLatitude, campus.BaseLongitude)
	if !ok {
		return false
	}
	return du <= e.cfg.CheckInRadiusM && dp <= e.cfg.CheckInRadiusM
}

// IsNearbyMatch is true when the users are within radiusM of each other. A non-positive
// radius uses the configured default.
func (e *Engine) IsNearbyMatch(user, partner *db.User, radiusM float64) bool {
	if radiusM <= 0 {
		radiusM = e.cfg.NearbyRadiusM
	}
	d, ok := DistanceToPartner(user, partner)
	return ok && d <= radiusM
}
