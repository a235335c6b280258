package proximity

import (
	"context"
	"math"
	"sort"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/geo"
)

// Status is everything the proximity screen shows. Nil pointers are unknown values.
type Status struct {
	Partner                  *db.User
	Trail                    *Trail
	LocationPercentage       *int
	PartnerDistanceMeters    *float64
	MatchProximityPercentage *int
	IsProximityMatch         bool
	IsNearby                 bool
}

// Status resolves the partner, assigning one if needed, and measures the pair.
func (e *Engine) Status(ctx context.Context, user *db.User) (*Status, error) {
	partner, trail, err := e.GetOrAssign(ctx, user)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Partner:            partner,
		Trail:              trail,
		LocationPercentage: e.LocationPercentage(ctx, user),
	}
	if partner == nil {
		return st, nil
	}
	if d, ok := DistanceToPartner(user, partner); ok {
		rounded := round(d, 1)
		st.PartnerDistanceMeters = &rounded
	}
	st.MatchProximityPercentage = e.MatchProximityPercentage(user, partner)
	st.IsProximityMatch = e.IsProximityMatch(ctx, user, partner)
	st.IsNearby = e.IsNearbyMatch(user, partner, 0)
	return st, nil
}

// LatLon is a coordinate pair.
type LatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a point relative to the campus base.
type Position struct {
	DistanceFromBaseM float64 `json:"distance_from_base_m"`
	BearingFromBase   float64 `json:"bearing_from_base"`
}

// Blip is one user on the radar.
type Blip struct {
	UserID      uint64 `json:"id"`
	DisplayName string `json:"display_name"`
	Position
	DistanceFromMeM *float64 `json:"distance_from_me_m"`
}

// Radar places same-campus users around the campus base point.
type Radar struct {
	CampusBase *LatLon   `json:"campus_base"`
	RadiusM    float64   `json:"radar_radius_m"`
	Me         *Position `json:"me"`
	Nearby     []Blip    `json:"nearby_users"`
}

// Radar lists matchable same-campus users within the radar radius of the campus base,
// nearest to the base first. Without a base point the radar is empty.
func (e *Engine) Radar(ctx context.Context, user *db.User) (*Radar, error) {
	r := &Radar{RadiusM: e.cfg.RadarRadiusM, Nearby: []Blip{}}

	campus := e.campusBase(ctx, user.Campus)
	if campus == nil {
		return r, nil
	}
	baseLat, baseLon := *campus.BaseLatitude, *campus.BaseLongitude
	r.CampusBase = &LatLon{Latitude: baseLat, Longitude: baseLon}

	if user.HasLocation() {
		r.Me = position(baseLat, baseLon, *user.Latitude, *user.Longitude)
	}

	others, err := e.profiles.ListSameCampus(ctx, user.Campus, user.ID)
	if err != nil {
		return nil, err
	}
	for i := range others {
		o := &others[i]
		if !o.HasLocation() {
			continue
		}
		pos := position(baseLat, baseLon, *o.Latitude, *o.Longitude)
		if pos.DistanceFromBaseM > e.cfg.RadarRadiusM {
			continue
		}
		blip := Blip{UserID: o.ID, DisplayName: o.DisplayName, Position: *pos}
		if d, ok := DistanceToPartner(user, o); ok {
			rounded := round(d, 1)
			blip.DistanceFromMeM = &rounded
		}
		r.Nearby = append(r.Nearby, blip)
	}
	sort.SliceStable(r.Nearby, func(i, j int) bool {
		return r.Nearby[i].DistanceFromBaseM < r.Nearby[j].DistanceFromBaseM
	})
	return r, nil
}

func position(baseLat, baseLon, lat, lon float64) *Position {
	return &Position{
		DistanceFromBaseM: round(geo.Haversine(baseLat, baseLon, lat, lon), 1),
		BearingFromBase:   round(geo.BearingDegrees(baseLat, baseLon, lat, lon), 2),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
