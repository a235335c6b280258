package campus

import (
	"time"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/ledger"
	"github.com/oggyb/campus-match/internal/proximity"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

// Request and response messages of campusmatch.v1.MatchService. Ids travel as decimal strings.

type BrowseRequest struct {
	UserID string `json:"user_id" validate:"required,numeric"`
	Page   int    `json:"page" validate:"gte=0"`
}

type BrowseResponse struct {
	pagination.Page
	Items []ScoredProfile `json:"items"`
}

type DiscoverRequest struct {
	UserID  string `json:"user_id" validate:"required,numeric"`
	Page    int    `json:"page" validate:"gte=0"`
	Boost   bool   `json:"boost"`
	Campus  string `json:"campus" validate:"max=128"`
	Program string `json:"program" validate:"max=128"`
	Year    string `json:"year" validate:"max=32"`
}

type DiscoverResponse struct {
	Total       int       `json:"total"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
	Items       []Profile `json:"items"`
}

// Profile is the public view of a user.
type Profile struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	Campus          string   `json:"campus"`
	AcademicProgram string   `json:"academic_program"`
	YearLevel       string   `json:"year_level"`
	Bio             string   `json:"bio,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	Boosted         bool     `json:"boosted,omitempty"`
}

type ScoredProfile struct {
	Profile
	CompatibilityScore int      `json:"compatibility_score"`
	SharedTags         []string `json:"shared_tags"`
}

type SwipeRequest struct {
	ActorUserID  string `json:"actor_user_id" validate:"required,numeric"`
	TargetUserID string `json:"target_user_id" validate:"required,numeric"`
	Intent       string `json:"intent" validate:"required,oneof=dating friend study_buddy ignored"`
}

type SwipeResponse struct {
	Matched   bool            `json:"matched"`
	Intent    string          `json:"intent"`
	OtherUser *ledger.Summary `json:"other_user,omitempty"`
}

type AreMatchedRequest struct {
	UserID      string `json:"user_id" validate:"required,numeric"`
	OtherUserID string `json:"other_user_id" validate:"required,numeric"`
}

type AreMatchedResponse struct {
	Matched bool `json:"matched"`
}

type ListMutualMatchesRequest struct {
	UserID string `json:"user_id" validate:"required,numeric"`
	Intent string `json:"intent" validate:"omitempty,oneof=dating friend study_buddy"`
	Page   int    `json:"page" validate:"gte=0"`
}

type MatchedProfile struct {
	Profile
	Intent    string    `json:"intent"`
	MatchedAt time.Time `json:"matched_at"`
}

type ListMutualMatchesResponse struct {
	pagination.Page
	Items []MatchedProfile `json:"items"`
}

type ListMyLikesRequest struct {
	UserID string `json:"user_id" validate:"required,numeric"`
	Intent string `json:"intent" validate:"omitempty,oneof=dating friend study_buddy"`
	Page   int    `json:"page" validate:"gte=0"`
}

type LikedProfile struct {
	Profile
	MyIntent string    `json:"my_intent"`
	LikedAt  time.Time `json:"liked_at"`
	Matched  bool      `json:"matched"`
}

type ListMyLikesResponse struct {
	pagination.Page
	Items []LikedProfile `json:"items"`
}

type ListLikedYouRequest struct {
	RecipientUserID string  `json:"recipient_user_id" validate:"required,numeric"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

type Liker struct {
	ActorID       string `json:"actor_id"`
	Intent        string `json:"intent"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type ListLikedYouResponse struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken *string `json:"next_pagination_token,omitempty"`
}

type CountLikedYouRequest struct {
	RecipientUserID string `json:"recipient_user_id" validate:"required,numeric"`
}

type CountLikedYouResponse struct {
	Count uint64 `json:"count"`
}

type ProximityRequest struct {
	UserID string `json:"user_id" validate:"required,numeric"`
}

// ProximityResponse carries the partner and the measurements. Nil numbers are unknown.
type ProximityResponse struct {
	Partner                  *Profile         `json:"partner"`
	Reason                   string           `json:"reason,omitempty"`
	LocationPercentage       *int             `json:"location_percentage"`
	DistanceMeters           *float64         `json:"distance_m"`
	MatchProximityPercentage *int             `json:"match_proximity_percentage"`
	IsProximityMatch         bool             `json:"is_proximity_match"`
	IsNearby                 bool             `json:"is_nearby"`
	Debug                    *proximity.Trail `json:"debug,omitempty"`
}

type ResetProximityMatchResponse struct {
	Reset bool `json:"reset"`
}

type UpdateLocationRequest struct {
	UserID    string   `json:"user_id" validate:"required,numeric"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type UpdateLocationResponse struct {
	Updated bool `json:"updated"`
}

type RadarResponse = proximity.Radar

func toProfile(u *db.User, now time.Time) Profile {
	return Profile{
		ID:              formatID(u.ID),
		DisplayName:     u.DisplayName,
		Campus:          u.Campus,
		AcademicProgram: u.AcademicProgram,
		YearLevel:       u.YearLevel,
		Bio:             u.Bio,
		Gender:          u.Gender,
		Interests:       u.InterestTags(),
		Boosted:         u.BoostExpiresAt != nil && u.BoostExpiresAt.After(now),
	}
}
