package db

import (
	"time"

	"gorm.io/datatypes"
)

// User is the profile row read by the matching core.
// Profile CRUD lives elsewhere; this service only writes the location and last-seen fields.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:128"`

	Campus          string `gorm:"size:128;index"`
	AcademicProgram string `gorm:"size:128"`
	YearLevel       string `gorm:"size:32"`
	Bio             string `gorm:"type:text"`

	// Tag collections, each a JSON array of strings.
	Courses                   datatypes.JSON
	ResearchInterests         datatypes.JSON
	ExtracurricularActivities datatypes.JSON
	AcademicGoals             datatypes.JSON
	Interests                 datatypes.JSON

	Gender          string  `gorm:"size:32"`
	PreferredGender *string `gorm:"size:32"`
	PreferredAgeMin *int
	PreferredAgeMax *int
	DateOfBirth     *time.Time

	Latitude          *float64
	Longitude         *float64
	LocationUpdatedAt *time.Time
	LastSeenAt        *time.Time

	BoostExpiresAt     *time.Time `gorm:"index"`
	ProfileCompleted   bool       `gorm:"not null;default:false;index"`
	IsDisabled         bool       `gorm:"not null;default:false"`
	NearbyMatchEnabled bool       `gorm:"not null;default:false"`
	NearbyMatchRadiusM int        `gorm:"not null;default:500"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Eligible reports whether the user can be matched with anyone.
func (u *User) Eligible() bool {
	return u != nil && u.ProfileCompleted && !u.IsDisabled
}

// HasLocation reports whether both coordinates are known.
func (u *User) HasLocation() bool {
	return u != nil && u.Latitude != nil && u.Longitude != nil
}

// Block is a directional block: BlockerID no longer wants to see BlockedID.
type Block struct {
	BlockerID uint64 `gorm:"primaryKey"`
	BlockedID uint64 `gorm:"primaryKey;index"`
	CreatedAt time.Time
}

// Follow is a directional follow edge from the social graph.
type Follow struct {
	FollowerID  uint64 `gorm:"primaryKey"`
	FollowingID uint64 `gorm:"primaryKey;index"`
	CreatedAt   time.Time
}

// SwipeIntent represents an actor's declared intent toward a target.
//
// Composite PK: (ActorID, TargetID)
//   - Ensures a single row per ordered pair (overwrite guarantee).
//
// Indexes:
//   - idx_target_intent_updated(target_id, intent, updated_at DESC)
//     Optimizes "who liked me" lists with cursor pagination.
type SwipeIntent struct {
	ActorID   uint64    `gorm:"primaryKey"`
	TargetID  uint64    `gorm:"primaryKey;index:idx_target_intent_updated,priority:1"`
	Intent    string    `gorm:"size:16;not null;index:idx_target_intent_updated,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index:idx_target_intent_updated,priority:3,sort:desc"`
}

// Match is the canonical mutual match row: LowID < HighID always.
type Match struct {
	LowID     uint64    `gorm:"primaryKey"`
	HighID    uint64    `gorm:"primaryKey;index"`
	Intent    string    `gorm:"size:16"`
	CreatedAt time.Time `gorm:"not null"`
}

// Counterpart returns the side of the pair that is not userID.
func (m *Match) Counterpart(userID uint64) uint64 {
	if m.LowID == userID {
		return m.HighID
	}
	return m.LowID
}

// Campus carries the optional base point used for proximity percentages.
type Campus struct {
	ID            uint64   `gorm:"primaryKey;autoIncrement"`
	Name          string   `gorm:"size:128;not null;index"`
	Code          string   `gorm:"size:32;uniqueIndex;not null"`
	BaseLatitude  *float64 `json:",omitempty"`
	BaseLongitude *float64 `json:",omitempty"`
}

// TableName pins the plural, inflection does not agree on "campus".
func (Campus) TableName() string { return "campuses" }

// HasBaseLocation reports whether both base coordinates are configured.
func (c *Campus) HasBaseLocation() bool {
	return c != nil && c.BaseLatitude != nil && c.BaseLongitude != nil
}

// ProximityAssignment is the per-user partner for the proximity game.
type ProximityAssignment struct {
	UserID     uint64    `gorm:"primaryKey;autoIncrement:false"`
	PartnerID  uint64    `gorm:"not null;index"`
	AssignedAt time.Time `gorm:"not null"`
}

// Notification is an in-app notification. Nearby-match cooldowns are derived from these rows.
type Notification struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	UserID         uint64 `gorm:"not null;index:idx_notification_pair,priority:2"`
	Type           string `gorm:"size:48;not null;index:idx_notification_pair,priority:1"`
	FromUserID     uint64 `gorm:"not null;index:idx_notification_pair,priority:3"`
	NotifiableType string `gorm:"size:32"`
	NotifiableID   *uint64
	Data           datatypes.JSON
	ReadAt         *time.Time
	CreatedAt      time.Time `gorm:"not null;index:idx_notification_pair,priority:4"`
}

// Models lists every table owned or read by this service, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Block{},
		&Follow{},
		&SwipeIntent{},
		&Match{},
		&Campus{},
		&ProximityAssignment{},
		&Notification{},
	}
}
