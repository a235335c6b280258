package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
)

// ProfileRepository reads user profiles. The only columns it writes are location and last-seen.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// CandidateFilter narrows the eligible pool. Zero values disable a filter.
type CandidateFilter struct {
	// Gender is the exact gender candidates must have.
	Gender *string

	// Case-insensitive substring filters.
	CampusContains  string
	ProgramContains string
	YearContains    string

	// PreferCampus and PreferProgram order exact matches first.
	PreferCampus  string
	PreferProgram string
}

// PoolEntry is the minimal row used to sample a random page.
type PoolEntry struct {
	ID             uint64
	BoostExpiresAt *time.Time
}

// GetUser loads a user by id. Returns gorm.ErrRecordNotFound when absent.
func (r *ProfileRepository) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user row exists, eligible or not.
func (r *ProfileRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListEligibleCandidates returns up to limit matchable users outside exclude.
//
// Behavior:
//   - Only profile-completed, non-disabled users.
//   - Rows on PreferCampus come first, then rows on PreferProgram, then by id.
//     When the limit binds this keeps the most relevant rows in the pool.
func (r *ProfileRepository) ListEligibleCandidates(
	ctx context.Context,
	filter CandidateFilter,
	exclude []uint64,
	limit int,
) ([]db.User, error) {
	var (
		order []string
		vars  []any
	)
	if filter.PreferCampus != "" {
		order = append(order, "CASE WHEN campus = ? THEN 0 ELSE 1 END")
		vars = append(vars, filter.PreferCampus)
	}
	if filter.PreferProgram != "" {
		order = append(order, "CASE WHEN academic_program = ? THEN 0 ELSE 1 END")
		vars = append(vars, filter.PreferProgram)
	}
	order = append(order, "id ASC")

	var users []db.User
	err := r.eligible(ctx, filter, exclude).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                strings.Join(order, ", "),
			Vars:               vars,
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ListPool returns id and boost expiry of every matchable user outside exclude.
func (r *ProfileRepository) ListPool(
	ctx context.Context,
	filter CandidateFilter,
	exclude []uint64,
) ([]PoolEntry, error) {
	var pool []PoolEntry
	err := r.eligible(ctx, filter, exclude).
		Select("id", "boost_expires_at").
		Order("id ASC").
		Find(&pool).Error
	return pool, err
}

// LoadByIDs loads users and returns them in the order of ids. Missing ids are skipped.
func (r *ProfileRepository) LoadByIDs(ctx context.Context, ids []uint64) ([]db.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint64]db.User, len(rows))
	for _, u := range rows {
		byID[u.ID] = u
	}
	out := make([]db.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// ListSameCampus returns matchable users on campus other than excludeID, ordered by id.
func (r *ProfileRepository) ListSameCampus(ctx context.Context, campus string, excludeID uint64) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("campus = ? AND id <> ?", campus, excludeID).
		Where("profile_completed = ? AND is_disabled = ?", true, false).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// ListNearbyEnabled returns the users in ids that opted into nearby matching and have a location.
func (r *ProfileRepository) ListNearbyEnabled(ctx context.Context, ids []uint64) ([]db.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("nearby_match_enabled = ?", true).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// UpdateLocation writes coordinates and stamps location_updated_at and last_seen_at.
// Returns gorm.ErrRecordNotFound when the user does not exist. MySQL reports zero affected
// rows for an update that changes nothing, so zero rows only means missing after a lookup.
func (r *ProfileRepository) UpdateLocation(ctx context.Context, id uint64, lat, lon float64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"latitude":            lat,
			"longitude":           lon,
			"location_updated_at": at,
			"last_seen_at":        at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FollowingIDs returns the users userID follows.
func (r *ProfileRepository) FollowingIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

// BlockedIDs returns the users userID blocked.
func (r *ProfileRepository) BlockedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

// BlockedByIDs returns the users who blocked userID.
func (r *ProfileRepository) BlockedByIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &ids).Error
	return ids, err
}

// likeEscaper makes user input match literally inside a LIKE pattern. '!' is the escape
// character because backslash escaping differs between MySQL and SQLite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *ProfileRepository) eligible(ctx context.Context, filter CandidateFilter, exclude []uint64) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("profile_completed = ? AND is_disabled = ?", true, false)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	if filter.Gender != nil {
		q = q.Where("gender = ?", *filter.Gender)
	}
	for column, needle := range map[string]string{
		"campus":           filter.CampusContains,
		"academic_program": filter.ProgramContains,
		"year_level":       filter.YearContains,
	} {
		if needle = strings.TrimSpace(needle); needle != "" {
			q = q.Where("LOWER("+column+") LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(strings.ToLower(needle))+"%")
		}
	}
	return q
}
