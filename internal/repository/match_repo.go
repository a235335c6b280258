package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
)

// MatchRepository stores canonical mutual-match rows.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CanonicalPair orders two ids as (low, high).
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Create inserts the canonical row for {a, b}. Re-deriving an existing pair is a no-op,
// created reports whether this call inserted the row.
func (r *MatchRepository) Create(
	ctx context.Context,
	a, b uint64,
	intent string,
	at time.Time,
) (created bool, err error) {
	low, high := CanonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Match{LowID: low, HighID: high, Intent: intent, CreatedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether a and b share a canonical match row.
func (r *MatchRepository) Exists(ctx context.Context, a, b uint64) (bool, error) {
	if a == b {
		return false, nil
	}
	low, high := CanonicalPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("low_id = ? AND high_id = ?", low, high).
		Count(&count).Error
	return count > 0, err
}

// CounterpartIDs returns the other side of every match the user belongs to.
func (r *MatchRepository) CounterpartIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("low_id = ? OR high_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Counterpart(userID))
	}
	return ids, nil
}

// ListFor returns the user's matches, newest first, optionally narrowed to one intent.
func (r *MatchRepository) ListFor(
	ctx context.Context,
	userID uint64,
	intent string,
	offset, limit int,
) ([]db.Match, error) {
	var matches []db.Match
	err := r.forUser(ctx, userID, intent).
		Order("created_at DESC, low_id DESC, high_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&matches).Error
	return matches, err
}

// CountFor counts what ListFor pages through.
func (r *MatchRepository) CountFor(ctx context.Context, userID uint64, intent string) (int64, error) {
	var count int64
	err := r.forUser(ctx, userID, intent).Count(&count).Error
	return count, err
}

func (r *MatchRepository) forUser(ctx context.Context, userID uint64, intent string) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(low_id = ? OR high_id = ?)", userID, userID)
	if intent != "" {
		q = q.Where("intent = ?", intent)
	}
	return q
}
