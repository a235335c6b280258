package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the SwipeIntent model.
// It encapsulates all queries related to one-directional intents between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// UpsertIntent inserts or overwrites the intent declared by actor -> target.
//
// Behavior:
//   - If (actor_id, target_id) exists → intent and updated_at are overwritten.
//   - If it doesn't exist → a new row is inserted with created_at = updated_at = at.
//   - Composite PK ensures one row per ordered pair; concurrent writers resolve last-write-wins.
//
// Example:
//
//	repo.UpsertIntent(ctx, 1, 2, db.IntentDating, now) // user 1 wants to date user 2
func (r *SwipeRepository) UpsertIntent(
	ctx context.Context,
	actorID, targetID uint64,
	intent string,
	at time.Time,
) error {
	swipe := db.SwipeIntent{
		ActorID:   actorID,
		TargetID:  targetID,
		Intent:    intent,
		CreatedAt: at,
		UpdatedAt: at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"intent", "updated_at"}),
		}).
		Create(&swipe).Error
}

// GetIntent returns the intent actor declared toward target, or "" when none exists.
func (r *SwipeRepository) GetIntent(ctx context.Context, actorID, targetID uint64) (string, error) {
	var swipes []db.SwipeIntent
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		Limit(1).
		Find(&swipes).Error
	if err != nil || len(swipes) == 0 {
		return "", err
	}
	return swipes[0].Intent, nil
}

// HasLiked checks whether an actor holds a like-class intent toward a target.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 swiped dating/friend/study_buddy on user 2
func (r *SwipeRepository) HasLiked(
	ctx context.Context,
	actorID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeIntent{}).
		Where("actor_id = ? AND target_id = ? AND intent IN ?", actorID, targetID, db.LikeIntents).
		Count(&count).Error
	return count > 0, err
}

// SwipedTargetIDs returns every user the actor has swiped on, with any intent.
func (r *SwipeRepository) SwipedTargetIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeIntent{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &ids).Error
	return ids, err
}

// ListLikesBy returns the actor's like-class swipes, newest first. Empty intents means every
// like intent.
//
// Example:
//
//	repo.ListLikesBy(ctx, 42, nil, 0, 20) // first 20 users 42 liked
func (r *SwipeRepository) ListLikesBy(
	ctx context.Context,
	actorID uint64,
	intents []string,
	offset, limit int,
) ([]db.SwipeIntent, error) {
	var swipes []db.SwipeIntent
	err := r.likesByQuery(ctx, actorID, intents).
		Order("updated_at DESC, target_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&swipes).Error
	return swipes, err
}

// CountLikesBy counts what ListLikesBy pages through.
func (r *SwipeRepository) CountLikesBy(ctx context.Context, actorID uint64, intents []string) (int64, error) {
	var count int64
	err := r.likesByQuery(ctx, actorID, intents).Count(&count).Error
	return count, err
}

// LikersAmong returns which of actorIDs currently hold a like toward targetID.
func (r *SwipeRepository) LikersAmong(ctx context.Context, targetID uint64, actorIDs []uint64) ([]uint64, error) {
	if len(actorIDs) == 0 {
		return nil, nil
	}
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeIntent{}).
		Where("target_id = ? AND actor_id IN ? AND intent IN ?", targetID, actorIDs, db.LikeIntents).
		Pluck("actor_id", &ids).Error
	return ids, err
}

func (r *SwipeRepository) likesByQuery(ctx context.Context, actorID uint64, intents []string) *gorm.DB {
	if len(intents) == 0 {
		intents = db.LikeIntents
	}
	return r.db.WithContext(ctx).
		Model(&db.SwipeIntent{}).
		Where("actor_id = ? AND intent IN ?", actorID, intents)
}

// GetLikers returns swipes where someone liked the given target.
//
// Behavior:
//   - Only rows where target_id = X and intent is a like are returned.
//   - Excludes actors the target explicitly ignored.
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, nil, 20) // list first 20 people who liked user 42
func (r *SwipeRepository) GetLikers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.SwipeIntent, *string, error) {
	return r.listLikers(ctx, targetID, paginationToken, limit, false)
}

// GetNewLikers returns swipes where someone liked the target and was not liked back.
//
// Behavior:
//   - Same as GetLikers, and additionally excludes reciprocated likes.
//
// Example:
//
//	repo.GetNewLikers(ctx, 42, nil, 20) // list first 20 one-way likes for user 42
func (r *SwipeRepository) GetNewLikers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.SwipeIntent, *string, error) {
	return r.listLikers(ctx, targetID, paginationToken, limit, true)
}

func (r *SwipeRepository) listLikers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
	onlyUnreciprocated bool,
) ([]db.SwipeIntent, *string, error) {
	var swipes []db.SwipeIntent

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.likersQuery(ctx, targetID)
	if onlyUnreciprocated {
		// subquery to exclude mutual likes
		subQuery := r.db.
			Table("swipe_intents").
			Select("1").
			Where("actor_id = s.target_id AND target_id = s.actor_id AND intent IN ?", db.LikeIntents)
		query = query.Where("NOT EXISTS (?)", subQuery)
	}
	query = query.
		Order("s.updated_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ActorID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix).UTC()
		query = query.Where(
			"(s.updated_at < ? OR (s.updated_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikers returns how many users liked the given target.
//
// Behavior:
//   - Counts only like-class rows toward target_id = X.
//   - Excludes actors the target explicitly ignored.
//   - Used in conjunction with Redis cache (DB is fallback).
func (r *SwipeRepository) CountLikers(
	ctx context.Context,
	targetID uint64,
) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, targetID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SwipeRepository) likersQuery(ctx context.Context, targetID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("swipe_intents s").
		Where("s.target_id = ? AND s.intent IN ?", targetID, db.LikeIntents).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipe_intents s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.intent = ?
			)`, targetID, db.IntentIgnored)
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
