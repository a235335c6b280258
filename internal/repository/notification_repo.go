package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
)

// NotificationRepository persists in-app notifications and answers cooldown questions.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// Create inserts n and fills its ID.
func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ExistsBetweenSince reports whether a notification of type kind was created at or after since
// between a and b, in either direction.
func (r *NotificationRepository) ExistsBetweenSince(
	ctx context.Context,
	kind string,
	a, b uint64,
	since time.Time,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("type = ? AND created_at >= ?", kind, since).
		Where("(user_id = ? AND from_user_id = ?) OR (user_id = ? AND from_user_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// ExistsFromSince is the one-directional variant: from -> recipient only.
func (r *NotificationRepository) ExistsFromSince(
	ctx context.Context,
	kind string,
	recipient, from uint64,
	since time.Time,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("type = ? AND user_id = ? AND from_user_id = ? AND created_at >= ?", kind, recipient, from, since).
		Count(&count).Error
	return count > 0, err
}

// ListForUser returns the recipient's most recent notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint64, limit int) ([]db.Notification, error) {
	var rows []db.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
