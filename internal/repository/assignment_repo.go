package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
)

// AssignmentRepository stores the per-user proximity partner.
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(database *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: database}
}

// Get returns the user's assignment, or nil when the user has none.
func (r *AssignmentRepository) Get(ctx context.Context, userID uint64) (*db.ProximityAssignment, error) {
	var rows []db.ProximityAssignment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Upsert sets the user's partner, replacing any previous one.
func (r *AssignmentRepository) Upsert(ctx context.Context, userID, partnerID uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"partner_id", "assigned_at"}),
		}).
		Create(&db.ProximityAssignment{UserID: userID, PartnerID: partnerID, AssignedAt: at}).Error
}

// Delete removes the user's assignment. Deleting a missing row is not an error.
func (r *AssignmentRepository) Delete(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&db.ProximityAssignment{}).Error
}
