package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// FeedbackRepository persists the single delivery rating kept per order.
type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) WithTx(tx *gorm.DB) *FeedbackRepository {
	if tx == nil {
		return r
	}
	return &FeedbackRepository{db: tx}
}

// Upsert writes feedback for the order, replacing the stars and comment of an earlier rating.
func (r *FeedbackRepository) Upsert(ctx context.Context, fb *models.OrderFeedback) error {
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	fb.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rider_id", "stars", "comment", "updated_at"}),
	}).Create(fb).Error
}

// FindByOrder returns nil when the order has not been rated.
func (r *FeedbackRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderFeedback, error) {
	var fb models.OrderFeedback
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&fb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fb, nil
}
