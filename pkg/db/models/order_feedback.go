package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderFeedback is the single delivery rating captured when a rider completes an order.
type OrderFeedback struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	RiderID   *uuid.UUID `gorm:"column:rider_id;type:uuid"`
	Stars     int        `gorm:"column:stars;not null"`
	Comment   string     `gorm:"column:comment;not null;default:''"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular-per-order naming.
func (OrderFeedback) TableName() string {
	return "order_feedback"
}
