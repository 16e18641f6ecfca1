package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/pkg/enums"
)

// OrderTracking is one append-only ledger entry. ID is a monotonically
// increasing identity, so it also encodes insertion order.
type OrderTracking struct {
	ID          int64                `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Status      enums.TrackingStatus `gorm:"column:status;type:tracking_status;not null"`
	OccurredAt  time.Time            `gorm:"column:occurred_at;not null"`
	Description string               `gorm:"column:description;not null;default:''"`
	Completed   bool                 `gorm:"column:completed;not null;default:false"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the ledger table name.
func (OrderTracking) TableName() string {
	return "order_tracking"
}
