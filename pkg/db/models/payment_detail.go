package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentDetail records how an order was paid, as reported by the provider.
type PaymentDetail struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Method     string     `gorm:"column:method;not null"`
	Channel    *string    `gorm:"column:channel"`
	CardLast4  *string    `gorm:"column:card_last4"`
	ExpiryDate *string    `gorm:"column:expiry_date"`
	AmountKobo int64      `gorm:"column:amount_kobo;not null;default:0"`
	PaidAt     *time.Time `gorm:"column:paid_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
