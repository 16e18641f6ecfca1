package models

import "github.com/shopspring/decimal"

// DeliveryFee is the flat shipping fee charged for a destination state.
type DeliveryFee struct {
	Region string          `gorm:"column:region;primaryKey"`
	Label  string          `gorm:"column:label;not null"`
	Fee    decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null"`
}
