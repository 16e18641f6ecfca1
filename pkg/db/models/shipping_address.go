package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingAddress is captured once at checkout and never edited.
type ShippingAddress struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	Address   string    `gorm:"column:address;not null"`
	Apartment string    `gorm:"column:apartment;not null;default:''"`
	City      string    `gorm:"column:city;not null"`
	State     string    `gorm:"column:state;not null"`
	Phone     string    `gorm:"column:phone;not null"`
	AltPhone  string    `gorm:"column:alt_phone;not null;default:''"`
	Email     string    `gorm:"column:email;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
