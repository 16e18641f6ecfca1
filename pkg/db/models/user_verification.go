package models

import (
	"time"

	"github.com/google/uuid"
)

// UserVerification holds the single active one-time code for a user. It backs
// both email verification and delivery OTPs; issuing a new code overwrites it.
type UserVerification struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Token          string    `gorm:"column:token;not null"`
	IssuedAt       time.Time `gorm:"column:issued_at;not null"`
	IsVerified     bool      `gorm:"column:is_verified;not null;default:false"`
	FailedAttempts int       `gorm:"column:failed_attempts;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
