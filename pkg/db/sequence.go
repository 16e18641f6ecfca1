package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// Sequence names backing the human-readable identifiers.
const (
	SequenceOrder    = "order_number"
	SequenceTracking = "tracking_number"
	SequenceProduct  = "product_number"
	SequenceRider    = "rider_number"
)

var nextSequenceSQL = fmt.Sprintf(`INSERT INTO %[1]s (name, value) VALUES (?, 1)
ON CONFLICT (name) DO UPDATE SET value = %[1]s.value + 1
RETURNING value`, models.IDSequence{}.TableName())

// NextSequence atomically increments the named counter and returns the new value.
// Callers run it inside the same transaction that stores the identifier so a
// rolled back insert also releases its number.
func NextSequence(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("tx is required")
	}
	var value int64
	if err := tx.WithContext(ctx).Raw(nextSequenceSQL, name).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("next %s: sequence returned %d", name, value)
	}
	return value, nil
}

func FormatOrderNumber(n int64) string    { return fmt.Sprintf("#AO-OD-%04d", n) }
func FormatTrackingNumber(n int64) string { return fmt.Sprintf("#AO-OT-%04d", n) }
func FormatProductNumber(n int64) string  { return fmt.Sprintf("#AO-P-%04d", n) }
func FormatRiderNumber(n int64) string    { return fmt.Sprintf("A0-DR-%04d", n) }
