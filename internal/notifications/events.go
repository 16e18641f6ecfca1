// Package notifications renders customer emails and routes ledger-driven ones
// either straight to the mailer or through Pub/Sub for the worker to send.
package notifications

import (
	"time"

	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderStatusEvent is emitted after a tracking event is appended.
type OrderStatusEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	OrderNumber    string               `json:"order_number"`
	TrackingNumber string               `json:"tracking_number"`
	Email          string               `json:"email"`
	CustomerName   string               `json:"customer_name"`
	Status         enums.TrackingStatus `json:"status"`
	Description    string               `json:"description"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// DeliveryConfirmedEvent is emitted once a rider closes out a delivery.
type DeliveryConfirmedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	Email        string    `json:"email"`
	CustomerName string    `json:"customer_name"`
	RiderName    string    `json:"rider_name"`
	Stars        int       `json:"stars"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

// Envelope is the unit handed to a Dispatcher and carried over Pub/Sub.
type Envelope struct {
	ID                uuid.UUID               `json:"id"`
	Type              enums.NotificationType  `json:"type"`
	OrderStatus       *OrderStatusEvent       `json:"order_status,omitempty"`
	DeliveryConfirmed *DeliveryConfirmedEvent `json:"delivery_confirmed,omitempty"`
}
