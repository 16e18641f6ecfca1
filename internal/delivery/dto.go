package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/internal/orders"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

// recentDeliveriesLimit caps the rider dashboard history.
const recentDeliveriesLimit = 10

type MarkDeliveredInput struct {
	OrderNumber string
	Notes       string
	Stars       int
}

type OTPSentDTO struct {
	Message     string    `json:"message"`
	OrderNumber string    `json:"order_number"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DeliveryDetailDTO is what the rider sees once the customer's code checks out.
type DeliveryDetailDTO struct {
	OrderID         uuid.UUID                  `json:"order_id"`
	OrderNumber     string                     `json:"order_number"`
	CustomerName    string                     `json:"customer_name"`
	Total           string                     `json:"total"`
	ShippingAddress *orders.ShippingAddressDTO `json:"shipping_address"`
	Items           []orders.OrderItemDTO      `json:"items"`
}

type DeliveredDTO struct {
	OrderNumber      string    `json:"order_number"`
	DeliveredAt      time.Time `json:"delivered_at"`
	Stars            int       `json:"stars"`
	AlreadyDelivered bool      `json:"already_delivered"`
}

type ProfileDTO struct {
	Name            string `json:"name"`
	RiderID         string `json:"rider_id"`
	DeliveriesCount int64  `json:"deliveries_count"`
}

type RecentDeliveryDTO struct {
	OrderNumber  string     `json:"order_number"`
	CustomerName string     `json:"customer_name"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Amount       string     `json:"amount"`
}

type AssignedOrderDTO struct {
	OrderID         uuid.UUID                  `json:"order_id"`
	OrderNumber     string                     `json:"order_number"`
	TrackingNumber  string                     `json:"tracking_number"`
	CustomerName    string                     `json:"customer_name"`
	Status          enums.TrackingStatus       `json:"status"`
	Total           string                     `json:"total"`
	ShippingAddress *orders.ShippingAddressDTO `json:"shipping_address"`
	CreatedAt       time.Time                  `json:"created_at"`
}
