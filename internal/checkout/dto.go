package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingInfo is the delivery payload submitted with checkout. Total is the
// amount the storefront displayed and must match the live cart exactly.
type ShippingInfo struct {
	FirstName string          `json:"first_name" validate:"required,max=100"`
	LastName  string          `json:"last_name" validate:"required,max=100"`
	Address   string          `json:"address" validate:"required,max=255"`
	Apartment string          `json:"apartment,omitempty" validate:"omitempty,max=255"`
	City      string          `json:"city" validate:"required,max=100"`
	State     string          `json:"state" validate:"required,max=100"`
	Phone     string          `json:"phone" validate:"required,ngphone"`
	AltPhone  string          `json:"alt_phone,omitempty" validate:"omitempty,ngphone"`
	Email     string          `json:"email,omitempty" validate:"omitempty,email"`
	OtherInfo string          `json:"other_info,omitempty" validate:"omitempty,max=1000"`
	Total     decimal.Decimal `json:"total"`
}

// InitiateResult points the buyer at the hosted payment page.
type InitiateResult struct {
	Message          string `json:"message"`
	AuthorizationURL string `json:"checkout_url"`
	Reference        string `json:"reference"`
}

// ConfirmResult describes the order a confirmed payment produced.
type ConfirmResult struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	Amount           string    `json:"amount"`
	CreatedAt        time.Time `json:"created_at"`
	AlreadyProcessed bool      `json:"already_processed"`
}

// metadata is echoed back by the provider on verify.
type metadata struct {
	Shipping ShippingInfo `json:"shipping"`
	CartID   uuid.UUID    `json:"cart_id"`
	UserID   uuid.UUID    `json:"user_id"`
}
