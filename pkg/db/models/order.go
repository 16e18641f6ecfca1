package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is materialised exactly once per confirmed payment. Monetary fields are
// a snapshot taken at confirmation and never follow later price changes.
type Order struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	User                  *User            `gorm:"foreignKey:UserID"`
	OrderNumber           string           `gorm:"column:order_number;not null;uniqueIndex"`
	TrackingNumber        string           `gorm:"column:tracking_number;not null;uniqueIndex"`
	PaymentReference      string           `gorm:"column:payment_reference;not null;uniqueIndex:ux_orders_payment_reference"`
	Subtotal              decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee           decimal.Decimal  `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Discount              decimal.Decimal  `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total                 decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null"`
	Carrier               string           `gorm:"column:carrier;not null;default:'Aso Oke Express'"`
	OtherInfo             *string          `gorm:"column:other_info"`
	EstimatedDeliveryDate *time.Time       `gorm:"column:estimated_delivery_date"`
	DispatcherID          *uuid.UUID       `gorm:"column:dispatcher_id;type:uuid;index"`
	Dispatcher            *User            `gorm:"foreignKey:DispatcherID"`
	DeliveryDate          *time.Time       `gorm:"column:delivery_date"`
	Items                 []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress       *ShippingAddress `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentDetail         *PaymentDetail   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TrackingEvents        []OrderTracking  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the unit price of a product at purchase time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Position    int             `gorm:"column:position;not null;default:0"`
	Description json.RawMessage `gorm:"column:description;type:jsonb"`
}

// LineTotal is price multiplied by quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
