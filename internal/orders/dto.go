package orders

import (
	"time"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// listPreviewItems is how many lines an order summary shows.
const listPreviewItems = 3

type OrderItemDTO struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProductImage *string   `json:"product_image"`
	Price        string    `json:"price"`
	Quantity     int       `json:"quantity"`
}

type TrackingDTO struct {
	Status      enums.TrackingStatus `json:"status"`
	Label       string               `json:"label"`
	Date        time.Time            `json:"date"`
	Description string               `json:"description"`
	Completed   bool                 `json:"completed"`
}

// OrderSummaryDTO is one row of the customer's order list.
type OrderSummaryDTO struct {
	ID          uuid.UUID            `json:"id"`
	OrderNumber string               `json:"order_number"`
	CreatedAt   time.Time            `json:"created_at"`
	OrderStatus enums.TrackingStatus `json:"order_status"`
	OrderItems  []OrderItemDTO       `json:"order_items"`
	Subtotal    string               `json:"subtotal"`
	Shipping    string               `json:"shipping"`
	Discount    string               `json:"discount"`
	Total       string               `json:"total"`
}

type ShippingAddressDTO struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	State     string `json:"state"`
	Phone     string `json:"phone"`
	AltPhone  string `json:"alt_phone"`
	Email     string `json:"email"`
}

type PaymentDetailDTO struct {
	Method     string     `json:"method"`
	Channel    *string    `json:"channel"`
	CardLast4  *string    `json:"card_last4"`
	ExpiryDate *string    `json:"expiry_date"`
	PaidAt     *time.Time `json:"paid_at"`
}

type OrderDetailDTO struct {
	ID                    uuid.UUID            `json:"id"`
	OrderNumber           string               `json:"order_number"`
	CreatedAt             time.Time            `json:"created_at"`
	Subtotal              string               `json:"subtotal"`
	ShippingFee           string               `json:"shipping_fee"`
	Discount              string               `json:"discount"`
	Total                 string               `json:"total"`
	TrackingNumber        string               `json:"tracking_number"`
	Carrier               string               `json:"carrier"`
	OrderStatus           enums.TrackingStatus `json:"order_status"`
	EstimatedDeliveryDate *time.Time           `json:"estimated_delivery_date"`
	Items                 []OrderItemDTO       `json:"items"`
	Tracking              []TrackingDTO        `json:"tracking"`
	ShippingAddress       *ShippingAddressDTO  `json:"shipping_address"`
	PaymentDetail         *PaymentDetailDTO    `json:"payment_detail"`
}

// AdminOrderDTO is the back-office view of an order.
type AdminOrderDTO struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    string               `json:"order_number"`
	TrackingNumber string               `json:"tracking_number"`
	CustomerName   string               `json:"customer_name"`
	CustomerEmail  string               `json:"customer_email"`
	OrderStatus    enums.TrackingStatus `json:"order_status"`
	Total          string               `json:"total"`
	RiderID        *uuid.UUID           `json:"rider_id"`
	RiderNumber    *string              `json:"rider_number"`
	DeliveryDate   *time.Time           `json:"delivery_date"`
	CreatedAt      time.Time            `json:"created_at"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func itemDTO(item models.OrderItem) OrderItemDTO {
	dto := OrderItemDTO{
		ProductID: item.ProductID,
		Price:     money(item.Price),
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		dto.ProductName = item.Product.Title
		if item.Product.MainImage != "" {
			image := item.Product.MainImage
			dto.ProductImage = &image
		}
	}
	return dto
}

func itemDTOs(items []models.OrderItem, limit int) []OrderItemDTO {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]OrderItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemDTO(item))
	}
	return out
}

// ItemsFromModel renders every line of an order.
func ItemsFromModel(items []models.OrderItem) []OrderItemDTO {
	return itemDTOs(items, 0)
}

func ShippingFromModel(a *models.ShippingAddress) *ShippingAddressDTO {
	if a == nil {
		return nil
	}
	return &ShippingAddressDTO{
		FullName:  a.FirstName + " " + a.LastName,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Address:   a.Address,
		Apartment: a.Apartment,
		City:      a.City,
		State:     a.State,
		Phone:     a.Phone,
		AltPhone:  a.AltPhone,
		Email:     a.Email,
	}
}

func summaryDTO(order models.Order, status enums.TrackingStatus) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		CreatedAt:   order.CreatedAt,
		OrderStatus: status,
		OrderItems:  itemDTOs(order.Items, listPreviewItems),
		Subtotal:    money(order.Subtotal),
		Shipping:    money(order.ShippingFee),
		Discount:    money(order.Discount),
		Total:       money(order.Total),
	}
}

// TrackingFromModel renders ledger events oldest first.
func TrackingFromModel(events []models.OrderTracking) []TrackingDTO {
	out := make([]TrackingDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, TrackingDTO{
			Status:      ev.Status,
			Label:       ev.Status.Label(),
			Date:        ev.OccurredAt,
			Description: ev.Description,
			Completed:   ev.Completed,
		})
	}
	return out
}

func detailDTO(order *models.Order) *OrderDetailDTO {
	status := enums.TrackingStatusPlaced
	if n := len(order.TrackingEvents); n > 0 {
		status = order.TrackingEvents[n-1].Status
	}
	dto := &OrderDetailDTO{
		ID:                    order.ID,
		OrderNumber:           order.OrderNumber,
		CreatedAt:             order.CreatedAt,
		Subtotal:              money(order.Subtotal),
		ShippingFee:           money(order.ShippingFee),
		Discount:              money(order.Discount),
		Total:                 money(order.Total),
		TrackingNumber:        order.TrackingNumber,
		Carrier:               order.Carrier,
		OrderStatus:           status,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		Items:                 ItemsFromModel(order.Items),
		Tracking:              TrackingFromModel(order.TrackingEvents),
	}
	dto.ShippingAddress = ShippingFromModel(order.ShippingAddress)
	if p := order.PaymentDetail; p != nil {
		dto.PaymentDetail = &PaymentDetailDTO{
			Method:     p.Method,
			Channel:    p.Channel,
			CardLast4:  p.CardLast4,
			ExpiryDate: p.ExpiryDate,
			PaidAt:     p.PaidAt,
		}
	}
	return dto
}

func adminDTO(order models.Order, status enums.TrackingStatus) AdminOrderDTO {
	dto := AdminOrderDTO{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		TrackingNumber: order.TrackingNumber,
		OrderStatus:    status,
		Total:          money(order.Total),
		RiderID:        order.DispatcherID,
		DeliveryDate:   order.DeliveryDate,
		CreatedAt:      order.CreatedAt,
	}
	if order.User != nil {
		dto.CustomerName = order.User.FullName()
		dto.CustomerEmail = order.User.Email
	}
	if order.Dispatcher != nil {
		dto.RiderNumber = order.Dispatcher.RiderNumber
	}
	return dto
}
