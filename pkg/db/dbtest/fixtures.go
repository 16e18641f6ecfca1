package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

// SeedUser inserts an active user with the given role.
func SeedUser(t testing.TB, conn *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:        id,
		Email:     fmt.Sprintf("%s_%s@example.com", role, id.String()[:8]),
		FirstName: "Ada",
		LastName:  "Obi",
		Role:      role,
		IsActive:  true,
	}
	if role == enums.RoleRider {
		number := fmt.Sprintf("A0-DR-%s", strings.ToUpper(id.String()[:4]))
		user.RiderNumber = &number
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedProduct inserts a displayed product at the given naira price.
func SeedProduct(t testing.TB, conn *gorm.DB, title string, price int64) *models.Product {
	t.Helper()
	id := uuid.New()
	product := &models.Product{
		ID:             id,
		Title:          title,
		Slug:           strings.ToLower(strings.ReplaceAll(title, " ", "-")) + "-" + id.String()[:6],
		CurrentPrice:   decimal.NewFromInt(price),
		MainImage:      "https://cdn.example.com/" + id.String() + ".jpg",
		DisplayProduct: true,
		ProductNumber:  "#AO-P-" + strings.ToUpper(id.String()[:6]),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedDeliveryFee inserts one region of the fee table.
func SeedDeliveryFee(t testing.TB, conn *gorm.DB, region string, fee int64) {
	t.Helper()
	row := &models.DeliveryFee{Region: region, Label: strings.ToUpper(region[:1]) + region[1:], Fee: decimal.NewFromInt(fee)}
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("seed delivery fee: %v", err)
	}
}

// SeedOrder inserts a bare order with no items or tracking events.
func SeedOrder(t testing.TB, conn *gorm.DB, userID uuid.UUID, total int64) *models.Order {
	t.Helper()
	id := uuid.New()
	suffix := strings.ToUpper(id.String()[:6])
	order := &models.Order{
		ID:               id,
		UserID:           userID,
		OrderNumber:      "#AO-OD-" + suffix,
		TrackingNumber:   "#AO-OT-" + suffix,
		PaymentReference: "AO-" + id.String(),
		Subtotal:         decimal.NewFromInt(total),
		ShippingFee:      decimal.Zero,
		Discount:         decimal.Zero,
		Total:            decimal.NewFromInt(total),
		Carrier:          "Aso Oke Express",
		CreatedAt:        time.Now().UTC(),
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// SeedTracking appends raw events, bypassing sequence checks.
func SeedTracking(t testing.TB, conn *gorm.DB, orderID uuid.UUID, statuses ...enums.TrackingStatus) {
	t.Helper()
	for _, status := range statuses {
		event := &models.OrderTracking{OrderID: orderID, Status: status, OccurredAt: time.Now().UTC(), Completed: true}
		if err := conn.Create(event).Error; err != nil {
			t.Fatalf("seed tracking: %v", err)
		}
	}
}
