package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/tracking"
	"github.com/asookemart/asooke-backend/internal/users"
	"github.com/asookemart/asooke-backend/pkg/db/dbtest"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	ledger, err := tracking.NewLedger(conn, nil, nil, nil)
	require.NoError(t, err)
	repo := NewRepository(conn)
	svc, err := NewService(repo, ledger, users.NewRepository(conn))
	require.NoError(t, err)
	return svc, repo, conn
}

func createOrder(t *testing.T, repo Repository, userID uuid.UUID, products ...*models.Product) *models.Order {
	t.Helper()
	id := uuid.New()
	order := &models.Order{
		ID:               id,
		UserID:           userID,
		OrderNumber:      "#AO-OD-" + id.String()[:6],
		TrackingNumber:   "#AO-OT-" + id.String()[:6],
		PaymentReference: "AO-" + id.String(),
		Subtotal:         decimal.NewFromInt(9000),
		ShippingFee:      decimal.NewFromInt(500),
		Discount:         decimal.Zero,
		Total:            decimal.NewFromInt(9500),
		Carrier:          "Aso Oke Express",
		ShippingAddress: &models.ShippingAddress{
			FirstName: "Ada", LastName: "Obi", Address: "12 Broad St", City: "Ikeja",
			State: "lagos", Phone: "08031234567", Email: "ada@example.com",
		},
		PaymentDetail: &models.PaymentDetail{Method: "card", AmountKobo: 950000},
	}
	for _, p := range products {
		order.Items = append(order.Items, models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.CurrentPrice})
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestListShowsLatestStatusAndFirstThreeItems(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	other := dbtest.SeedUser(t, conn, enums.RoleCustomer)

	var products []*models.Product
	for _, title := range []string{"Sanyan", "Alaari", "Etu", "Kijipa"} {
		products = append(products, dbtest.SeedProduct(t, conn, title, 2000))
	}
	order := createOrder(t, repo, user.ID, products...)
	dbtest.SeedTracking(t, conn, order.ID, enums.TrackingStatusPlaced, enums.TrackingStatusProcessing)
	createOrder(t, repo, other.ID, products[0])

	rows, page, err := svc.List(ctx, user.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, enums.TrackingStatusProcessing, rows[0].OrderStatus)
	require.Len(t, rows[0].OrderItems, 3)
	assert.Equal(t, "Sanyan", rows[0].OrderItems[0].ProductName)
	assert.Equal(t, "Etu", rows[0].OrderItems[2].ProductName)
	assert.Equal(t, "9500.00", rows[0].Total)
	assert.Equal(t, "500.00", rows[0].Shipping)
}

func TestListDefaultsToPlacedWithoutEvents(t *testing.T) {
	svc, repo, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	createOrder(t, repo, user.ID, dbtest.SeedProduct(t, conn, "Sanyan", 2000))

	rows, _, err := svc.List(context.Background(), user.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.TrackingStatusPlaced, rows[0].OrderStatus)
}

func TestDetailIsOwnerOnly(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	stranger := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	order := createOrder(t, repo, owner.ID, dbtest.SeedProduct(t, conn, "Sanyan", 2000))
	dbtest.SeedTracking(t, conn, order.ID, enums.TrackingStatusPlaced, enums.TrackingStatusProcessing, enums.TrackingStatusShipped)

	detail, err := svc.Detail(ctx, owner.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusShipped, detail.OrderStatus)
	require.Len(t, detail.Tracking, 3)
	assert.Equal(t, enums.TrackingStatusPlaced, detail.Tracking[0].Status)
	require.NotNil(t, detail.ShippingAddress)
	assert.Equal(t, "Ada Obi", detail.ShippingAddress.FullName)
	require.NotNil(t, detail.PaymentDetail)
	assert.Equal(t, "card", detail.PaymentDetail.Method)

	_, err = svc.Detail(ctx, stranger.ID, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAssignRider(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	customer := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	rider := dbtest.SeedUser(t, conn, enums.RoleRider)
	order := createOrder(t, repo, customer.ID, dbtest.SeedProduct(t, conn, "Sanyan", 2000))
	dbtest.SeedTracking(t, conn, order.ID, enums.TrackingStatusPlaced)

	require.ErrorIs(t, svc.AssignRider(ctx, order.ID, customer.ID), ErrRiderNotFound)
	require.ErrorIs(t, svc.AssignRider(ctx, uuid.New(), rider.ID), ErrOrderNotFound)

	require.NoError(t, svc.AssignRider(ctx, order.ID, rider.ID))
	assigned, err := repo.ListAssignedTo(ctx, rider.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, order.ID, assigned[0].ID)

	dbtest.SeedTracking(t, conn, order.ID, enums.TrackingStatusCancelled)
	require.ErrorIs(t, svc.AssignRider(ctx, order.ID, rider.ID), ErrOrderClosed)
}

func TestAppendTrackingGoesThroughLedger(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	order := createOrder(t, repo, user.ID, dbtest.SeedProduct(t, conn, "Sanyan", 2000))
	dbtest.SeedTracking(t, conn, order.ID, enums.TrackingStatusPlaced)

	_, err := svc.AppendTracking(ctx, AppendTrackingInput{OrderID: order.ID, Status: enums.TrackingStatusShipped})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSequenceViolation))

	event, err := svc.AppendTracking(ctx, AppendTrackingInput{OrderID: order.ID, Status: enums.TrackingStatusProcessing, Description: "Weaving done"})
	require.NoError(t, err)
	assert.Equal(t, "Weaving done", event.Description)
	assert.Equal(t, "Processing", event.Label)

	_, err = svc.AppendTracking(ctx, AppendTrackingInput{OrderID: uuid.New(), Status: enums.TrackingStatusPlaced})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAppendTrackingLeavesDeliveredToRider(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	order := createOrder(t, repo, user.ID, dbtest.SeedProduct(t, conn, "Etu", 3000))
	dbtest.SeedTracking(t, conn, order.ID,
		enums.TrackingStatusPlaced, enums.TrackingStatusProcessing, enums.TrackingStatusShipped, enums.TrackingStatusInTransit)

	_, err := svc.AppendTracking(ctx, AppendTrackingInput{OrderID: order.ID, Status: enums.TrackingStatusDelivered})
	require.ErrorIs(t, err, ErrDeliveredByRider)

	var events int64
	require.NoError(t, conn.Model(&models.OrderTracking{}).
		Where("order_id = ? AND status = ?", order.ID, enums.TrackingStatusDelivered).Count(&events).Error)
	assert.Zero(t, events)

	// cancelling an in-transit order stays an admin action
	event, err := svc.AppendTracking(ctx, AppendTrackingInput{OrderID: order.ID, Status: enums.TrackingStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusCancelled, event.Status)
}

func TestRiderQueries(t *testing.T) {
	_, repo, conn := newTestService(t)
	ctx := context.Background()
	customer := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	rider := dbtest.SeedUser(t, conn, enums.RoleRider)
	product := dbtest.SeedProduct(t, conn, "Sanyan", 2000)

	open := createOrder(t, repo, customer.ID, product)
	done := createOrder(t, repo, customer.ID, product)
	require.NoError(t, repo.AssignRider(ctx, open.ID, rider.ID))
	require.NoError(t, repo.MarkDelivered(ctx, done.ID, rider.ID, time.Now()))

	assigned, err := repo.ListAssignedTo(ctx, rider.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, open.ID, assigned[0].ID)

	delivered, err := repo.ListDeliveredBy(ctx, rider.ID, 10)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, done.ID, delivered[0].ID)

	n, err := repo.CountDeliveredBy(ctx, rider.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFindByPaymentReference(t *testing.T) {
	_, repo, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	order := createOrder(t, repo, user.ID, dbtest.SeedProduct(t, conn, "Sanyan", 2000))

	found, err := repo.FindByPaymentReference(ctx, order.PaymentReference)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 1)

	missing, err := repo.FindByPaymentReference(ctx, "AO-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
