// Package checkout turns a priced cart into a hosted payment and, once the
// provider confirms it, into exactly one order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/cart"
	"github.com/asookemart/asooke-backend/internal/orders"
	"github.com/asookemart/asooke-backend/internal/tracking"
	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/metrics"
	"github.com/asookemart/asooke-backend/pkg/paystack"
	"github.com/asookemart/asooke-backend/pkg/security"
)

const (
	referencePrefix = "AO-"
	referenceLength = 20
	paymentMethod   = "Paystack"
)

// payment_reference unique index, named as postgres and sqlite report it.
var referenceConstraints = []string{"ux_orders_payment_reference", "orders.payment_reference"}

var (
	ErrCartNotFound        = pkgerrors.New(pkgerrors.CodeValidation, "cart not found")
	ErrEmptyCart           = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	ErrTotalMismatch       = pkgerrors.New(pkgerrors.CodeTotalMismatch, "total mismatch")
	ErrProviderUnavailable = pkgerrors.New(pkgerrors.CodeProviderUnavailable, "payment initialization failed")
	ErrInvalidReference    = pkgerrors.New(pkgerrors.CodeInvalidReference, "payment was unsuccessful or the reference is invalid")
	ErrCheckoutFailed      = pkgerrors.New(pkgerrors.CodeCheckoutFailed, "failed to process transaction")
)

// Provider is the hosted payment gateway.
type Provider interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service executes checkout orchestration.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, info ShippingInfo) (*InitiateResult, error)
	Confirm(ctx context.Context, reference string) (*ConfirmResult, error)
}

// Options carries the deployment-specific settings.
type Options struct {
	CallbackURL           string
	Carrier               string
	EstimatedDeliveryDays int
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Tx       txRunner
	Carts    *cart.Repository
	Orders   orders.Repository
	Users    userLoader
	Ledger   *tracking.Ledger
	Provider Provider
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Options  Options
}

type service struct {
	tx       txRunner
	carts    *cart.Repository
	orders   orders.Repository
	users    userLoader
	ledger   *tracking.Ledger
	provider Provider
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case p.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case p.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Users == nil:
		return nil, fmt.Errorf("user loader required")
	case p.Ledger == nil:
		return nil, fmt.Errorf("tracking ledger required")
	case p.Provider == nil:
		return nil, fmt.Errorf("payment provider required")
	}
	if p.Options.Carrier == "" {
		p.Options.Carrier = "Aso Oke Express"
	}
	if p.Options.EstimatedDeliveryDays <= 0 {
		p.Options.EstimatedDeliveryDays = 7
	}
	return &service{
		tx:       p.Tx,
		carts:    p.Carts,
		orders:   p.Orders,
		users:    p.Users,
		ledger:   p.Ledger,
		provider: p.Provider,
		metrics:  p.Metrics,
		logg:     p.Logger,
		opts:     p.Options,
		now:      time.Now,
	}, nil
}

// Initiate prices the cart, checks the declared total and opens a hosted checkout.
func (s *service) Initiate(ctx context.Context, userID uuid.UUID, info ShippingInfo) (*InitiateResult, error) {
	result, err := s.initiate(ctx, userID, info)
	if err != nil {
		s.metrics.Failed("initiate", string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.Initiated()
	return result, nil
}

func (s *service) initiate(ctx context.Context, userID uuid.UUID, info ShippingInfo) (*InitiateResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "user not found")
	}
	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record == nil {
		return nil, ErrCartNotFound
	}
	items, err := s.carts.Items(ctx, record.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	fees, err := s.carts.FeeTable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fees")
	}

	totals := cart.Aggregate(record, items, fees)
	if !totals.Total.Equal(info.Total) {
		msg := fmt.Sprintf("Total mismatch. Expected ₦%s, got ₦%s", totals.Total.StringFixed(2), info.Total.StringFixed(2))
		return nil, pkgerrors.Wrap(pkgerrors.CodeTotalMismatch, ErrTotalMismatch, msg).WithDetails(map[string]string{
			"expected": totals.Total.StringFixed(2),
			"received": info.Total.StringFixed(2),
		})
	}

	reference, err := security.GenerateReference(referencePrefix, referenceLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate payment reference")
	}

	session, err := s.provider.Initialize(ctx, paystack.InitializeRequest{
		Email:       user.Email,
		Amount:      totals.Total.IntPart() * 100,
		Reference:   reference,
		CallbackURL: s.opts.CallbackURL,
		Metadata:    metadata{Shipping: info, CartID: record.ID, UserID: userID},
	})
	if err != nil {
		s.logWarn(ctx, "checkout.initialize_failed", map[string]any{"reference": reference, "error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, errors.Join(ErrProviderUnavailable, err), "payment initialization failed")
	}

	return &InitiateResult{
		Message:          "Order initialized successfully.",
		AuthorizationURL: session.AuthorizationURL,
		Reference:        reference,
	}, nil
}

// Confirm verifies the payment and materialises the order. It is idempotent by reference.
func (s *service) Confirm(ctx context.Context, reference string) (*ConfirmResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidReference, ErrInvalidReference, "reference is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithField(ctx, "payment_reference", reference)
	}

	result, err := s.confirm(ctx, reference)
	if err != nil {
		s.metrics.Failed("confirm", string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.Confirmed(result.AlreadyProcessed)
	return result, nil
}

func (s *service) confirm(ctx context.Context, reference string) (*ConfirmResult, error) {
	txn, err := s.provider.Verify(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidReference, errors.Join(ErrInvalidReference, err), "payment could not be verified")
	}
	if !txn.Succeeded() {
		return nil, ErrInvalidReference
	}
	var meta metadata
	if err := txn.DecodeMetadata(&meta); err != nil || meta.UserID == uuid.Nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidReference, errors.Join(ErrInvalidReference, err), "payment metadata missing")
	}

	var (
		order    *models.Order
		event    *models.OrderTracking
		replayed bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		record, err := carts.LockByUser(ctx, meta.UserID)
		if err != nil {
			return err
		}
		existing, err := ordersRepo.FindByPaymentReference(ctx, reference)
		if err != nil {
			return err
		}
		if existing != nil {
			order, replayed = existing, true
			return nil
		}
		if record == nil || (meta.CartID != uuid.Nil && record.ID != meta.CartID) {
			return ErrCartNotFound
		}

		order, event, err = s.materialise(ctx, tx, ordersRepo, carts, record, reference, meta, txn)
		return err
	})
	if err != nil && db.IsUniqueViolationAny(err, referenceConstraints...) {
		existing, findErr := s.orders.FindByPaymentReference(ctx, reference)
		if findErr == nil && existing != nil {
			order, replayed, err = existing, true, nil
		}
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "checkout.confirm_failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, errors.Join(ErrCheckoutFailed, err), "failed to process transaction")
	}

	if !replayed {
		s.ledger.Notify(ctx, event)
		if s.logg != nil {
			s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "checkout.order_created")
		}
	}
	return &ConfirmResult{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Amount:           order.Total.StringFixed(2),
		CreatedAt:        order.CreatedAt,
		AlreadyProcessed: replayed,
	}, nil
}

func (s *service) materialise(
	ctx context.Context,
	tx *gorm.DB,
	ordersRepo orders.Repository,
	carts *cart.Repository,
	record *models.Cart,
	reference string,
	meta metadata,
	txn *paystack.Transaction,
) (*models.Order, *models.OrderTracking, error) {
	items, err := carts.Items(ctx, record.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, ErrEmptyCart
	}
	fees, err := carts.FeeTable(ctx)
	if err != nil {
		return nil, nil, err
	}
	totals := cart.Aggregate(record, items, fees)
	if paid := totals.Total.IntPart() * 100; txn.Amount != 0 && txn.Amount != paid {
		s.logWarn(ctx, "checkout.amount_drift", map[string]any{"paid_kobo": txn.Amount, "expected_kobo": paid})
	}

	orderSeq, err := db.NextSequence(ctx, tx, db.SequenceOrder)
	if err != nil {
		return nil, nil, err
	}
	trackingSeq, err := db.NextSequence(ctx, tx, db.SequenceTracking)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	eta := now.AddDate(0, 0, s.opts.EstimatedDeliveryDays)
	order := &models.Order{
		ID:                    uuid.New(),
		UserID:                meta.UserID,
		OrderNumber:           db.FormatOrderNumber(orderSeq),
		TrackingNumber:        db.FormatTrackingNumber(trackingSeq),
		PaymentReference:      reference,
		Subtotal:              totals.Subtotal,
		ShippingFee:           totals.Shipping,
		Discount:              totals.Discount,
		Total:                 totals.Total,
		Carrier:               s.opts.Carrier,
		EstimatedDeliveryDate: &eta,
		CreatedAt:             now,
		UpdatedAt:             now,
		ShippingAddress:       shippingAddress(meta, txn),
		PaymentDetail:         paymentDetail(txn),
	}
	if other := strings.TrimSpace(meta.Shipping.OtherInfo); other != "" {
		order.OtherInfo = &other
	}
	for _, item := range items {
		if item.Product == nil {
			return nil, nil, fmt.Errorf("cart item %s has no product", item.ID)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Product.CurrentPrice,
			Description: item.Description,
		})
	}
	if err := ordersRepo.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	event, err := s.ledger.WithTx(tx).Append(ctx, tracking.AppendInput{
		OrderID:     order.ID,
		Status:      enums.TrackingStatusPlaced,
		Description: tracking.PlacedDescription,
		OccurredAt:  now,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := carts.Delete(ctx, record.ID); err != nil {
		return nil, nil, err
	}
	return order, event, nil
}

func shippingAddress(meta metadata, txn *paystack.Transaction) *models.ShippingAddress {
	info := meta.Shipping
	email := strings.TrimSpace(info.Email)
	if email == "" {
		email = txn.Customer.Email
	}
	return &models.ShippingAddress{
		FirstName: strings.TrimSpace(info.FirstName),
		LastName:  strings.TrimSpace(info.LastName),
		Address:   strings.TrimSpace(info.Address),
		Apartment: strings.TrimSpace(info.Apartment),
		City:      strings.TrimSpace(info.City),
		State:     strings.TrimSpace(info.State),
		Phone:     strings.TrimSpace(info.Phone),
		AltPhone:  strings.TrimSpace(info.AltPhone),
		Email:     email,
	}
}

func paymentDetail(txn *paystack.Transaction) *models.PaymentDetail {
	detail := &models.PaymentDetail{
		Method:     paymentMethod,
		AmountKobo: txn.Amount,
		PaidAt:     txn.PaidAt,
	}
	if txn.Channel != "" {
		channel := txn.Channel
		detail.Channel = &channel
	}
	if last4 := txn.Authorization.Last4; last4 != "" {
		detail.CardLast4 = &last4
	}
	if expiry := txn.Authorization.Expiry(); expiry != "" {
		detail.ExpiryDate = &expiry
	}
	return detail
}

func (s *service) logWarn(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}
