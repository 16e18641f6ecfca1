// Package delivery runs the rider side of an order: the customer's one-time
// code, the final delivered transition and the rider dashboard.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/notifications"
	"github.com/asookemart/asooke-backend/internal/orders"
	"github.com/asookemart/asooke-backend/internal/tracking"
	"github.com/asookemart/asooke-backend/internal/verification"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/mailer"
)

var (
	ErrNotInTransit   = pkgerrors.New(pkgerrors.CodeNotInTransit, "order is not in transit")
	ErrOTPExpired     = verification.ErrExpired
	ErrOTPMismatch    = verification.ErrMismatch
	ErrOTPNotIssued   = verification.ErrNotIssued
	ErrOTPUsed        = verification.ErrUsed
	ErrOTPLocked      = verification.ErrLocked
	ErrOTPNotVerified = pkgerrors.New(pkgerrors.CodeValidation, "the customer's delivery code has not been verified")
	ErrInvalidRating  = pkgerrors.New(pkgerrors.CodeInvalidRating, "stars must be between 1 and 5")
	ErrNotAssigned    = pkgerrors.New(pkgerrors.CodeForbidden, "order is assigned to another rider")
	ErrRiderNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type codeStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (int, error)
	Verify(ctx context.Context, userID uuid.UUID, code int) error
	VerifiedSince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type confirmationNotifier interface {
	DeliveryConfirmed(ctx context.Context, ev notifications.DeliveryConfirmedEvent) error
}

type Service interface {
	SendOTP(ctx context.Context, riderID uuid.UUID, orderNumber string) (*OTPSentDTO, error)
	VerifyOTP(ctx context.Context, riderID uuid.UUID, orderNumber string, code int) (*DeliveryDetailDTO, error)
	MarkDelivered(ctx context.Context, riderID uuid.UUID, in MarkDeliveredInput) (*DeliveredDTO, error)
	Profile(ctx context.Context, riderID uuid.UUID) (*ProfileDTO, error)
	RecentDeliveries(ctx context.Context, riderID uuid.UUID) ([]RecentDeliveryDTO, error)
	AssignedOrders(ctx context.Context, riderID uuid.UUID) ([]AssignedOrderDTO, error)
}

type ServiceParams struct {
	Tx       txRunner
	Orders   orders.Repository
	Feedback *FeedbackRepository
	Ledger   *tracking.Ledger
	Codes    codeStore
	Users    userLoader
	Mailer   mailer.Sender
	Notifier confirmationNotifier
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	feedback *FeedbackRepository
	ledger   *tracking.Ledger
	codes    codeStore
	users    userLoader
	mailer   mailer.Sender
	notifier confirmationNotifier
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case p.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Feedback == nil:
		return nil, fmt.Errorf("feedback repository required")
	case p.Ledger == nil:
		return nil, fmt.Errorf("tracking ledger required")
	case p.Codes == nil:
		return nil, fmt.Errorf("code store required")
	case p.Users == nil:
		return nil, fmt.Errorf("user loader required")
	case p.Mailer == nil:
		return nil, fmt.Errorf("mailer required")
	}
	return &service{
		tx:       p.Tx,
		orders:   p.Orders,
		feedback: p.Feedback,
		ledger:   p.Ledger,
		codes:    p.Codes,
		users:    p.Users,
		mailer:   p.Mailer,
		notifier: p.Notifier,
		logg:     p.Logger,
		now:      time.Now,
	}, nil
}

// SendOTP emails a fresh code to the order's customer. The mail is sent
// inline so the rider sees a delivery failure immediately.
func (s *service) SendOTP(ctx context.Context, riderID uuid.UUID, orderNumber string) (*OTPSentDTO, error) {
	order, err := s.riderOrder(ctx, riderID, orderNumber)
	if err != nil {
		return nil, err
	}
	if _, err := s.inTransitSince(ctx, order.ID); err != nil {
		return nil, err
	}

	code, err := s.codes.Issue(ctx, order.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue delivery code")
	}
	email, name := customerContact(order)
	msg, err := notifications.DeliveryOTPMessage(email, name, order.OrderNumber, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render delivery code email")
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to send delivery code")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "delivery.otp_sent")
	}
	return &OTPSentDTO{
		Message:     "OTP sent to the customer's email.",
		OrderNumber: order.OrderNumber,
		ExpiresAt:   s.now().Add(verification.Window).UTC(),
	}, nil
}

func (s *service) VerifyOTP(ctx context.Context, riderID uuid.UUID, orderNumber string, code int) (*DeliveryDetailDTO, error) {
	order, err := s.riderOrder(ctx, riderID, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Verify(ctx, order.UserID, code); err != nil {
		return nil, err
	}

	_, name := customerContact(order)
	return &DeliveryDetailDTO{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    name,
		Total:           order.Total.StringFixed(2),
		ShippingAddress: orders.ShippingFromModel(order.ShippingAddress),
		Items:           orders.ItemsFromModel(order.Items),
	}, nil
}

// MarkDelivered closes out an order the customer has confirmed with their
// code. Repeating it for an order this rider already delivered only updates
// the rating.
func (s *service) MarkDelivered(ctx context.Context, riderID uuid.UUID, in MarkDeliveredInput) (*DeliveredDTO, error) {
	if in.Stars < 1 || in.Stars > 5 {
		return nil, ErrInvalidRating
	}
	order, err := s.riderOrder(ctx, riderID, in.OrderNumber)
	if err != nil {
		return nil, err
	}
	rider, err := s.users.FindByID(ctx, riderID)
	if err != nil {
		return nil, ErrRiderNotFound
	}

	history, err := s.ledger.History(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	feedback := &models.OrderFeedback{
		OrderID: order.ID,
		RiderID: &riderID,
		Stars:   in.Stars,
		Comment: strings.TrimSpace(in.Notes),
	}

	if last := lastEvent(history); last != nil && last.Status == enums.TrackingStatusDelivered {
		if err := s.feedback.Upsert(ctx, feedback); err != nil {
			return nil, err
		}
		delivered := last.OccurredAt
		if order.DeliveryDate != nil {
			delivered = *order.DeliveryDate
		}
		return &DeliveredDTO{OrderNumber: order.OrderNumber, DeliveredAt: delivered, Stars: in.Stars, AlreadyDelivered: true}, nil
	} else if last != nil && last.Status == enums.TrackingStatusInTransit {
		ok, err := s.codes.VerifiedSince(ctx, order.UserID, last.OccurredAt)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrOTPNotVerified
		}
	}

	now := s.now().UTC()
	var event *models.OrderTracking
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		event, err = s.ledger.WithTx(tx).Append(ctx, tracking.AppendInput{
			OrderID:    order.ID,
			Status:     enums.TrackingStatusDelivered,
			OccurredAt: now,
		})
		if err != nil {
			return err
		}
		if err := s.feedback.WithTx(tx).Upsert(ctx, feedback); err != nil {
			return err
		}
		return s.orders.WithTx(tx).MarkDelivered(ctx, order.ID, riderID, now)
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Notify(ctx, event)
	s.confirmDelivery(ctx, order, rider, in.Stars, now)
	return &DeliveredDTO{OrderNumber: order.OrderNumber, DeliveredAt: now, Stars: in.Stars}, nil
}

func (s *service) confirmDelivery(ctx context.Context, order *models.Order, rider *models.User, stars int, at time.Time) {
	if s.notifier == nil {
		return
	}
	email, name := customerContact(order)
	err := s.notifier.DeliveryConfirmed(ctx, notifications.DeliveryConfirmedEvent{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Email:        email,
		CustomerName: name,
		RiderName:    rider.FullName(),
		Stars:        stars,
		DeliveredAt:  at,
	})
	if err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithOrderNumber(ctx, order.OrderNumber), "delivery.confirmation_failed", err)
	}
}

func (s *service) Profile(ctx context.Context, riderID uuid.UUID) (*ProfileDTO, error) {
	rider, err := s.rider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	count, err := s.orders.CountDeliveredBy(ctx, riderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count deliveries")
	}
	dto := &ProfileDTO{Name: rider.FullName(), DeliveriesCount: count}
	if rider.RiderNumber != nil {
		dto.RiderID = *rider.RiderNumber
	}
	return dto, nil
}

func (s *service) RecentDeliveries(ctx context.Context, riderID uuid.UUID) ([]RecentDeliveryDTO, error) {
	delivered, err := s.orders.ListDeliveredBy(ctx, riderID, recentDeliveriesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent deliveries")
	}
	out := make([]RecentDeliveryDTO, 0, len(delivered))
	for i := range delivered {
		_, name := customerContact(&delivered[i])
		out = append(out, RecentDeliveryDTO{
			OrderNumber:  delivered[i].OrderNumber,
			CustomerName: name,
			DeliveryDate: delivered[i].DeliveryDate,
			Amount:       delivered[i].Total.StringFixed(2),
		})
	}
	return out, nil
}

func (s *service) AssignedOrders(ctx context.Context, riderID uuid.UUID) ([]AssignedOrderDTO, error) {
	assigned, err := s.orders.ListAssignedTo(ctx, riderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned orders")
	}
	ids := make([]uuid.UUID, 0, len(assigned))
	for _, o := range assigned {
		ids = append(ids, o.ID)
	}
	statuses, err := s.ledger.CurrentForOrders(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order statuses")
	}

	out := make([]AssignedOrderDTO, 0, len(assigned))
	for i := range assigned {
		o := &assigned[i]
		// cancelled orders keep their rider but need no visit
		if statuses[o.ID].IsTerminal() {
			continue
		}
		_, name := customerContact(o)
		out = append(out, AssignedOrderDTO{
			OrderID:         o.ID,
			OrderNumber:     o.OrderNumber,
			TrackingNumber:  o.TrackingNumber,
			CustomerName:    name,
			Status:          statuses[o.ID],
			Total:           o.Total.StringFixed(2),
			ShippingAddress: orders.ShippingFromModel(o.ShippingAddress),
			CreatedAt:       o.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) rider(ctx context.Context, riderID uuid.UUID) (*models.User, error) {
	rider, err := s.users.FindByID(ctx, riderID)
	if err != nil || rider.Role != enums.RoleRider {
		return nil, ErrRiderNotFound
	}
	return rider, nil
}

// riderOrder loads an order by number. Orders assigned to someone else are off limits;
// unassigned ones may be picked up by any rider.
func (s *service) riderOrder(ctx context.Context, riderID uuid.UUID, orderNumber string) (*models.Order, error) {
	number := strings.TrimSpace(orderNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_number is required")
	}
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.DispatcherID != nil && *order.DispatcherID != riderID {
		return nil, ErrNotAssigned
	}
	return order, nil
}

// inTransitSince returns when the order went in transit, failing if it has
// not or if a terminal event exists.
func (s *service) inTransitSince(ctx context.Context, orderID uuid.UUID) (time.Time, error) {
	history, err := s.ledger.History(ctx, orderID)
	if err != nil {
		return time.Time{}, err
	}
	for _, ev := range history {
		if ev.Status.IsTerminal() {
			return time.Time{}, ErrNotInTransit
		}
	}
	last := lastEvent(history)
	if last == nil || last.Status != enums.TrackingStatusInTransit {
		return time.Time{}, ErrNotInTransit
	}
	return last.OccurredAt, nil
}

func lastEvent(history []models.OrderTracking) *models.OrderTracking {
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}

// customerContact prefers the account holder and falls back to the shipping address.
func customerContact(order *models.Order) (email, name string) {
	if order.User != nil {
		email, name = order.User.Email, order.User.FullName()
	}
	if a := order.ShippingAddress; a != nil {
		if email == "" {
			email = a.Email
		}
		if name == "" {
			name = strings.TrimSpace(a.FirstName + " " + a.LastName)
		}
	}
	return email, name
}
