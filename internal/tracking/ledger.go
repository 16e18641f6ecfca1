// Package tracking owns the append-only order status ledger.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/notifications"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/metrics"
)

var (
	ErrSequenceViolation = pkgerrors.New(pkgerrors.CodeSequenceViolation, "status does not follow the tracking sequence")
	ErrOrderNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
)

// PlacedDescription is recorded on the first event of every order.
const PlacedDescription = "Order has been placed and ready for processing."

var defaultDescriptions = map[enums.TrackingStatus]string{
	enums.TrackingStatusPlaced:     PlacedDescription,
	enums.TrackingStatusProcessing: "Your order is being prepared.",
	enums.TrackingStatusShipped:    "Your order has left our warehouse.",
	enums.TrackingStatusInTransit:  "Your order is on its way to you.",
	enums.TrackingStatusDelivered:  "Your order has been delivered.",
	enums.TrackingStatusCancelled:  "Your order has been cancelled.",
}

// Notifier is told about every committed status change.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, ev notifications.OrderStatusEvent) error
}

type AppendInput struct {
	OrderID     uuid.UUID
	Status      enums.TrackingStatus
	Description string
	OccurredAt  time.Time
}

// Ledger appends tracking events and answers status queries.
type Ledger struct {
	db       *gorm.DB
	repo     Repository
	bound    bool
	notifier Notifier
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewLedger(db *gorm.DB, notifier Notifier, m *metrics.LedgerMetrics, logg *logger.Logger) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Ledger{
		db:       db,
		repo:     NewRepository(db),
		notifier: notifier,
		metrics:  m,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// WithTx binds the ledger to the caller's transaction. A bound ledger does not
// notify; the caller calls Notify once its transaction commits.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	clone := *l
	clone.db = tx
	clone.repo = l.repo.WithTx(tx)
	clone.bound = true
	return &clone
}

func (l *Ledger) Append(ctx context.Context, in AppendInput) (*models.OrderTracking, error) {
	if in.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !in.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tracking status %q", in.Status))
	}

	if l.bound {
		return l.append(ctx, l.repo, in)
	}

	var event *models.OrderTracking
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = l.append(ctx, l.repo.WithTx(tx), in)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Notify(ctx, event)
	return event, nil
}

func (l *Ledger) append(ctx context.Context, repo Repository, in AppendInput) (*models.OrderTracking, error) {
	if err := repo.LockOrder(ctx, in.OrderID); err != nil {
		return nil, err
	}
	prior, err := repo.ListByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(prior, in.Status); err != nil {
		l.metrics.Rejected(in.Status)
		return nil, err
	}

	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = l.now()
	}
	description := in.Description
	if description == "" {
		description = defaultDescriptions[in.Status]
	}

	event := &models.OrderTracking{
		OrderID:     in.OrderID,
		Status:      in.Status,
		OccurredAt:  occurred.UTC(),
		Description: description,
		Completed:   true,
	}
	if err := repo.Create(ctx, event); err != nil {
		return nil, err
	}
	l.metrics.Appended(in.Status)
	return event, nil
}

// checkTransition enforces the forward-only sequence. Cancelled is always accepted.
func checkTransition(prior []models.OrderTracking, next enums.TrackingStatus) error {
	if next == enums.TrackingStatusCancelled {
		return nil
	}

	if len(prior) == 0 {
		if next != enums.TrackingStatusPlaced {
			return violation("none", next)
		}
		return nil
	}

	last := prior[len(prior)-1].Status
	for _, event := range prior {
		if event.Status.IsTerminal() {
			return violation(event.Status.String(), next)
		}
	}
	if next.Position() != last.Position()+1 {
		return violation(last.String(), next)
	}
	return nil
}

func violation(from string, to enums.TrackingStatus) error {
	return pkgerrors.Wrap(pkgerrors.CodeSequenceViolation, ErrSequenceViolation, fmt.Sprintf("cannot move from %s to %s", from, to))
}

// Notify reports a committed event. Failures are logged and swallowed.
func (l *Ledger) Notify(ctx context.Context, event *models.OrderTracking) {
	if l.notifier == nil || event == nil {
		return
	}
	logCtx := ctx
	if l.logg != nil {
		logCtx = l.logg.WithFields(ctx, map[string]any{
			"order_id": event.OrderID.String(),
			"status":   event.Status.String(),
		})
	}

	order, err := NewRepository(l.db).FindOrder(ctx, event.OrderID)
	if err == nil {
		err = l.notifier.OrderStatusChanged(ctx, statusEvent(order, event))
	}
	if err != nil && l.logg != nil {
		l.logg.Error(logCtx, "tracking.notify_failed", err)
	}
}

func statusEvent(order *models.Order, event *models.OrderTracking) notifications.OrderStatusEvent {
	ev := notifications.OrderStatusEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		TrackingNumber: order.TrackingNumber,
		Status:         event.Status,
		Description:    event.Description,
		OccurredAt:     event.OccurredAt,
	}
	if order.User != nil {
		ev.Email = order.User.Email
		ev.CustomerName = order.User.FullName()
	}
	return ev
}

// Current is the status of the most recently inserted event, placed when none exist.
func (l *Ledger) Current(ctx context.Context, orderID uuid.UUID) (enums.TrackingStatus, error) {
	latest, err := l.repo.Latest(ctx, orderID)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return enums.TrackingStatusPlaced, nil
	}
	return latest.Status, nil
}

// CurrentForOrders resolves Current for many orders in one query.
func (l *Ledger) CurrentForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]enums.TrackingStatus, error) {
	latest, err := l.repo.LatestStatuses(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range orderIDs {
		if _, ok := latest[id]; !ok {
			latest[id] = enums.TrackingStatusPlaced
		}
	}
	return latest, nil
}

func (l *Ledger) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error) {
	return l.repo.ListByOrderID(ctx, orderID)
}
