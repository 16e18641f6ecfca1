package orders

import (
	"context"
	"fmt"

	"github.com/asookemart/asooke-backend/internal/tracking"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/pagination"
	"github.com/asookemart/asooke-backend/pkg/types"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrRiderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
	ErrOrderClosed   = pkgerrors.New(pkgerrors.CodeConflict, "order is already delivered or cancelled")

	// ErrDeliveredByRider guards the final transition: it needs the customer's
	// OTP, so it only happens through POST /api/v1/rider/deliver.
	ErrDeliveredByRider = pkgerrors.New(pkgerrors.CodeValidation, "delivered is recorded by the rider after the delivery code is verified")
)

type statusLedger interface {
	Append(ctx context.Context, in tracking.AppendInput) (*models.OrderTracking, error)
	Current(ctx context.Context, orderID uuid.UUID) (enums.TrackingStatus, error)
	CurrentForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]enums.TrackingStatus, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service answers order reads for customers and admins and routes admin status changes through the ledger.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderSummaryDTO, types.Page, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetailDTO, error)
	AdminList(ctx context.Context, params pagination.Params) ([]AdminOrderDTO, types.Page, error)
	AssignRider(ctx context.Context, orderID, riderID uuid.UUID) error
	AppendTracking(ctx context.Context, input AppendTrackingInput) (*TrackingDTO, error)
}

// AppendTrackingInput is an admin-issued status change.
type AppendTrackingInput struct {
	OrderID     uuid.UUID
	Status      enums.TrackingStatus
	Description string
}

type service struct {
	repo   Repository
	ledger statusLedger
	users  userLoader
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, ledger statusLedger, users userLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("tracking ledger required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	return &service{repo: repo, ledger: ledger, users: users}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderSummaryDTO, types.Page, error) {
	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, types.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	statuses, err := s.ledger.CurrentForOrders(ctx, orderIDs(rows))
	if err != nil {
		return nil, types.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order status")
	}
	out := make([]OrderSummaryDTO, 0, len(rows))
	for _, order := range rows {
		out = append(out, summaryDTO(order, statuses[order.ID]))
	}
	return out, params.Describe(total), nil
}

// Detail is owner-only; another user's order reads as not found.
func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.repo.FindOwnedDetail(ctx, userID, orderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return detailDTO(order), nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) ([]AdminOrderDTO, types.Page, error) {
	rows, total, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, types.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	statuses, err := s.ledger.CurrentForOrders(ctx, orderIDs(rows))
	if err != nil {
		return nil, types.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order status")
	}
	out := make([]AdminOrderDTO, 0, len(rows))
	for _, order := range rows {
		out = append(out, adminDTO(order, statuses[order.ID]))
	}
	return out, params.Describe(total), nil
}

// AssignRider hands an open order to a rider. Reassignment is allowed until the order closes.
func (s *service) AssignRider(ctx context.Context, orderID, riderID uuid.UUID) error {
	rider, err := s.users.FindByID(ctx, riderID)
	if err != nil || rider.Role != enums.RoleRider {
		return ErrRiderNotFound
	}
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return ErrOrderNotFound
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	status, err := s.ledger.Current(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order status")
	}
	if status.IsTerminal() {
		return ErrOrderClosed
	}
	if err := s.repo.AssignRider(ctx, orderID, riderID); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign rider")
	}
	return nil
}

func (s *service) AppendTracking(ctx context.Context, input AppendTrackingInput) (*TrackingDTO, error) {
	if input.Status == enums.TrackingStatusDelivered {
		return nil, ErrDeliveredByRider
	}
	event, err := s.ledger.Append(ctx, tracking.AppendInput{
		OrderID:     input.OrderID,
		Status:      input.Status,
		Description: input.Description,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append tracking event")
	}
	dto := TrackingFromModel([]models.OrderTracking{*event})[0]
	return &dto, nil
}

func orderIDs(rows []models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, order := range rows {
		ids = append(ids, order.ID)
	}
	return ids
}
