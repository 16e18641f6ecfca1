// Package admin backs the back-office dashboard: aggregate stats and rider onboarding.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/asookemart/asooke-backend/internal/users"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/security"
)

// revenueWindowDays is the trailing window reported by Stats.
const revenueWindowDays = 7

var ErrEmailTaken = pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")

type statsSource interface {
	StatusBreakdown(ctx context.Context) ([]statusRow, error)
	OrdersSince(ctx context.Context, since time.Time) ([]orderRow, error)
	UsersByRole(ctx context.Context) (map[enums.Role]int64, error)
	CountProducts(ctx context.Context) (total, displayed int64, err error)
}

type riderCreator interface {
	CreateRider(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type Service interface {
	Stats(ctx context.Context) (*StatsDTO, error)
	CreateRider(ctx context.Context, in CreateRiderInput) (*users.UserDTO, error)
}

type service struct {
	stats    statsSource
	riders   riderCreator
	password config.PasswordConfig
	now      func() time.Time
}

func NewService(stats statsSource, riders riderCreator, password config.PasswordConfig) (Service, error) {
	if stats == nil {
		return nil, fmt.Errorf("stats source required")
	}
	if riders == nil {
		return nil, fmt.Errorf("rider creator required")
	}
	return &service{stats: stats, riders: riders, password: password, now: time.Now}, nil
}

// Stats computes the dashboard figures. Revenue leaves out cancelled orders;
// an order with no ledger events counts as placed.
func (s *service) Stats(ctx context.Context) (*StatsDTO, error) {
	breakdown, err := s.stats.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.stats.UsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	products, displayed, err := s.stats.CountProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatsDTO{
		OrdersByStatus:    make(map[enums.TrackingStatus]int64, len(enums.TrackingStatuses())),
		TotalCustomers:    roles[enums.RoleCustomer],
		TotalRiders:       roles[enums.RoleRider],
		TotalProducts:     products,
		DisplayedProducts: displayed,
	}
	for _, status := range enums.TrackingStatuses() {
		out.OrdersByStatus[status] = 0
	}

	revenue := decimal.Zero
	for _, row := range breakdown {
		status := currentStatus(row.Status.String, row.Status.Valid)
		out.TotalOrders += row.Orders
		out.OrdersByStatus[status] += row.Orders
		if status != enums.TrackingStatusCancelled && row.Revenue.Valid {
			revenue = revenue.Add(row.Revenue.Decimal)
		}
		if row.Assigned && !status.IsTerminal() {
			out.PendingDeliveries += row.Orders
		}
	}
	out.TotalRevenue = revenue.StringFixed(2)

	window, err := s.revenueWindow(ctx)
	if err != nil {
		return nil, err
	}
	out.LastSevenDays = *window
	return out, nil
}

// revenueWindow buckets the trailing window by UTC calendar day, oldest first,
// including days without orders.
func (s *service) revenueWindow(ctx context.Context) (*RevenueWindowDTO, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(revenueWindowDays - 1))

	rows, err := s.stats.OrdersSince(ctx, start)
	if err != nil {
		return nil, err
	}

	days := make([]DailyRevenueDTO, revenueWindowDays)
	sums := make([]decimal.Decimal, revenueWindowDays)
	for i := range days {
		days[i].Date = start.AddDate(0, 0, i).Format(time.DateOnly)
		sums[i] = decimal.Zero
	}

	total := decimal.Zero
	var orders int64
	for _, row := range rows {
		if currentStatus(row.Status.String, row.Status.Valid) == enums.TrackingStatusCancelled {
			continue
		}
		idx := int(row.CreatedAt.UTC().Sub(start) / (24 * time.Hour))
		if idx < 0 || idx >= revenueWindowDays {
			continue
		}
		sums[idx] = sums[idx].Add(row.Total)
		days[idx].Orders++
		total = total.Add(row.Total)
		orders++
	}
	for i := range days {
		days[i].Revenue = sums[i].StringFixed(2)
	}
	return &RevenueWindowDTO{Total: total.StringFixed(2), Orders: orders, Daily: days}, nil
}

func currentStatus(raw string, valid bool) enums.TrackingStatus {
	if !valid || raw == "" {
		return enums.TrackingStatusPlaced
	}
	return enums.TrackingStatus(raw)
}

// CreateRider registers an active rider account with the next rider number.
func (s *service) CreateRider(ctx context.Context, in CreateRiderInput) (*users.UserDTO, error) {
	dto := users.CreateUserDTO{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      enums.RoleRider,
		IsActive:  true,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		dto.Phone = &phone
	}
	if in.Password != "" {
		hash, err := security.HashPassword(in.Password, s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		dto.PasswordHash = &hash
	}

	rider, err := s.riders.CreateRider(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrEmailTaken
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rider")
	}
	return users.FromModel(rider), nil
}
