package tracking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

// Repository manages persistence for tracking events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockOrder(ctx context.Context, orderID uuid.UUID) error
	Create(ctx context.Context, event *models.OrderTracking) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error)
	Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderTracking, error)
	LatestStatuses(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]enums.TrackingStatus, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tracking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockOrder takes a row lock on the order so concurrent appends serialise.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) error {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", orderID).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func (r *repository) Create(ctx context.Context, event *models.OrderTracking) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error) {
	var events []models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderTracking, error) {
	var event models.OrderTracking
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

type latestRow struct {
	OrderID uuid.UUID
	Status  enums.TrackingStatus
}

func (r *repository) LatestStatuses(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]enums.TrackingStatus, error) {
	out := make(map[uuid.UUID]enums.TrackingStatus, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []latestRow
	err := r.db.WithContext(ctx).
		Table("order_tracking AS t").
		Select("t.order_id, t.status").
		Where("t.id IN (?)", r.db.Table("order_tracking").
			Select("MAX(id)").
			Where("order_id IN ?", orderIDs).
			Group("order_id")).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OrderID] = row.Status
	}
	return out, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", orderID).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
