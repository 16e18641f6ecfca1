package orders

import (
	"context"
	"errors"
	"time"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items, shipping address and payment detail.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].Position = i
	}
	if order.ShippingAddress != nil && order.ShippingAddress.ID == uuid.Nil {
		order.ShippingAddress.ID = uuid.New()
	}
	if order.PaymentDetail != nil && order.PaymentDetail.ID == uuid.Nil {
		order.PaymentDetail.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("User", "Dispatcher", "TrackingEvents", "Items.Product").Create(order).Error
}

// FindByPaymentReference returns nil when no order carries the reference.
func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_reference = ?", reference).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", orderID).
		Take(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByNumber loads everything a rider sees at the door.
func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("ShippingAddress").
		Preload("Items", orderItems).
		Preload("Items.Product").
		Where("order_number = ?", orderNumber).
		Take(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *repository) FindOwnedWithItems(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("id = ? AND user_id = ?", orderID, userID).
		Take(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *repository) FindOwnedDetail(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Preload("Items.Product").
		Preload("ShippingAddress").
		Preload("PaymentDetail").
		Preload("TrackingEvents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND user_id = ?", orderID, userID).
		Take(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Order
	err := q.
		Preload("Items", orderItems).
		Preload("Items.Product").
		Order("created_at DESC").
		Order("id").
		Offset(params.Offset()).
		Limit(params.Normalize().Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Order
	err := q.
		Preload("User").
		Preload("Dispatcher").
		Order("created_at DESC").
		Order("id").
		Offset(params.Offset()).
		Limit(params.Normalize().Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) AssignRider(ctx context.Context, orderID, riderID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"dispatcher_id": riderID, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkDelivered records who handed the order over and when.
func (r *repository) MarkDelivered(ctx context.Context, orderID, riderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"dispatcher_id": riderID,
			"delivery_date": at.UTC(),
			"updated_at":    at.UTC(),
		}).Error
}

// ListAssignedTo returns the rider's orders that have not been handed over yet.
func (r *repository) ListAssignedTo(ctx context.Context, riderID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("ShippingAddress").
		Where("dispatcher_id = ? AND delivery_date IS NULL", riderID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListDeliveredBy(ctx context.Context, riderID uuid.UUID, limit int) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("dispatcher_id = ? AND delivery_date IS NOT NULL", riderID).
		Order("delivery_date DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repository) CountDeliveredBy(ctx context.Context, riderID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("dispatcher_id = ? AND delivery_date IS NOT NULL", riderID).
		Count(&n).Error
	return n, err
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.position ASC")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return err
}
