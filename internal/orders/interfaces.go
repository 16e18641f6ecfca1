package orders

import (
	"context"
	"time"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindOwnedWithItems(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindOwnedDetail(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Order, int64, error)
	AssignRider(ctx context.Context, orderID, riderID uuid.UUID) error
	MarkDelivered(ctx context.Context, orderID, riderID uuid.UUID, at time.Time) error
	ListAssignedTo(ctx context.Context, riderID uuid.UUID) ([]models.Order, error)
	ListDeliveredBy(ctx context.Context, riderID uuid.UUID, limit int) ([]models.Order, error)
	CountDeliveredBy(ctx context.Context, riderID uuid.UUID) (int64, error)
}
