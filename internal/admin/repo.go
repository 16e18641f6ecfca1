package admin

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

// latestEvent joins every order to its newest ledger row, if any.
const latestEvent = `LEFT JOIN order_tracking t ON t.id = (SELECT MAX(lt.id) FROM order_tracking lt WHERE lt.order_id = o.id)`

type statusRow struct {
	Status   sql.NullString
	Assigned bool
	Orders   int64
	Revenue  decimal.NullDecimal
}

type orderRow struct {
	ID        uuid.UUID
	Total     decimal.Decimal
	CreatedAt time.Time
	Status    sql.NullString
}

type roleRow struct {
	Role  enums.Role
	Users int64
}

// Repository answers the aggregate queries behind the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StatusBreakdown counts orders and sums their totals by current status and
// whether a rider is attached. A null status means the order has no events.
func (r *Repository) StatusBreakdown(ctx context.Context) ([]statusRow, error) {
	var rows []statusRow
	err := r.db.WithContext(ctx).Raw(`
SELECT t.status AS status,
       (o.dispatcher_id IS NOT NULL) AS assigned,
       COUNT(*) AS orders,
       SUM(o.total) AS revenue
FROM orders o ` + latestEvent + `
GROUP BY t.status, (o.dispatcher_id IS NOT NULL)`).Scan(&rows).Error
	return rows, err
}

// OrdersSince lists orders created at or after since with their current status.
func (r *Repository) OrdersSince(ctx context.Context, since time.Time) ([]orderRow, error) {
	var rows []orderRow
	err := r.db.WithContext(ctx).Raw(`
SELECT o.id AS id, o.total AS total, o.created_at AS created_at, t.status AS status
FROM orders o `+latestEvent+`
WHERE o.created_at >= ?
ORDER BY o.created_at`, since.UTC()).Scan(&rows).Error
	return rows, err
}

func (r *Repository) UsersByRole(ctx context.Context) (map[enums.Role]int64, error) {
	var rows []roleRow
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("role, COUNT(*) AS users").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.Role]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Users
	}
	return out, nil
}

// CountProducts returns the catalogue size and how many products are on display.
func (r *Repository) CountProducts(ctx context.Context) (total, displayed int64, err error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if err = q.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.Product{}).Where("display_product = ?", true).Count(&displayed).Error
	return total, displayed, err
}
