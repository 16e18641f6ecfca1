package watchlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// Repository encapsulates watchlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a watchlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Add inserts the entry and reports whether it was new.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	item := models.WatchlistItem{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: time.Now().UTC()}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}}, DoNothing: true}).
		Create(&item)
	return res.RowsAffected == 1, res.Error
}

// Remove deletes the user-product entry if it exists.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WatchlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.WatchlistItem{})
	return res.RowsAffected, res.Error
}

// ListProducts returns the watched products, most recently saved first.
func (r *Repository) ListProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var items []models.WatchlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(items))
	for _, item := range items {
		if item.Product != nil {
			out = append(out, *item.Product)
		}
	}
	return out, nil
}

func (r *Repository) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.WatchlistItem{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("product_id", &ids).Error
	return ids, err
}

func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.WatchlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WatchlistItem{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
