package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	fresh := models.Cart{ID: uuid.New(), UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

// FindByUser returns nil when the user has no cart.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.find(r.db.WithContext(ctx), userID)
}

// LockByUser reads the cart with a row lock. Returns nil when the user has no cart.
func (r *Repository) LockByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *Repository) find(q *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := q.Where("user_id = ?", userID).Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Items loads the cart lines with their live product rows, oldest first.
func (r *Repository) Items(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// AddOrIncrement inserts the line or adds quantity to the existing one.
func (r *Repository) AddOrIncrement(ctx context.Context, cartID, productID uuid.UUID, quantity int, description json.RawMessage) error {
	now := time.Now().UTC()
	item := models.CartItem{
		ID:          uuid.New(),
		CartID:      cartID,
		ProductID:   productID,
		Quantity:    quantity,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
				"updated_at": now,
			}),
		}).
		Create(&item).Error
}

// AddIfAbsent inserts the line only when the product is not already in the cart.
func (r *Repository) AddIfAbsent(ctx context.Context, cartID, productID uuid.UUID, quantity int) (bool, error) {
	item := models.CartItem{ID: uuid.New(), CartID: cartID, ProductID: productID, Quantity: quantity}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}}, DoNothing: true}).
		Create(&item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateQuantity only touches lines inside the user's own cart.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id IN (?)", itemID, r.ownedCart(userID)).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, r.ownedCart(userID)).
		Delete(&models.CartItem{})
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) ownedCart(userID uuid.UUID) *gorm.DB {
	return r.db.Session(&gorm.Session{NewDB: true}).Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
}

func (r *Repository) SetRegion(ctx context.Context, cartID uuid.UUID, region string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{"region": region, "updated_at": time.Now().UTC()}).Error
}

// CountItems counts distinct lines in the user's cart.
func (r *Repository) CountItems(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id IN (?)", r.ownedCart(userID)).
		Count(&n).Error
	return n, err
}

// Delete removes the cart and its lines.
func (r *Repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// PurgeIdle deletes carts not touched since cutoff, with their lines.
func (r *Repository) PurgeIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idle := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Cart{}).Select("id").Where("updated_at < ?", cutoff)
		if err := tx.Where("cart_id IN (?)", idle).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("updated_at < ?", cutoff).Delete(&models.Cart{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}

// FeeTable loads every delivery fee row.
func (r *Repository) FeeTable(ctx context.Context) (FeeTable, error) {
	var rows []models.DeliveryFee
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return FeeTableFrom(rows), nil
}

// TouchCart bumps updated_at so active carts escape the idle purge.
func (r *Repository) TouchCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now().UTC()).Error
}
