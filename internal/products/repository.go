package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// RelatedLimit caps the related products shown on a detail page.
const RelatedLimit = 8

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) displayed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("products.display_product = ?", true)
}

func applyFilters(q *gorm.DB, f ListFilters) *gorm.DB {
	if f.Badge != nil {
		q = q.Where("products.badge = ?", string(*f.Badge))
	}
	if f.MinPrice != nil {
		q = q.Where("products.current_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.current_price <= ?", *f.MaxPrice)
	}
	if f.Rating != nil {
		q = q.Where("products.rating = ?", *f.Rating)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("products.id IN (?)", categoryMatch(q, c))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"(LOWER(products.title) LIKE ? OR LOWER(products.product_number) LIKE ? OR products.id IN (?))",
			like, like, categoryMatch(q, s),
		)
	}
	return q
}

// categoryMatch selects product ids whose category name contains needle, case-insensitively.
func categoryMatch(q *gorm.DB, needle string) *gorm.DB {
	return q.Session(&gorm.Session{NewDB: true}).
		Table("product_categories AS pc").
		Select("pc.product_id").
		Joins("JOIN categories c ON c.id = pc.category_id").
		Where("LOWER(c.name) LIKE ?", "%"+strings.ToLower(needle)+"%")
}

// List returns one page of displayed products and the filtered total.
func (r *Repository) List(ctx context.Context, in ListProductsInput) ([]models.Product, int64, error) {
	page := in.Pagination.Normalize()

	var total int64
	if err := applyFilters(r.displayed(ctx), in.Filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := applyFilters(r.displayed(ctx), in.Filters).
		Preload("Categories").
		Order(in.Filters.Ordering.clause()).
		Order("products.id").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindDisplayed loads a storefront product with its option lists. Hidden products are not found.
func (r *Repository) FindDisplayed(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.displayed(ctx).
		Preload("Categories").
		Preload("Colors").
		Preload("Sizes").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("products.id = ?", id).
		Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads any product, displayed or not.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Related returns up to RelatedLimit displayed products sharing a category with product.
func (r *Repository) Related(ctx context.Context, product *models.Product) ([]models.Product, error) {
	if len(product.Categories) == 0 {
		return []models.Product{}, nil
	}
	categoryIDs := make([]uuid.UUID, 0, len(product.Categories))
	for _, c := range product.Categories {
		categoryIDs = append(categoryIDs, c.ID)
	}

	sharing := r.db.Session(&gorm.Session{NewDB: true}).
		Table("product_categories").
		Select("product_id").
		Where("category_id IN ?", categoryIDs)

	var rows []models.Product
	err := r.displayed(ctx).
		Preload("Categories").
		Where("products.id IN (?)", sharing).
		Where("products.id <> ?", product.ID).
		Order("products.created_at DESC").
		Limit(RelatedLimit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Categories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// EnsureCategory returns the category with name, creating it when missing.
func (r *Repository) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	category := models.Category{ID: uuid.New(), Name: name}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&category).Error
	if err != nil {
		return nil, err
	}
	var stored models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *Repository) DeliveryFees(ctx context.Context) ([]models.DeliveryFee, error) {
	var rows []models.DeliveryFee
	err := r.db.WithContext(ctx).Order("label ASC").Find(&rows).Error
	return rows, err
}

// Create inserts the product and its child rows. Categories must already exist.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Activate flips display_product on for the given ids, or every hidden product when ids is empty.
func (r *Repository) Activate(ctx context.Context, ids []uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("display_product = ?", false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Update("display_product", true)
	return res.RowsAffected, res.Error
}
