package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/asookemart/asooke-backend/pkg/enums"
)

// Product is a fabric listing. Only rows with DisplayProduct set appear in the storefront.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title           string              `gorm:"column:title;not null"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Description     string              `gorm:"column:description;not null;default:''"`
	CurrentPrice    decimal.Decimal     `gorm:"column:current_price;type:numeric(12,2);not null"`
	OriginalPrice   *decimal.Decimal    `gorm:"column:original_price;type:numeric(12,2)"`
	DiscountPercent int                 `gorm:"column:discount_percent;not null;default:0"`
	Rating          decimal.Decimal     `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	ReviewsCount    int                 `gorm:"column:reviews_count;not null;default:0"`
	Badge           *enums.ProductBadge `gorm:"column:badge"`
	MainImage       string              `gorm:"column:main_image;not null;default:''"`
	DisplayProduct  bool                `gorm:"column:display_product;not null;default:false"`
	ProductNumber   string              `gorm:"column:product_number;not null;uniqueIndex"`
	Categories      []Category          `gorm:"many2many:product_categories;joinForeignKey:ProductID;joinReferences:CategoryID"`
	Colors          []ProductColor      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Sizes           []ProductSize       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images          []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Details         []ProductDetail     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductColor is a selectable colourway.
type ProductColor struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Hex       string    `gorm:"column:hex;not null;default:''"`
}

// ProductSize is a selectable cut length or size label.
type ProductSize struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Label     string    `gorm:"column:label;not null"`
}

// ProductImage is an additional gallery image.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
}

// ProductDetail is one tab of long-form copy on the product page.
type ProductDetail struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID              `gorm:"column:product_id;type:uuid;not null;index"`
	Tab       enums.ProductDetailTab `gorm:"column:tab;type:product_detail_tab;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Content   string                 `gorm:"column:content;not null"`
	Position  int                    `gorm:"column:position;not null;default:0"`
}
