package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// ProductDTO is the storefront card payload.
type ProductDTO struct {
	ID              uuid.UUID     `json:"id"`
	ProductNumber   string        `json:"product_number"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Badge           *string       `json:"badge,omitempty"`
	MainImage       string        `json:"main_image"`
	CurrentPrice    string        `json:"current_price"`
	OriginalPrice   *string       `json:"original_price,omitempty"`
	DiscountPercent int           `json:"discount_percent"`
	Rating          string        `json:"rating"`
	ReviewsCount    int           `json:"reviews_count"`
	Categories      []CategoryDTO `json:"categories"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ProductDetailDTO adds the full option lists, related products and the viewer's watchlist flag.
type ProductDetailDTO struct {
	ProductDTO
	Description string       `json:"description"`
	Colors      []ColorDTO   `json:"colors"`
	Sizes       []string     `json:"sizes"`
	Images      []string     `json:"images"`
	Details     []DetailDTO  `json:"details"`
	Related     []ProductDTO `json:"related_products"`
	Watchlisted bool         `json:"watchlisted"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

type ColorDTO struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// DetailDTO is one tab of the product page.
type DetailDTO struct {
	Tab     string `json:"tab"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DeliveryFeeDTO struct {
	Region string `json:"region"`
	Label  string `json:"label"`
	Fee    string `json:"fee"`
}

// Money renders a naira amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FromModel maps a product row onto its card payload.
func FromModel(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:              p.ID,
		ProductNumber:   p.ProductNumber,
		Title:           p.Title,
		Slug:            p.Slug,
		MainImage:       p.MainImage,
		CurrentPrice:    Money(p.CurrentPrice),
		DiscountPercent: p.DiscountPercent,
		Rating:          p.Rating.StringFixed(1),
		ReviewsCount:    p.ReviewsCount,
		Categories:      make([]CategoryDTO, 0, len(p.Categories)),
		CreatedAt:       p.CreatedAt,
	}
	if p.Badge != nil {
		badge := p.Badge.String()
		dto.Badge = &badge
	}
	if p.OriginalPrice != nil {
		original := Money(*p.OriginalPrice)
		dto.OriginalPrice = &original
	}
	for _, c := range p.Categories {
		dto.Categories = append(dto.Categories, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return dto
}

func detailFromModel(p models.Product, related []models.Product, watchlisted bool) ProductDetailDTO {
	dto := ProductDetailDTO{
		ProductDTO:  FromModel(p),
		Description: p.Description,
		Colors:      make([]ColorDTO, 0, len(p.Colors)),
		Sizes:       make([]string, 0, len(p.Sizes)),
		Images:      make([]string, 0, len(p.Images)),
		Details:     make([]DetailDTO, 0, len(p.Details)),
		Related:     make([]ProductDTO, 0, len(related)),
		Watchlisted: watchlisted,
	}
	for _, c := range p.Colors {
		dto.Colors = append(dto.Colors, ColorDTO{Name: c.Name, Hex: c.Hex})
	}
	for _, s := range p.Sizes {
		dto.Sizes = append(dto.Sizes, s.Label)
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, img.URL)
	}
	for _, d := range p.Details {
		dto.Details = append(dto.Details, DetailDTO{Tab: d.Tab.String(), Title: d.Title, Content: d.Content})
	}
	for _, r := range related {
		dto.Related = append(dto.Related, FromModel(r))
	}
	return dto
}

// ImportProductInput is one row of an admin bulk import.
type ImportProductInput struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Description     string          `json:"description" validate:"required"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent int             `json:"discount_percent" validate:"gte=0,lte=100"`
	Rating          float64         `json:"rating" validate:"gte=0,lte=5"`
	Badge           string          `json:"badge" validate:"omitempty,oneof='New' 'Best Seller' 'Limited'"`
	MainImage       string          `json:"main_image" validate:"omitempty,url"`
	Images          []string        `json:"images" validate:"omitempty,dive,url"`
	Categories      []string        `json:"category" validate:"required,min=1,dive,required"`
	Sizes           []string        `json:"sizes" validate:"dive,required"`
	Colors          []ColorDTO      `json:"colors" validate:"dive"`
	Details         []ImportDetail  `json:"details" validate:"dive"`
}

// ImportDetail is a product page tab; its title is derived from the tab.
type ImportDetail struct {
	Tab     string `json:"tab" validate:"required,oneof=description details shipping"`
	Content string `json:"content" validate:"required"`
}

// ImportError reports why a single row was skipped.
type ImportError struct {
	Index  int    `json:"index"`
	Errors any    `json:"errors"`
	Reason string `json:"reason,omitempty"`
}

type ImportResult struct {
	Message         string        `json:"message"`
	ProductsCreated int           `json:"products_created"`
	Errors          []ImportError `json:"errors"`
}
