package cart

import (
	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

type ItemDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	ProductPrice string    `json:"product_price"`
	ProductImage string    `json:"product_image"`
	Quantity     int       `json:"quantity"`
	Subtotal     string    `json:"subtotal"`
}

// CartDTO is the priced cart returned to the storefront.
type CartDTO struct {
	ID       uuid.UUID `json:"id"`
	Region   *string   `json:"region"`
	Items    []ItemDTO `json:"items"`
	Subtotal string    `json:"subtotal"`
	Shipping string    `json:"shipping"`
	Discount string    `json:"discount"`
	Total    string    `json:"total"`
}

type AddItemInput struct {
	ProductID   uuid.UUID
	Quantity    int
	Description []byte
}

func toDTO(cart *models.Cart, items []models.CartItem, totals Totals) *CartDTO {
	dto := &CartDTO{
		ID:       cart.ID,
		Region:   cart.Region,
		Items:    make([]ItemDTO, 0, len(items)),
		Subtotal: totals.Subtotal.StringFixed(2),
		Shipping: totals.Shipping.StringFixed(2),
		Discount: totals.Discount.StringFixed(2),
		Total:    totals.Total.StringFixed(2),
	}
	for _, item := range items {
		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  LineTotal(item).StringFixed(2),
		}
		if item.Product != nil {
			line.ProductTitle = item.Product.Title
			line.ProductPrice = item.Product.CurrentPrice.StringFixed(2)
			line.ProductImage = item.Product.MainImage
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
