package watchlist

import (
	product "github.com/asookemart/asooke-backend/internal/products"
)

const shortDescriptionLen = 80

// ItemDTO is a watched product card.
type ItemDTO struct {
	product.ProductDTO
	ShortDescription string `json:"short_description"`
	Watchlisted      bool   `json:"watchlisted"`
}

type ToggleResult struct {
	Watchlisted bool `json:"watchlisted"`
}

// CountsDTO feeds the header badges.
type CountsDTO struct {
	ItemCount      int64 `json:"item_count"`
	WatchlistCount int64 `json:"watchlist_count"`
}

func shorten(description string) string {
	runes := []rune(description)
	if len(runes) <= shortDescriptionLen {
		return description
	}
	return string(runes[:shortDescriptionLen]) + "..."
}
