package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/asookemart/asooke-backend/pkg/pagination"
)

// Ordering is a whitelisted sort key for the storefront listing.
type Ordering string

const (
	OrderPriceAsc   Ordering = "current_price"
	OrderPriceDesc  Ordering = "-current_price"
	OrderRatingAsc  Ordering = "rating"
	OrderRatingDesc Ordering = "-rating"
	OrderOldest     Ordering = "created_at"
	OrderNewest     Ordering = "-created_at"
)

var orderClauses = map[Ordering]string{
	OrderPriceAsc:   "products.current_price ASC",
	OrderPriceDesc:  "products.current_price DESC",
	OrderRatingAsc:  "products.rating ASC",
	OrderRatingDesc: "products.rating DESC",
	OrderOldest:     "products.created_at ASC",
	OrderNewest:     "products.created_at DESC",
}

// ParseOrdering accepts the empty string as newest first.
func ParseOrdering(value string) (Ordering, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return OrderNewest, nil
	}
	o := Ordering(value)
	if _, ok := orderClauses[o]; !ok {
		return "", fmt.Errorf("invalid ordering %q", value)
	}
	return o, nil
}

func (o Ordering) clause() string {
	if c, ok := orderClauses[o]; ok {
		return c
	}
	return orderClauses[OrderNewest]
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Badge    *enums.ProductBadge
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Rating   *decimal.Decimal
	Category string
	Search   string
	Ordering Ordering
}

type ListProductsInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}
