package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/asookemart/asooke-backend/pkg/db/models"
)

// FeeTable maps a shipping region to its flat delivery fee.
type FeeTable map[string]decimal.Decimal

// FeeTableFrom indexes delivery fee rows by region.
func FeeTableFrom(rows []models.DeliveryFee) FeeTable {
	out := make(FeeTable, len(rows))
	for _, row := range rows {
		out[normalizeRegion(row.Region)] = row.Fee
	}
	return out
}

// Fee is zero for an unset or unknown region.
func (f FeeTable) Fee(region *string) decimal.Decimal {
	if region == nil {
		return decimal.Zero
	}
	if fee, ok := f[normalizeRegion(*region)]; ok {
		return fee
	}
	return decimal.Zero
}

// Totals is the priced view of a cart. Nothing here is persisted.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

type aggregateOptions struct {
	discount decimal.Decimal
}

type Option func(*aggregateOptions)

// WithDiscount subtracts a flat amount from the total.
func WithDiscount(d decimal.Decimal) Option {
	return func(o *aggregateOptions) {
		o.discount = d
	}
}

// Aggregate prices items at their products' current price. Items must have
// Product loaded; an item without one contributes nothing.
func Aggregate(cart *models.Cart, items []models.CartItem, fees FeeTable, opts ...Option) Totals {
	o := aggregateOptions{discount: decimal.Zero}
	for _, opt := range opts {
		opt(&o)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		subtotal = subtotal.Add(LineTotal(item))
	}

	shipping := decimal.Zero
	if cart != nil {
		shipping = fees.Fee(cart.Region)
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: o.discount,
		Total:    subtotal.Add(shipping).Sub(o.discount),
	}
}

// LineTotal is the live price of one cart line.
func LineTotal(item models.CartItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.CurrentPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func normalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}
