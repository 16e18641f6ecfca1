package enums

import "fmt"

// ProductBadge is the merchandising ribbon shown on a product card.
type ProductBadge string

const (
	ProductBadgeNew        ProductBadge = "New"
	ProductBadgeBestSeller ProductBadge = "Best Seller"
	ProductBadgeLimited    ProductBadge = "Limited"
)

var validProductBadges = []ProductBadge{
	ProductBadgeNew,
	ProductBadgeBestSeller,
	ProductBadgeLimited,
}

// String implements fmt.Stringer.
func (b ProductBadge) String() string {
	return string(b)
}

// IsValid reports whether the value is a known ProductBadge.
func (b ProductBadge) IsValid() bool {
	for _, candidate := range validProductBadges {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseProductBadge converts raw input into a ProductBadge.
func ParseProductBadge(value string) (ProductBadge, error) {
	for _, candidate := range validProductBadges {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product badge %q", value)
}
