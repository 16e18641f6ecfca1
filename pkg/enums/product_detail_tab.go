package enums

import (
	"fmt"
	"strings"
)

// ProductDetailTab names a section of the product page.
type ProductDetailTab string

const (
	ProductDetailTabDescription ProductDetailTab = "description"
	ProductDetailTabDetails     ProductDetailTab = "details"
	ProductDetailTabShipping    ProductDetailTab = "shipping"
)

var productDetailTabs = []ProductDetailTab{
	ProductDetailTabDescription,
	ProductDetailTabDetails,
	ProductDetailTabShipping,
}

func (t ProductDetailTab) String() string {
	return string(t)
}

// Title is the heading stored with imported sections: the tab name with its
// first letter upper-cased.
func (t ProductDetailTab) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

func (t ProductDetailTab) IsValid() bool {
	for _, candidate := range productDetailTabs {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductDetailTab converts raw input into a ProductDetailTab.
func ParseProductDetailTab(value string) (ProductDetailTab, error) {
	tab := ProductDetailTab(strings.ToLower(strings.TrimSpace(value)))
	if !tab.IsValid() {
		return "", fmt.Errorf("invalid product detail tab %q", value)
	}
	return tab, nil
}
