package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/dbtest"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/pagination"
)

type stubWatchlist struct {
	saved map[uuid.UUID]bool
}

func (s stubWatchlist) IsWatchlisted(_ context.Context, _ uuid.UUID, productID uuid.UUID) (bool, error) {
	return s.saved[productID], nil
}

func newTestService(t *testing.T) (Service, *gorm.DB, stubWatchlist) {
	t.Helper()
	conn := dbtest.Open(t)
	wl := stubWatchlist{saved: map[uuid.UUID]bool{}}
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), wl, nil)
	require.NoError(t, err)
	return svc, conn, wl
}

func attachCategory(t *testing.T, conn *gorm.DB, p *models.Product, name string) {
	t.Helper()
	category, err := NewRepository(conn).EnsureCategory(context.Background(), name)
	require.NoError(t, err)
	require.NoError(t, conn.Model(p).Association("Categories").Append(category))
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestListHidesUndisplayedProducts(t *testing.T) {
	svc, conn, _ := newTestService(t)
	dbtest.SeedProduct(t, conn, "Etu Indigo", 4500)
	hidden := dbtest.SeedProduct(t, conn, "Hidden Alaari", 9000)
	require.NoError(t, conn.Model(hidden).Update("display_product", false).Error)

	items, page, err := svc.List(context.Background(), ListProductsInput{Pagination: pagination.Params{}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Etu Indigo", items[0].Title)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "4500.00", items[0].CurrentPrice)
}

func TestListFiltersPriceRangeNumerically(t *testing.T) {
	svc, conn, _ := newTestService(t)
	dbtest.SeedProduct(t, conn, "Cheap", 900)
	dbtest.SeedProduct(t, conn, "Mid", 4500)
	dbtest.SeedProduct(t, conn, "Dear", 12000)

	items, _, err := svc.List(context.Background(), ListProductsInput{
		Filters: ListFilters{MinPrice: decimalPtr(1000), MaxPrice: decimalPtr(10000), Ordering: OrderPriceAsc},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mid", items[0].Title)
}

func TestListOrdersByPrice(t *testing.T) {
	svc, conn, _ := newTestService(t)
	dbtest.SeedProduct(t, conn, "B", 900)
	dbtest.SeedProduct(t, conn, "A", 12000)
	dbtest.SeedProduct(t, conn, "C", 4500)

	items, _, err := svc.List(context.Background(), ListProductsInput{Filters: ListFilters{Ordering: OrderPriceDesc}})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"A", "C", "B"}, []string{items[0].Title, items[1].Title, items[2].Title})
}

func TestListCategoryAndSearchMatchCaseInsensitively(t *testing.T) {
	svc, conn, _ := newTestService(t)
	sanyan := dbtest.SeedProduct(t, conn, "Golden Weave", 8000)
	attachCategory(t, conn, sanyan, "Sanyan")
	dbtest.SeedProduct(t, conn, "Plain Cotton", 2000)

	items, _, err := svc.List(context.Background(), ListProductsInput{Filters: ListFilters{Category: "sany"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Golden Weave", items[0].Title)
	require.Len(t, items[0].Categories, 1)

	items, _, err = svc.List(context.Background(), ListProductsInput{Filters: ListFilters{Search: "SANYAN"}})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, _, err = svc.List(context.Background(), ListProductsInput{Filters: ListFilters{Search: "cotton"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Plain Cotton", items[0].Title)
}

func TestListFiltersByBadge(t *testing.T) {
	svc, conn, _ := newTestService(t)
	p := dbtest.SeedProduct(t, conn, "Limited Run", 5000)
	require.NoError(t, conn.Model(p).Update("badge", "Limited").Error)
	dbtest.SeedProduct(t, conn, "Regular", 5000)

	badge := enums.ProductBadgeLimited
	items, _, err := svc.List(context.Background(), ListProductsInput{Filters: ListFilters{Badge: &badge}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Limited", *items[0].Badge)
}

func TestListPaginates(t *testing.T) {
	svc, conn, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		dbtest.SeedProduct(t, conn, "Roll", int64(1000+i))
	}
	items, page, err := svc.List(context.Background(), ListProductsInput{Pagination: pagination.Params{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.True(t, page.HasNext)
}

func TestDetailIncludesRelatedAndWatchlisted(t *testing.T) {
	svc, conn, wl := newTestService(t)
	main := dbtest.SeedProduct(t, conn, "Main", 5000)
	attachCategory(t, conn, main, "Etu")
	for i := 0; i < 10; i++ {
		p := dbtest.SeedProduct(t, conn, "Sibling", 4000)
		attachCategory(t, conn, p, "Etu")
	}
	dbtest.SeedProduct(t, conn, "Unrelated", 4000)
	viewer := uuid.New()
	wl.saved[main.ID] = true

	detail, err := svc.Detail(context.Background(), main.ID, &viewer)
	require.NoError(t, err)
	assert.Len(t, detail.Related, RelatedLimit)
	for _, r := range detail.Related {
		assert.NotEqual(t, main.ID, r.ID)
	}
	assert.True(t, detail.Watchlisted)

	anon, err := svc.Detail(context.Background(), main.ID, nil)
	require.NoError(t, err)
	assert.False(t, anon.Watchlisted)
}

func TestDetailOfHiddenProductIsNotFound(t *testing.T) {
	svc, conn, _ := newTestService(t)
	p := dbtest.SeedProduct(t, conn, "Hidden", 5000)
	require.NoError(t, conn.Model(p).Update("display_product", false).Error)

	_, err := svc.Detail(context.Background(), p.ID, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestImportCreatesHiddenProductsAndReportsBadRows(t *testing.T) {
	svc, conn, _ := newTestService(t)
	rows := []ImportProductInput{
		{
			Title:           "Alaari Royal",
			Description:     "Deep red hand-woven alaari.",
			OriginalPrice:   decimal.NewFromInt(10000),
			DiscountPercent: 15,
			Rating:          4.5,
			Categories:      []string{"Alaari", "Premium"},
			Sizes:           []string{"2 yards", "4 yards"},
			Colors:          []ColorDTO{{Name: "Red", Hex: "#aa0000"}},
			Images:          []string{"https://cdn.example.com/a.jpg"},
		},
		{Title: "", Description: "missing title", OriginalPrice: decimal.NewFromInt(100), Categories: []string{"Etu"}},
		{Title: "Free", Description: "zero price", Categories: []string{"Etu"}},
	}

	result, err := svc.Import(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProductsCreated)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, 2, result.Errors[1].Index)

	var stored models.Product
	require.NoError(t, conn.Preload("Categories").Preload("Sizes").Preload("Colors").Where("title = ?", "Alaari Royal").Take(&stored).Error)
	assert.False(t, stored.DisplayProduct)
	assert.Equal(t, "#AO-P-0001", stored.ProductNumber)
	assert.Equal(t, "8500.00", stored.CurrentPrice.StringFixed(2))
	assert.Len(t, stored.Categories, 2)
	assert.Len(t, stored.Sizes, 2)
	assert.Len(t, stored.Colors, 1)

	items, _, err := svc.List(context.Background(), ListProductsInput{})
	require.NoError(t, err)
	assert.Empty(t, items)

	n, err := svc.Activate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, _, err = svc.List(context.Background(), ListProductsInput{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestImportedDetailTabsShowOnProductPage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	row := ImportProductInput{
		Title:         "Sanyan Classic",
		Description:   "Beige wild-silk sanyan.",
		OriginalPrice: decimal.NewFromInt(12000),
		Categories:    []string{"Sanyan"},
		Details: []ImportDetail{
			{Tab: "description", Content: "Woven on a narrow loom in Iseyin."},
			{Tab: "shipping", Content: "Ships in 3 to 5 working days."},
		},
	}
	bad := row
	bad.Title = "Bad Tab"
	bad.Details = []ImportDetail{{Tab: "care", Content: "Dry clean only."}}

	result, err := svc.Import(ctx, []ImportProductInput{row, bad})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProductsCreated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)

	_, err = svc.Activate(ctx, nil)
	require.NoError(t, err)
	items, _, err := svc.List(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	detail, err := svc.Detail(ctx, items[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []DetailDTO{
		{Tab: "description", Title: "Description", Content: "Woven on a narrow loom in Iseyin."},
		{Tab: "shipping", Title: "Shipping", Content: "Ships in 3 to 5 working days."},
	}, detail.Details)
}

func TestImportReusesCategories(t *testing.T) {
	svc, conn, _ := newTestService(t)
	row := ImportProductInput{Title: "Etu", Description: "d", OriginalPrice: decimal.NewFromInt(100), Categories: []string{"Etu"}}
	_, err := svc.Import(context.Background(), []ImportProductInput{row, row})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportRejectsEmptyPayload(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Import(context.Background(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestActivateSelectedIDs(t *testing.T) {
	svc, conn, _ := newTestService(t)
	a := dbtest.SeedProduct(t, conn, "A", 100)
	b := dbtest.SeedProduct(t, conn, "B", 100)
	require.NoError(t, conn.Model(&models.Product{}).Where("id IN ?", []uuid.UUID{a.ID, b.ID}).Update("display_product", false).Error)

	n, err := svc.Activate(context.Background(), []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDiscountedPrice(t *testing.T) {
	assert.Equal(t, "8500.00", DiscountedPrice(decimal.NewFromInt(10000), 15).StringFixed(2))
	assert.Equal(t, "4500.00", DiscountedPrice(decimal.NewFromInt(4500), 0).StringFixed(2))
	assert.Equal(t, "66.99", DiscountedPrice(decimal.RequireFromString("99.99"), 33).StringFixed(2))
}

func TestParseOrdering(t *testing.T) {
	o, err := ParseOrdering("")
	require.NoError(t, err)
	assert.Equal(t, OrderNewest, o)

	_, err = ParseOrdering("title")
	assert.Error(t, err)
}
