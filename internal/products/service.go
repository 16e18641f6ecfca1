package product

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/types"
)

var ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

// Service exposes the storefront catalog and the admin catalog tools.
type Service interface {
	List(ctx context.Context, input ListProductsInput) ([]ProductDTO, types.Page, error)
	Detail(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetailDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)
	DeliveryFees(ctx context.Context) ([]DeliveryFeeDTO, error)
	Import(ctx context.Context, rows []ImportProductInput) (*ImportResult, error)
	Activate(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type watchlistChecker interface {
	IsWatchlisted(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	watchlist watchlistChecker
	validate  *validator.Validate
	logg      *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, watchlist watchlistChecker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if watchlist == nil {
		return nil, fmt.Errorf("watchlist checker required")
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &service{repo: repo, dbClient: dbClient, watchlist: watchlist, validate: v, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) ([]ProductDTO, types.Page, error) {
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, types.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, input.Pagination.Describe(total), nil
}

func (s *service) Detail(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetailDTO, error) {
	product, err := s.repo.FindDisplayed(ctx, productID)
	if err != nil {
		return nil, err
	}
	related, err := s.repo.Related(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related products")
	}
	watchlisted := false
	if viewerID != nil {
		if watchlisted, err = s.watchlist.IsWatchlisted(ctx, *viewerID, product.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check watchlist")
		}
	}
	dto := detailFromModel(*product, related, watchlisted)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out, nil
}

func (s *service) DeliveryFees(ctx context.Context) ([]DeliveryFeeDTO, error) {
	rows, err := s.repo.DeliveryFees(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery fees")
	}
	out := make([]DeliveryFeeDTO, 0, len(rows))
	for _, f := range rows {
		out = append(out, DeliveryFeeDTO{Region: f.Region, Label: f.Label, Fee: Money(f.Fee)})
	}
	return out, nil
}

// Import creates each valid row as a hidden product. A bad row never blocks the others.
func (s *service) Import(ctx context.Context, rows []ImportProductInput) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "data must be a non-empty list of products")
	}

	result := &ImportResult{Message: "Import finished", Errors: []ImportError{}}
	var failures error
	for idx, row := range rows {
		if fields := s.validateRow(row); len(fields) > 0 {
			result.Errors = append(result.Errors, ImportError{Index: idx, Errors: fields})
			continue
		}
		if err := s.importRow(ctx, row); err != nil {
			failures = multierr.Append(failures, fmt.Errorf("row %d: %w", idx, err))
			result.Errors = append(result.Errors, ImportError{Index: idx, Reason: "could not be saved"})
			continue
		}
		result.ProductsCreated++
	}

	if failures != nil && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "failed_rows", len(multierr.Errors(failures)))
		s.logg.Error(logCtx, "products.import_partial_failure", failures)
	}
	return result, nil
}

func (s *service) validateRow(row ImportProductInput) map[string]string {
	fields := map[string]string{}
	if err := s.validate.Struct(row); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				fields[fe.Field()] = "is invalid (" + fe.Tag() + ")"
			}
		} else {
			fields["row"] = err.Error()
		}
	}
	if !row.OriginalPrice.IsPositive() {
		fields["original_price"] = "must be greater than zero"
	}
	return fields
}

func (s *service) importRow(ctx context.Context, row ImportProductInput) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		seq, err := db.NextSequence(ctx, tx, db.SequenceProduct)
		if err != nil {
			return err
		}
		number := db.FormatProductNumber(seq)

		product := &models.Product{
			ID:              uuid.New(),
			Title:           strings.TrimSpace(row.Title),
			Slug:            fmt.Sprintf("%s-%04d", slugify(row.Title), seq),
			Description:     row.Description,
			CurrentPrice:    DiscountedPrice(row.OriginalPrice, row.DiscountPercent),
			DiscountPercent: row.DiscountPercent,
			Rating:          decimal.NewFromFloat(row.Rating).Round(1),
			MainImage:       row.MainImage,
			DisplayProduct:  false,
			ProductNumber:   number,
		}
		original := row.OriginalPrice.Round(2)
		product.OriginalPrice = &original
		if row.Badge != "" {
			badge := enums.ProductBadge(row.Badge)
			product.Badge = &badge
		}
		for _, name := range row.Categories {
			category, err := repo.EnsureCategory(ctx, strings.TrimSpace(name))
			if err != nil {
				return err
			}
			product.Categories = append(product.Categories, *category)
		}
		for _, size := range row.Sizes {
			product.Sizes = append(product.Sizes, models.ProductSize{ID: uuid.New(), Label: size})
		}
		for _, color := range row.Colors {
			product.Colors = append(product.Colors, models.ProductColor{ID: uuid.New(), Name: color.Name, Hex: color.Hex})
		}
		for i, url := range row.Images {
			product.Images = append(product.Images, models.ProductImage{ID: uuid.New(), URL: url, Position: i})
		}
		for i, d := range row.Details {
			tab, err := enums.ParseProductDetailTab(d.Tab)
			if err != nil {
				return err
			}
			product.Details = append(product.Details, models.ProductDetail{
				ID:       uuid.New(),
				Tab:      tab,
				Title:    tab.Title(),
				Content:  strings.TrimSpace(d.Content),
				Position: i,
			})
		}
		return repo.Create(ctx, product)
	})
}

func (s *service) Activate(ctx context.Context, ids []uuid.UUID) (int64, error) {
	n, err := s.repo.Activate(ctx, ids)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate products")
	}
	return n, nil
}

// DiscountedPrice applies a whole-number percentage discount, rounded to kobo.
func DiscountedPrice(original decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 {
		return original.Round(2)
	}
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return original.Mul(factor).Round(2)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "product"
	}
	return slug
}
