// Package watchlist keeps the products a customer saved for later.
package watchlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/asookemart/asooke-backend/internal/products"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
)

var ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// cartFiller is the slice of the cart service that move-to-cart needs.
type cartFiller interface {
	AddProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (int, error)
	CountItems(ctx context.Context, userID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the watchlist service.
type ServiceParams struct {
	Repo     *Repository
	Products productLoader
	Cart     cartFiller
	Tx       txRunner
}

// Service exposes business rules for watchlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error)
	RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error)
	MoveAllToCart(ctx context.Context, userID uuid.UUID) (int, error)
	Counts(ctx context.Context, userID uuid.UUID) (CountsDTO, error)
	IsWatchlisted(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type service struct {
	repo     *Repository
	products productLoader
	cart     cartFiller
	tx       txRunner
}

// NewService builds a watchlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("watchlist repo is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{repo: params.Repo, products: params.Products, cart: params.Cart, tx: params.Tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListProducts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list watchlist")
	}
	out := make([]ItemDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, ItemDTO{
			ProductDTO:       product.FromModel(p),
			ShortDescription: shorten(p.Description),
			Watchlisted:      true,
		})
	}
	return out, nil
}

// Toggle saves the product, or forgets it when it was already saved.
func (s *service) Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error) {
	if productID == uuid.Nil {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return ToggleResult{}, ErrProductNotFound
		}
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var result ToggleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.Remove(ctx, userID, productID)
		if err != nil || removed {
			return err
		}
		result.Watchlisted, err = repo.Add(ctx, userID, productID)
		return err
	})
	if err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle watchlist")
	}
	return result, nil
}

func (s *service) RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.RemoveAll(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear watchlist")
	}
	return n, nil
}

// MoveAllToCart copies every watched product into the cart. The watchlist itself is left intact.
func (s *service) MoveAllToCart(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.repo.ProductIDs(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load watchlist")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.cart.AddProducts(ctx, userID, ids)
}

func (s *service) Counts(ctx context.Context, userID uuid.UUID) (CountsDTO, error) {
	items, err := s.cart.CountItems(ctx, userID)
	if err != nil {
		return CountsDTO{}, err
	}
	watched, err := s.repo.Count(ctx, userID)
	if err != nil {
		return CountsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count watchlist")
	}
	return CountsDTO{ItemCount: items, WatchlistCount: watched}, nil
}

func (s *service) IsWatchlisted(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, userID, productID)
}
