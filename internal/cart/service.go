package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
)

var (
	ErrItemNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrOrderNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
)

// Service exposes the shopping cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	SetRegion(ctx context.Context, userID uuid.UUID, state string) (*CartDTO, error)
	Reorder(ctx context.Context, userID, orderID uuid.UUID) (int, error)
	AddProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (int, error)
	CountItems(ctx context.Context, userID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type orderLoader interface {
	FindOwnedWithItems(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	orders   orderLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, orders orderLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	return &service{repo: repo, tx: tx, products: products, orders: orders}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.price(ctx, s.repo, cart)
}

func (s *service) price(ctx context.Context, repo *Repository, cart *models.Cart) (*CartDTO, error) {
	items, err := repo.Items(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	fees, err := repo.FeeTable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fees")
	}
	return toDTO(cart, items, Aggregate(cart, items, fees)), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.ensureProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.AddOrIncrement(ctx, cart.ID, input.ProductID, input.Quantity, input.Description); err != nil {
			return err
		}
		if err := repo.TouchCart(ctx, cart.ID); err != nil {
			return err
		}
		out, err = s.price(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, asDependency(err, "add cart item")
	}
	return out, nil
}

func (s *service) ensureProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return ErrProductNotFound
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.DisplayProduct {
		return ErrProductNotFound
	}
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	ok, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	ok, err := s.repo.RemoveItem(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (s *service) SetRegion(ctx context.Context, userID uuid.UUID, state string) (*CartDTO, error) {
	region := normalizeRegion(state)
	if region == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	}
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.SetRegion(ctx, cart.ID, region); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set cart region")
	}
	cart.Region = &region
	return s.price(ctx, s.repo, cart)
}

// Reorder copies a past order's lines into the cart, skipping products already there.
func (s *service) Reorder(ctx context.Context, userID, orderID uuid.UUID) (int, error) {
	order, err := s.orders.FindOwnedWithItems(ctx, userID, orderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return 0, ErrOrderNotFound
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	lines := make(map[uuid.UUID]int, len(order.Items))
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		if _, seen := lines[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		lines[item.ProductID] += item.Quantity
	}
	return s.addAbsent(ctx, userID, ids, func(id uuid.UUID) int { return lines[id] })
}

// AddProducts adds one of each product that is not already in the cart.
func (s *service) AddProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (int, error) {
	return s.addAbsent(ctx, userID, productIDs, func(uuid.UUID) int { return 1 })
}

func (s *service) addAbsent(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, qty func(uuid.UUID) int) (int, error) {
	added := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range productIDs {
			created, err := repo.AddIfAbsent(ctx, cart.ID, id, qty(id))
			if err != nil {
				return err
			}
			if created {
				added++
			}
		}
		return repo.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return 0, asDependency(err, "add products to cart")
	}
	return added, nil
}

func (s *service) CountItems(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.CountItems(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return n, nil
}

func asDependency(err error, msg string) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, strings.TrimSpace(msg))
}
