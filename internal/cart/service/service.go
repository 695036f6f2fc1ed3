// Package service implements the cart aggregator: every cart mutation is
// validated against the product catalog before it is admitted.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	carterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/errors"
	"github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/store"
	productstore "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/store"
	"github.com/google/uuid"
)

// CartService defines the methods for managing per-user shopping carts.
type CartService interface {
	// AddToCart merges the given items into the user's cart. The whole batch
	// is validated before any write: a bad entry anywhere aborts the call
	// with no partial merge. Returns the full updated cart.
	AddToCart(ctx context.Context, userID uuid.UUID, items []CartItemDto) (*CartDto, error)

	// RemoveFromCart deletes a line item entirely (all quantity at once).
	// Returns ErrCartNotFound / ErrCartItemNotFound on absence.
	RemoveFromCart(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*CartDto, error)

	// DecreaseQuantity decrements a line item by amount; a line reaching zero
	// or below is dropped from the cart. Returns the updated cart.
	DecreaseQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, amount int32) (*CartDto, error)

	// GetCart returns the user's cart, or an empty cart if none exists yet.
	// Reading never fails on absence; only mutation paths do.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDto, error)
}

// Service implements CartService on top of the cart and product stores.
type Service struct {
	cartStore    store.CartStore
	productStore productstore.ProductStore
}

// NewService creates a new instance of CartService with the provided stores.
func NewService(cartStore store.CartStore, productStore productstore.ProductStore) *Service {
	return &Service{
		cartStore:    cartStore,
		productStore: productStore,
	}
}

// CartItemDto represents a single cart line in transport form.
type CartItemDto struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int32  `json:"quantity"  validate:"required,min=1"`
}

// CartDto represents the data transfer object for a cart.
type CartDto struct {
	UserID    string        `json:"userId"`
	Items     []CartItemDto `json:"items"`
	CreatedAt string        `json:"created_at,omitempty"`
}

// AddToCart validates and merges items into the user's cart.
func (s *Service) AddToCart(ctx context.Context, userID uuid.UUID, items []CartItemDto) (*CartDto, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("empty item batch: %w", carterrors.ErrInvalidItem)
	}

	// Validate the whole batch up front so a bad entry anywhere
	// aborts the call before any write is applied.
	parsed := make([]store.CartItem, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product ID %q: %w", item.ProductID, carterrors.ErrInvalidItem)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("product %s: quantity must be positive: %w", productID, carterrors.ErrInvalidItem)
		}
		parsed = append(parsed, store.CartItem{ProductID: productID, Quantity: item.Quantity})
	}

	// Check each product against live stock before admitting the batch.
	// The check is against the requested increment, not the cumulative cart
	// quantity (see the design notes on stock-check granularity).
	for _, item := range parsed {
		product, err := s.productStore.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if product.StockQuantity < item.Quantity {
			return nil, fmt.Errorf("product %s: available %d, requested %d: %w",
				item.ProductID, product.StockQuantity, item.Quantity, carterrors.ErrInsufficientStock)
		}
	}

	if err := s.cartStore.UpsertItems(ctx, userID, parsed); err != nil {
		return nil, fmt.Errorf("failed to add items to cart of user %s: %w", userID, err)
	}

	return s.reload(ctx, userID)
}

// RemoveFromCart deletes a whole line item from the user's cart.
func (s *Service) RemoveFromCart(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*CartDto, error) {
	if err := s.cartStore.RemoveItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove product %s from cart of user %s: %w", productID, userID, err)
	}

	cart, err := s.cartStore.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload cart of user %s: %w", userID, err)
	}
	// Post-condition: a line surviving its own removal signals a concurrent
	// write putting it back between the delete and the reload.
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return nil, fmt.Errorf("product %s still present after removal: %w", productID, carterrors.ErrCartItemNotFound)
		}
	}

	return toDto(cart), nil
}

// DecreaseQuantity decrements a line item, dropping it when it drains.
func (s *Service) DecreaseQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, amount int32) (*CartDto, error) {
	if amount < 1 {
		return nil, fmt.Errorf("amount must be positive, got %d: %w", amount, carterrors.ErrInvalidItem)
	}

	if err := s.cartStore.DecreaseItem(ctx, userID, productID, amount); err != nil {
		return nil, fmt.Errorf("failed to decrease product %s in cart of user %s: %w", productID, userID, err)
	}

	return s.reload(ctx, userID)
}

// GetCart returns the user's cart, mapping absence to an empty cart.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDto, error) {
	cart, err := s.cartStore.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, carterrors.ErrCartNotFound) {
			return &CartDto{UserID: userID.String(), Items: []CartItemDto{}}, nil
		}
		return nil, fmt.Errorf("failed to fetch cart of user %s: %w", userID, err)
	}
	return toDto(cart), nil
}

func (s *Service) reload(ctx context.Context, userID uuid.UUID) (*CartDto, error) {
	cart, err := s.cartStore.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload cart of user %s: %w", userID, err)
	}
	return toDto(cart), nil
}

// toDto converts a store.Cart to a CartDto.
func toDto(cart *store.Cart) *CartDto {
	items := make([]CartItemDto, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDto{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		})
	}
	return &CartDto{
		UserID:    cart.UserID.String(),
		Items:     items,
		CreatedAt: cart.CreatedAt.Format(time.RFC3339),
	}
}
