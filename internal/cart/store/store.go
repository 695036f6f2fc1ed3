// Package store provides an interface for cart storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cart holds the line items of one user. There is at most one cart per user
// and it is created lazily on the first successful add.
type Cart struct {
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
}

// CartItem is a single (product, quantity) line. Lines are unique by product.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int32
}

// CartStore is an interface for cart storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type CartStore interface {
	// FindByUserID retrieves the cart of a user together with its items.
	// Returns ErrCartNotFound if the user has no cart yet.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// UpsertItems merges the given items into the user's cart in a single
	// transaction: the cart row is created if absent and each line is either
	// inserted or its quantity atomically incremented.
	UpsertItems(ctx context.Context, userID uuid.UUID, items []CartItem) error

	// RemoveItem deletes a line item entirely, regardless of its quantity.
	// Returns ErrCartNotFound if the user has no cart, ErrCartItemNotFound
	// if the cart holds no line for the product.
	RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error

	// DecreaseItem atomically decrements a line item's quantity by amount.
	// A line reaching zero or below is deleted, never left non-positive.
	// Returns ErrCartNotFound / ErrCartItemNotFound like RemoveItem.
	DecreaseItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, amount int32) error
}
