// Package store provides an interface for purchase storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Purchase is immutable once created. It is written only by checkout and
// never updated or deleted afterwards.
type Purchase struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Total     int64
	CreatedAt time.Time
}

// PurchaseItem carries the unit price captured at checkout time, decoupled
// from later product price changes.
type PurchaseItem struct {
	ID         uuid.UUID
	PurchaseID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int32
	Price      int64
}

// CreateItemParams is one validated cart line ready to be purchased.
type CreateItemParams struct {
	ProductID uuid.UUID
	Quantity  int32
	Price     int64
}

// ProductSales is an aggregated (product, units sold) pair. Name is nil when
// the product has since been deleted from the catalog.
type ProductSales struct {
	ProductID uuid.UUID
	Name      *string
	TotalSold int64
}

// SoldItem is one historical purchase line joined with the product's current
// display name. Name is nil when the product has since been deleted.
type SoldItem struct {
	ProductID uuid.UUID
	Name      *string
	Quantity  int32
	Price     int64
}

// PurchaseStore is an interface for purchase storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type PurchaseStore interface {
	// CreatePurchase converts validated cart lines into a purchase within a
	// single transaction: every product stock is conditionally decremented,
	// the purchase and its items are inserted, and the user's cart is
	// drained. Any failure rolls the whole unit back, leaving no orphaned
	// state. Returns ErrProductNotFound or ErrInsufficientStock (wrapped
	// with the offending product ID) when a decrement cannot be applied.
	CreatePurchase(ctx context.Context, userID uuid.UUID, total int64, items []CreateItemParams) (*Purchase, []PurchaseItem, error)

	// FindByUserID returns the user's purchase history, newest first.
	// Returns an empty slice if no purchases exist.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]Purchase, error)

	// FindItemsByPurchaseID returns the line items of a purchase.
	FindItemsByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]PurchaseItem, error)

	// Totals aggregates the user's purchase history: total revenue and total
	// units sold. Both are zero when the user has no purchases.
	Totals(ctx context.Context, userID uuid.UUID) (totalSales int64, totalUnits int64, err error)

	// TopProducts returns the user's best selling products by summed
	// quantity, ties broken by product ID.
	TopProducts(ctx context.Context, userID uuid.UUID, limit int32) ([]ProductSales, error)

	// SoldItems returns every historical purchase line of the user joined
	// with the product's current name.
	SoldItems(ctx context.Context, userID uuid.UUID) ([]SoldItem, error)
}
