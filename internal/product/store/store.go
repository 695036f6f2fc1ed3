// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog row. StockQuantity is decremented only by checkout.
type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         int64
	StockQuantity int32
	Category      string
	Version       int32
	CreatedAt     time.Time
}

// CreateParams holds the fields required to create a product.
type CreateParams struct {
	Name          string
	Description   string
	Price         int64
	StockQuantity int32
	Category      string
}

// UpdateParams holds the fields required to update a product.
// Version is used for optimistic concurrency control.
type UpdateParams struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         int64
	StockQuantity int32
	Category      string
	Version       int32
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs retrieves products by IDs.
	// Returns an empty slice if no products exist.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll returns all available products with pagination support.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]Product, error)

	// Create adds a new product to the system.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, params CreateParams) (*Product, error)

	// Update modifies an existing product's details.
	// Returns ErrProductNotFound if no product exists with the given ID and version.
	Update(ctx context.Context, params UpdateParams) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID and version.
	DeleteByID(ctx context.Context, id uuid.UUID, version int32) error
}
