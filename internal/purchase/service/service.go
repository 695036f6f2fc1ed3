// Package service implements the checkout orchestrator and the purchase
// statistics aggregation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	carterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/errors"
	cartstore "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/store"
	producterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/errors"
	productstore "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/store"
	purchaseerrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/errors"
	"github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/store"
	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/messaging"
	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// unknownProductName labels purchase lines whose product was deleted from the
// catalog after the sale.
const unknownProductName = "Unknown Product"

// topProductsLimit caps the best-seller listing in the statistics report.
const topProductsLimit = 5

// PurchaseService defines the methods for converting carts into purchases
// and reporting over the purchase history.
type PurchaseService interface {
	// Checkout converts the user's cart into an immutable purchase: stock is
	// reserved for every line, the purchase is recorded with unit prices
	// captured now, and the cart is drained. Either all of that happens or
	// none of it does. Returns ErrEmptyCart when there is nothing to buy.
	Checkout(ctx context.Context, userID uuid.UUID) (*PurchaseDto, error)

	// FindByUserID returns the user's purchase history, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]PurchaseDto, error)

	// Statistics aggregates the user's purchase history. It only reads the
	// immutable purchase log and is safe to run concurrently with checkouts.
	Statistics(ctx context.Context, userID uuid.UUID) (*StatisticsDto, error)
}

// Service implements PurchaseService and coordinates the cart, product and
// purchase stores.
type Service struct {
	purchaseStore    store.PurchaseStore
	cartStore        cartstore.CartStore
	productStore     productstore.ProductStore
	publisher        messaging.Publisher
	timeout          time.Duration
	purchasesCounter metric.Int64Counter
}

// NewService creates a new instance of PurchaseService with the provided stores.
// Every store call issued by the service is bounded by the given timeout.
func NewService(purchaseStore store.PurchaseStore, cartStore cartstore.CartStore, productStore productstore.ProductStore, publisher messaging.Publisher, timeout time.Duration) *Service {
	meter := otel.Meter("shop-service")
	purchasesCounter, err := meter.Int64Counter("purchases_completed", metric.WithDescription("Total number of completed purchases"))
	if err != nil {
		panic(fmt.Sprintf("failed to create purchases_completed counter: %v", err))
	}
	return &Service{
		purchaseStore:    purchaseStore,
		cartStore:        cartStore,
		productStore:     productStore,
		publisher:        publisher,
		timeout:          timeout,
		purchasesCounter: purchasesCounter,
	}
}

// PurchaseItemDto is one purchased line with its price snapshot.
type PurchaseItemDto struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
	Price     int64  `json:"price"`
}

// PurchaseDto represents the data transfer object for a purchase.
type PurchaseDto struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Items     []PurchaseItemDto `json:"items,omitempty"`
	Total     int64             `json:"total"`
	CreatedAt string            `json:"created_at"`
}

// TopProductDto is one entry of the best-seller listing.
type TopProductDto struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	TotalSold   int64  `json:"totalSold"`
}

// SoldProductDto is one historical purchase line joined with the product's
// current display name.
type SoldProductDto struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	Price       int64  `json:"price"`
}

// StatisticsDto aggregates a user's purchase history.
type StatisticsDto struct {
	TotalSales         int64            `json:"totalSales"`
	TotalProductsSold  int64            `json:"totalProductsSold"`
	TopSellingProducts []TopProductDto  `json:"topSellingProducts"`
	AllSoldProducts    []SoldProductDto `json:"allSoldProducts"`
}

// opCtx bounds the operation with the configured store timeout.
// A non-positive timeout leaves the context as is.
func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Checkout converts the user's cart into a purchase.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID) (*PurchaseDto, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cart, err := s.cartStore.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, carterrors.ErrCartNotFound) {
			return nil, purchaseerrors.ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart of user %s: %w", userID, err)
	}
	if len(cart.Items) == 0 {
		return nil, purchaseerrors.ErrEmptyCart
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productStore.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for checkout: %w", err)
	}
	byID := make(map[uuid.UUID]productstore.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Prices are captured here so the purchase is decoupled from later price
	// changes. Stock is only pre-checked; the store re-validates it inside
	// the transaction with a conditional decrement, so a purchase is never
	// recorded against insufficient stock even under concurrent checkouts.
	var total int64
	items := make([]store.CreateItemParams, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, producterrors.ErrProductNotFound)
		}
		if product.StockQuantity < line.Quantity {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, purchaseerrors.ErrInsufficientStock)
		}
		total += product.Price * int64(line.Quantity)
		items = append(items, store.CreateItemParams{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}

	purchase, purchaseItems, err := s.purchaseStore.CreatePurchase(ctx, userID, total, items)
	if err != nil {
		return nil, err
	}

	event := events.PurchaseCompletedEvent{
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		Total:      purchase.Total,
		Items:      len(purchaseItems),
		CreatedAt:  purchase.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish PurchaseCompletedEvent", "purchase_id", purchase.ID, "error", err)
	}
	// increase the number of completed purchases
	s.purchasesCounter.Add(ctx, 1)

	return toDto(purchase, purchaseItems), nil
}

// FindByUserID retrieves the user's purchase history as PurchaseDtos.
func (s *Service) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]PurchaseDto, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	purchases, err := s.purchaseStore.FindByUserID(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchases of user %s: %w", userID, err)
	}

	dtos := make([]PurchaseDto, len(purchases))
	for i, pu := range purchases {
		items, err := s.purchaseStore.FindItemsByPurchaseID(ctx, pu.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch items of purchase %s: %w", pu.ID, err)
		}
		dtos[i] = *toDto(&pu, items)
	}
	return dtos, nil
}

// Statistics aggregates the user's purchase history.
func (s *Service) Statistics(ctx context.Context, userID uuid.UUID) (*StatisticsDto, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	totalSales, totalUnits, err := s.purchaseStore.Totals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate totals for user %s: %w", userID, err)
	}

	topSales, err := s.purchaseStore.TopProducts(ctx, userID, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top products for user %s: %w", userID, err)
	}
	topProducts := make([]TopProductDto, len(topSales))
	for i, ps := range topSales {
		topProducts[i] = TopProductDto{
			ProductID:   ps.ProductID.String(),
			ProductName: productName(ps.Name),
			TotalSold:   ps.TotalSold,
		}
	}

	soldItems, err := s.purchaseStore.SoldItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sold items for user %s: %w", userID, err)
	}
	soldProducts := make([]SoldProductDto, len(soldItems))
	for i, si := range soldItems {
		soldProducts[i] = SoldProductDto{
			ProductID:   si.ProductID.String(),
			ProductName: productName(si.Name),
			Quantity:    si.Quantity,
			Price:       si.Price,
		}
	}

	return &StatisticsDto{
		TotalSales:         totalSales,
		TotalProductsSold:  totalUnits,
		TopSellingProducts: topProducts,
		AllSoldProducts:    soldProducts,
	}, nil
}

// productName falls back to a placeholder for products deleted after the sale.
func productName(name *string) string {
	if name == nil {
		return unknownProductName
	}
	return *name
}

// toDto converts a store.Purchase to a PurchaseDto.
func toDto(purchase *store.Purchase, items []store.PurchaseItem) *PurchaseDto {
	var itemsDto []PurchaseItemDto
	if items != nil {
		itemsDto = make([]PurchaseItemDto, 0, len(items))
		for _, item := range items {
			itemsDto = append(itemsDto, PurchaseItemDto{
				ProductID: item.ProductID.String(),
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}
	}

	return &PurchaseDto{
		ID:        purchase.ID.String(),
		UserID:    purchase.UserID.String(),
		Items:     itemsDto,
		Total:     purchase.Total,
		CreatedAt: purchase.CreatedAt.Format(time.RFC3339),
	}
}
