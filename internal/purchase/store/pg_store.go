package store

import (
	"context"
	"errors"
	"fmt"

	producterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/errors"
	purchaseerrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements PurchaseStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PurchaseStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) CreatePurchase(ctx context.Context, userID uuid.UUID, total int64, items []CreateItemParams) (*Purchase, []PurchaseItem, error) {
	var purchase Purchase
	var purchaseItems []PurchaseItem

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		// Decrement stock per line with a conditional single-statement update.
		// The stock >= quantity precondition serializes concurrent checkouts
		// of the same product without a read-modify-write pair.
		for _, item := range items {
			tag, err := tx.Exec(ctx,
				`UPDATE products
				 SET stock_quantity = stock_quantity - $2, version = version + 1
				 WHERE id = $1 AND stock_quantity >= $2`,
				item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock of product %s: %w", item.ProductID, err)
			}
			if tag.RowsAffected() == 0 {
				var exists bool
				if err := tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists); err != nil {
					return fmt.Errorf("failed to check product %s: %w", item.ProductID, err)
				}
				if !exists {
					return fmt.Errorf("product %s: %w", item.ProductID, producterrors.ErrProductNotFound)
				}
				return fmt.Errorf("product %s: %w", item.ProductID, purchaseerrors.ErrInsufficientStock)
			}
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO purchases (user_id, total) VALUES ($1, $2)
			 RETURNING id, user_id, total, created_at`,
			userID, total).Scan(&purchase.ID, &purchase.UserID, &purchase.Total, &purchase.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		purchaseItems = make([]PurchaseItem, 0, len(items))
		for _, item := range items {
			var pi PurchaseItem
			err := tx.QueryRow(ctx,
				`INSERT INTO purchase_items (purchase_id, product_id, quantity, price)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id, purchase_id, product_id, quantity, price`,
				purchase.ID, item.ProductID, item.Quantity, item.Price).
				Scan(&pi.ID, &pi.PurchaseID, &pi.ProductID, &pi.Quantity, &pi.Price)
			if err != nil {
				return fmt.Errorf("failed to create purchase item for product %s: %w", item.ProductID, err)
			}
			purchaseItems = append(purchaseItems, pi)
		}

		// Drain only the purchased lines within the same transaction; a line
		// added after the cart was loaded for checkout stays in the cart. The
		// cart row itself survives with an empty item set.
		productIDs := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM cart_items WHERE user_id = $1 AND product_id = ANY($2)`,
			userID, productIDs); err != nil {
			return fmt.Errorf("failed to drain cart of user %s: %w", userID, err)
		}
		return nil
	})

	if txErr != nil {
		return nil, nil, txErr
	}
	return &purchase, purchaseItems, nil
}

func (p *PgStore) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]Purchase, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, user_id, total, created_at FROM purchases
		 WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find purchases of user %s: %w", userID, err)
	}
	defer rows.Close()

	purchases := make([]Purchase, 0)
	for rows.Next() {
		var pu Purchase
		if err := rows.Scan(&pu.ID, &pu.UserID, &pu.Total, &pu.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, pu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchases: %w", err)
	}
	return purchases, nil
}

func (p *PgStore) FindItemsByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]PurchaseItem, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, purchase_id, product_id, quantity, price FROM purchase_items WHERE purchase_id = $1`,
		purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find items of purchase %s: %w", purchaseID, err)
	}
	defer rows.Close()

	items := make([]PurchaseItem, 0)
	for rows.Next() {
		var pi PurchaseItem
		if err := rows.Scan(&pi.ID, &pi.PurchaseID, &pi.ProductID, &pi.Quantity, &pi.Price); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		items = append(items, pi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchase items: %w", err)
	}
	return items, nil
}

func (p *PgStore) Totals(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	var totalSales, totalUnits int64
	err := p.db.QueryRow(ctx,
		`SELECT
		     COALESCE((SELECT SUM(total) FROM purchases WHERE user_id = $1), 0),
		     COALESCE((SELECT SUM(pi.quantity) FROM purchase_items pi
		               JOIN purchases pu ON pu.id = pi.purchase_id
		               WHERE pu.user_id = $1), 0)`,
		userID).Scan(&totalSales, &totalUnits)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate totals for user %s: %w", userID, err)
	}
	return totalSales, totalUnits, nil
}

func (p *PgStore) TopProducts(ctx context.Context, userID uuid.UUID, limit int32) ([]ProductSales, error) {
	rows, err := p.db.Query(ctx,
		`SELECT pi.product_id, p.name, SUM(pi.quantity) AS total_sold
		 FROM purchase_items pi
		 JOIN purchases pu ON pu.id = pi.purchase_id
		 LEFT JOIN products p ON p.id = pi.product_id
		 WHERE pu.user_id = $1
		 GROUP BY pi.product_id, p.name
		 ORDER BY total_sold DESC, pi.product_id
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top products for user %s: %w", userID, err)
	}
	defer rows.Close()

	sales := make([]ProductSales, 0)
	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.TotalSold); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		sales = append(sales, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product sales: %w", err)
	}
	return sales, nil
}

func (p *PgStore) SoldItems(ctx context.Context, userID uuid.UUID) ([]SoldItem, error) {
	rows, err := p.db.Query(ctx,
		`SELECT pi.product_id, p.name, pi.quantity, pi.price
		 FROM purchase_items pi
		 JOIN purchases pu ON pu.id = pi.purchase_id
		 LEFT JOIN products p ON p.id = pi.product_id
		 WHERE pu.user_id = $1
		 ORDER BY pu.created_at, pi.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sold items for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := make([]SoldItem, 0)
	for rows.Next() {
		var si SoldItem
		if err := rows.Scan(&si.ProductID, &si.Name, &si.Quantity, &si.Price); err != nil {
			return nil, fmt.Errorf("failed to scan sold item: %w", err)
		}
		items = append(items, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sold items: %w", err)
	}
	return items, nil
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return purchaseerrors.ErrTransactionBegin
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return purchaseerrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return purchaseerrors.ErrTransactionCommit
	}
	return nil
}
