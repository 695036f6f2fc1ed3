package store

import (
	"context"
	"errors"
	"fmt"

	carterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements CartStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// rowQuerier is satisfied by both the pool and a transaction, so existence
// probes can run inside whatever scope the caller is in.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPgStore creates a new instance of CartStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	cart := Cart{UserID: userID}

	err := p.db.QueryRow(ctx, `SELECT created_at FROM carts WHERE user_id = $1`, userID).Scan(&cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, carterrors.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	rows, err := p.db.Query(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = make([]CartItem, 0)
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}

	return &cart, nil
}

func (p *PgStore) UpsertItems(ctx context.Context, userID uuid.UUID, items []CartItem) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		// Lazily create the cart row on first add.
		if _, err := tx.Exec(ctx,
			`INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		for _, item := range items {
			// Merge by product: repeated adds increment, they never duplicate the line.
			if _, err := tx.Exec(ctx,
				`INSERT INTO cart_items (user_id, product_id, quantity)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (user_id, product_id)
				 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
				userID, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to upsert cart item %s: %w", item.ProductID, err)
			}
		}
		return nil
	})
}

func (p *PgStore) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	if err := p.cartExists(ctx, p.db, userID); err != nil {
		return err
	}
	tag, err := p.db.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carterrors.ErrCartItemNotFound
	}
	return nil
}

func (p *PgStore) DecreaseItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, amount int32) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		var quantity int32
		// Single conditional update so concurrent decreases cannot lose writes.
		err := tx.QueryRow(ctx,
			`UPDATE cart_items SET quantity = quantity - $3
			 WHERE user_id = $1 AND product_id = $2 AND quantity > $3
			 RETURNING quantity`,
			userID, productID, amount).Scan(&quantity)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to decrease cart item: %w", err)
		}
		// Either the line does not exist or the decrement drains it. A drained
		// line is deleted, never left at zero or negative quantity.
		tag, err := tx.Exec(ctx,
			`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
		if err != nil {
			return fmt.Errorf("failed to remove drained cart item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			if err := p.cartExists(ctx, tx, userID); err != nil {
				return err
			}
			return carterrors.ErrCartItemNotFound
		}
		return nil
	})
}

// cartExists reports ErrCartNotFound if the user has no cart row. The probe
// runs against q so a caller inside a transaction sees its own writes.
func (p *PgStore) cartExists(ctx context.Context, q rowQuerier, userID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM carts WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check cart existence: %w", err)
	}
	if !exists {
		return carterrors.ErrCartNotFound
	}
	return nil
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
