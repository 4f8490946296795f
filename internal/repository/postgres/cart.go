package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/cart-insights/internal/entity"
	"github.com/egannguyen/cart-insights/internal/repository"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a CartRepository backed by Postgres.
func NewCartRepository(db *sql.DB) repository.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) ApplyEvent(ctx context.Context, userID, sessionID *string, event entity.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	switch e := event.(type) {
	case entity.ItemAdded:
		// Upsert the cart and bump the abandonment clock in one statement.
		_, err = tx.ExecContext(ctx,
			"INSERT INTO carts (id, user_id, session_id) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET updated_at = NOW()",
			e.CartID, userID, sessionID,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert cart %s: %w", e.CartID, err)
		}
		// (cart, product) is unique: re-adding a product increments quantity
		// and keeps the original price snapshot.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (id, cart_id, product_id, quantity, price_at_addition)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
			uuid.NewString(), e.CartID, e.ProductID, e.Quantity, e.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert cart item %s/%s: %w", e.CartID, e.ProductID, err)
		}

	case entity.ItemUpdated:
		_, err = tx.ExecContext(ctx,
			"UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2",
			e.CartID, e.ProductID, e.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to update cart item %s/%s: %w", e.CartID, e.ProductID, err)
		}
		if err := touchCart(ctx, tx, e.CartID); err != nil {
			return err
		}

	case entity.ItemRemoved:
		// Decrement only while at least one unit remains, otherwise drop the row.
		res, err := tx.ExecContext(ctx,
			"UPDATE cart_items SET quantity = quantity - $3 WHERE cart_id = $1 AND product_id = $2 AND quantity > $3",
			e.CartID, e.ProductID, e.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement cart item %s/%s: %w", e.CartID, e.ProductID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_, err = tx.ExecContext(ctx,
				"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2",
				e.CartID, e.ProductID,
			)
			if err != nil {
				return fmt.Errorf("failed to delete cart item %s/%s: %w", e.CartID, e.ProductID, err)
			}
		}
		if err := touchCart(ctx, tx, e.CartID); err != nil {
			return err
		}

	case entity.ItemSavedForLater:
		// The saved list lives outside this subsystem; the item leaves the cart.
		_, err = tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2",
			e.CartID, e.ProductID,
		)
		if err != nil {
			return fmt.Errorf("failed to move cart item %s/%s to saved: %w", e.CartID, e.ProductID, err)
		}
		if err := touchCart(ctx, tx, e.CartID); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown event type for cart mirror: %s", event.EventType())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func touchCart(ctx context.Context, tx *sql.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, "UPDATE carts SET updated_at = NOW() WHERE id = $1", cartID); err != nil {
		return fmt.Errorf("failed to touch cart %s: %w", cartID, err)
	}
	return nil
}

func (r *cartRepository) FindStale(ctx context.Context, cutoff time.Time) ([]entity.AbandonmentCandidate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, COUNT(i.id), COALESCE(SUM(i.quantity * i.price_at_addition), 0), c.updated_at
		FROM carts c
		JOIN cart_items i ON i.cart_id = c.id
		WHERE c.updated_at < $1
		GROUP BY c.id, c.user_id, c.updated_at
		ORDER BY c.updated_at`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale carts: %w", err)
	}
	defer rows.Close()

	var candidates []entity.AbandonmentCandidate
	for rows.Next() {
		var cand entity.AbandonmentCandidate
		var userID sql.NullString
		if err := rows.Scan(&cand.CartID, &userID, &cand.ItemsCount, &cand.TotalValue, &cand.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stale cart: %w", err)
		}
		if userID.Valid {
			cand.UserID = &userID.String
		}
		candidates = append(candidates, cand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale cart rows: %w", err)
	}
	return candidates, nil
}
