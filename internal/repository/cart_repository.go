package repository

import (
	"context"
	"fmt"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

const cartItemColumns = `ci.id, ci.owner, ci.product_id, p.name, p.price_minor, ci.quantity, ci.added_at`

func (r *Repository) GetCartItems(ctx context.Context, owner string) ([]domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + `
	          FROM cart_items ci
	          JOIN products p ON p.id = ci.product_id
	          WHERE ci.owner = $1
	          ORDER BY ci.added_at`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.Owner, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// UpsertCartItem adds a line for (owner, product) or increments the
// existing line's quantity.
func (r *Repository) UpsertCartItem(ctx context.Context, owner string, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (owner, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (owner, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, added_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, owner, productID, quantity); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// SetItemQuantity replaces the line's quantity; a quantity of zero or
// less removes the line.
func (r *Repository) SetItemQuantity(ctx context.Context, owner string, productID int64, quantity int) error {
	if quantity <= 0 {
		return r.RemoveCartItem(ctx, owner, productID)
	}

	query := `UPDATE cart_items SET quantity = $3, added_at = NOW()
	          WHERE owner = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, owner, productID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item quantity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) RemoveCartItem(ctx context.Context, owner string, productID int64) error {
	query := `DELETE FROM cart_items WHERE owner = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, owner, productID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) ClearCart(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// MergeCarts moves every line from one owner to another, summing
// quantities where both carts hold the same product. Used when an
// anonymous visitor logs in.
func (r *Repository) MergeCarts(ctx context.Context, fromOwner, toOwner string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	defer tx.Rollback()

	merge := `INSERT INTO cart_items (owner, product_id, quantity, added_at)
	          SELECT $2, product_id, quantity, added_at FROM cart_items WHERE owner = $1
	          ON CONFLICT (owner, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, added_at = NOW()`

	if _, err := tx.ExecContext(ctx, merge, fromOwner, toOwner); err != nil {
		return fmt.Errorf("merge cart lines: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE owner = $1`, fromOwner); err != nil {
		return fmt.Errorf("drop merged cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge tx: %w", err)
	}
	return nil
}
