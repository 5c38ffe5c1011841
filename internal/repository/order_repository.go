package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

// CreateOrder inserts the order with its items and deletes the consumed
// cart lines in one transaction. A partially created order must never be
// observable.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, cartOwner string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders
	          (id, user_id, total_minor, currency, payment_reference, payment_status, status,
	           shipping_name, shipping_email, shipping_phone, shipping_address, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.UserID,
		order.TotalMinor,
		order.Currency,
		order.PaymentReference,
		order.PaymentStatus,
		order.Status,
		order.Shipping.Name,
		order.Shipping.Email,
		order.Shipping.Phone,
		order.Shipping.Address)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price_minor)
	          VALUES ($1, $2, $3, $4, $5)`

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE owner = $1`, cartOwner); err != nil {
		return fmt.Errorf("clear cart after order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, total_minor, currency, payment_reference, payment_status, status,
	shipping_name, shipping_email, shipping_phone, shipping_address, created_at, updated_at`

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID, userID int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}

	if err := r.loadOrderItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_reference = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		return nil, err
	}

	if err := r.loadOrderItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		if err := r.loadOrderItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// MarkPaymentResult applies the gateway verdict for a reference. The
// guard on payment_status makes the transition happen at most once even
// if two callbacks race for the same reference. A failed verdict leaves
// the order status untouched.
func (r *Repository) MarkPaymentResult(ctx context.Context, reference string, succeeded bool) error {
	query := `UPDATE orders
	          SET payment_status = $2, updated_at = NOW()
	          WHERE payment_reference = $1 AND payment_status = $3`
	args := []any{reference, domain.PaymentStatusFailed, domain.PaymentStatusPending}

	if succeeded {
		query = `UPDATE orders
		          SET payment_status = $2, status = $3, updated_at = NOW()
		          WHERE payment_reference = $1 AND payment_status = $4`
		args = []any{reference, domain.PaymentStatusCompleted, domain.OrderStatusProcessing, domain.PaymentStatusPending}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark payment result: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the reference is unknown or the order already left
		// PENDING. Distinguish the two for the caller.
		if _, lookupErr := r.GetOrderByReference(ctx, reference); lookupErr != nil {
			return lookupErr
		}
		return ErrAlreadyProcessed
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	order, err := scanOrderFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func scanOrderRow(rows *sql.Rows) (*domain.Order, error) {
	return scanOrderFrom(rows)
}

func scanOrderFrom(s rowScanner) (*domain.Order, error) {
	var order domain.Order
	err := s.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalMinor,
		&order.Currency,
		&order.PaymentReference,
		&order.PaymentStatus,
		&order.Status,
		&order.Shipping.Name,
		&order.Shipping.Email,
		&order.Shipping.Phone,
		&order.Shipping.Address,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &order, nil
}

func (r *Repository) loadOrderItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price_minor
	          FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}
