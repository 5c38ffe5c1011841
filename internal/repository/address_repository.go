package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

const addressColumns = `id, user_id, name, email, phone, address_line_1, address_line_2,
	city, state, postal_code, country, is_default, created_at`

func (r *Repository) ListAddresses(ctx context.Context, userID int64) ([]domain.ShippingAddress, error) {
	query := `SELECT ` + addressColumns + ` FROM shipping_addresses
	          WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addrs []domain.ShippingAddress
	for rows.Next() {
		var a domain.ShippingAddress
		if err := scanAddress(rows, &a); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return addrs, nil
}

func (r *Repository) GetAddress(ctx context.Context, id, userID int64) (*domain.ShippingAddress, error) {
	query := `SELECT ` + addressColumns + ` FROM shipping_addresses WHERE id = $1 AND user_id = $2`

	var a domain.ShippingAddress
	err := scanAddress(r.db.QueryRowContext(ctx, query, id, userID), &a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateAddress(ctx context.Context, addr *domain.ShippingAddress) error {
	query := `INSERT INTO shipping_addresses
	          (user_id, name, email, phone, address_line_1, address_line_2,
	           city, state, postal_code, country, is_default, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		addr.UserID, addr.Name, addr.Email, addr.Phone,
		addr.AddressLine1, addr.AddressLine2, addr.City, addr.State,
		addr.PostalCode, addr.Country, addr.IsDefault,
	).Scan(&addr.ID, &addr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAddress(ctx context.Context, addr *domain.ShippingAddress) error {
	query := `UPDATE shipping_addresses
	          SET name = $3, email = $4, phone = $5, address_line_1 = $6, address_line_2 = $7,
	              city = $8, state = $9, postal_code = $10, country = $11
	          WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		addr.ID, addr.UserID, addr.Name, addr.Email, addr.Phone,
		addr.AddressLine1, addr.AddressLine2, addr.City, addr.State,
		addr.PostalCode, addr.Country)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *Repository) DeleteAddress(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shipping_addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// SetDefaultAddress clears is_default on every address the user owns and
// sets it on the chosen one, so at most one default exists afterwards.
func (r *Repository) SetDefaultAddress(ctx context.Context, id, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin default-address tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE shipping_addresses SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear default addresses: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE shipping_addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAddressNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit default-address tx: %w", err)
	}
	return nil
}

func scanAddress(s rowScanner, a *domain.ShippingAddress) error {
	err := s.Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.Phone,
		&a.AddressLine1, &a.AddressLine2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan address: %w", err)
	}
	return nil
}
