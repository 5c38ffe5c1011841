package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, name, slug, description, price_minor, image_url, created_at
	          FROM products ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceMinor, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT id, name, slug, description, price_minor, image_url, created_at
	          FROM products WHERE slug = $1`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, slug))
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, slug, description, price_minor, image_url, created_at
	          FROM products WHERE id = $1`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) scanProduct(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceMinor, &p.ImageURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}
