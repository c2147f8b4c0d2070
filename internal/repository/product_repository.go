package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carebridge/practice-api/internal/models"
)

// ProductRepository reads the practitioner product catalog.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// LowestPriceActive returns, per practitioner, the cheapest active product
// with a non-null duration, optionally restricted to a vertical. Price ties
// break on the catalog's stable product ordering. Practitioners with no
// qualifying product are absent from the map.
func (r *ProductRepository) LowestPriceActive(ctx context.Context, practitionerIDs []string, verticalName string) (map[string]*models.Product, error) {
	const query = `SELECT DISTINCT ON (p.user_id)
  p.id, p.user_id, p.minutes, p.prep_buffer, p.price, p.is_active, COALESCE(v.name, '') AS vertical_name
FROM products p
LEFT JOIN verticals v ON v.id = p.vertical_id
WHERE p.user_id = ANY($1)
  AND p.is_active
  AND p.minutes IS NOT NULL
  AND ($2 = '' OR v.name = $2)
ORDER BY p.user_id, p.price ASC, p.id ASC`

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, pq.Array(practitionerIDs), verticalName); err != nil {
		return nil, fmt.Errorf("lowest price products: %w", err)
	}

	result := make(map[string]*models.Product, len(products))
	for i := range products {
		result[products[i].UserID] = &products[i]
	}
	return result, nil
}

// ListByPractitioners returns the full active catalog for the practitioners,
// ordered the way the catalog orders products.
func (r *ProductRepository) ListByPractitioners(ctx context.Context, practitionerIDs []string) ([]models.Product, error) {
	const query = `SELECT p.id, p.user_id, p.minutes, p.prep_buffer, p.price, p.is_active, COALESCE(v.name, '') AS vertical_name
FROM products p
LEFT JOIN verticals v ON v.id = p.vertical_id
WHERE p.user_id = ANY($1) AND p.is_active
ORDER BY p.user_id, p.price ASC, p.id ASC`

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, pq.Array(practitionerIDs)); err != nil {
		return nil, fmt.Errorf("list products by practitioners: %w", err)
	}
	return products, nil
}
