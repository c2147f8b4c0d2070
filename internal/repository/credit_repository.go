package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carebridge/practice-api/internal/models"
)

// CreditRepository reads member credit balances.
type CreditRepository struct {
	db *sqlx.DB
}

// NewCreditRepository creates a new credit repository.
func NewCreditRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// ListAvailable returns the member's unspent credits that are unexpired as of
// the given instant. A null expiry never expires.
func (r *CreditRepository) ListAvailable(ctx context.Context, memberID string, asOf time.Time) ([]models.Credit, error) {
	const query = `SELECT id, member_id, amount, expires_at
FROM credits
WHERE member_id = $1
  AND used_at IS NULL
  AND (expires_at IS NULL OR expires_at >= $2)
ORDER BY expires_at ASC NULLS LAST`

	var credits []models.Credit
	if err := r.db.SelectContext(ctx, &credits, query, memberID, asOf); err != nil {
		return nil, fmt.Errorf("list available credits: %w", err)
	}
	return credits, nil
}
