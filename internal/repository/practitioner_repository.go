package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carebridge/practice-api/internal/models"
)

// PractitionerRepository reads practitioner scheduling profiles.
type PractitionerRepository struct {
	db *sqlx.DB
}

// NewPractitionerRepository creates a new practitioner repository.
func NewPractitionerRepository(db *sqlx.DB) *PractitionerRepository {
	return &PractitionerRepository{db: db}
}

// ListProfiles returns the scheduling profiles for the given practitioners
// with their verticals attached. Unknown ids are silently absent.
func (r *PractitionerRepository) ListProfiles(ctx context.Context, userIDs []string) ([]models.PractitionerProfile, error) {
	const profileQuery = `SELECT user_id, booking_buffer, rounding_minutes, default_prep_buffer, active
FROM practitioner_profiles
WHERE user_id = ANY($1)`

	var profiles []models.PractitionerProfile
	if err := r.db.SelectContext(ctx, &profiles, profileQuery, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list practitioner profiles: %w", err)
	}
	if len(profiles) == 0 {
		return profiles, nil
	}

	const verticalQuery = `SELECT pv.user_id, v.id, v.name
FROM practitioner_verticals pv
JOIN verticals v ON v.id = pv.vertical_id
WHERE pv.user_id = ANY($1)
ORDER BY pv.user_id, v.name ASC`

	var rows []struct {
		UserID string `db:"user_id"`
		ID     string `db:"id"`
		Name   string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, verticalQuery, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list practitioner verticals: %w", err)
	}

	verticalsByUser := make(map[string][]models.Vertical, len(profiles))
	for _, row := range rows {
		verticalsByUser[row.UserID] = append(verticalsByUser[row.UserID], models.Vertical{ID: row.ID, Name: row.Name})
	}
	for i := range profiles {
		profiles[i].Verticals = verticalsByUser[profiles[i].UserID]
	}
	return profiles, nil
}

// ListActiveUserIDs returns every active practitioner's user id.
func (r *PractitionerRepository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT user_id FROM practitioner_profiles WHERE active ORDER BY user_id ASC`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list active practitioner ids: %w", err)
	}
	return ids, nil
}
