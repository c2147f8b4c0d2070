package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carebridge/practice-api/internal/models"
)

// CareTeamRepository reads care-advocate assignment and capacity data.
type CareTeamRepository struct {
	db *sqlx.DB
}

// NewCareTeamRepository creates a new care team repository.
func NewCareTeamRepository(db *sqlx.DB) *CareTeamRepository {
	return &CareTeamRepository{db: db}
}

// FindAssignableAdvocate returns the advocate record backing the given
// practitioner, or nil when the practitioner is not an assignable advocate.
func (r *CareTeamRepository) FindAssignableAdvocate(ctx context.Context, practitionerUserID string) (*models.AssignableAdvocate, error) {
	const query = `SELECT id, practitioner_user_id, max_capacity, daily_intro_capacity
FROM assignable_advocates
WHERE practitioner_user_id = $1`

	var advocate models.AssignableAdvocate
	if err := r.db.GetContext(ctx, &advocate, query, practitionerUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find assignable advocate: %w", err)
	}
	return &advocate, nil
}

// UnavailableDates returns full-day ranges on which the advocate cannot take
// another intro appointment. Capacity only constrains a member's first intro,
// so members who already had theirs see no unavailable dates, and callers can
// disable the capacity check entirely.
func (r *CareTeamRepository) UnavailableDates(ctx context.Context, advocateID string, start, end time.Time, memberHasHadIntro, checkDailyIntroCapacity bool) ([]models.TimeRange, error) {
	if !checkDailyIntroCapacity || memberHasHadIntro {
		return nil, nil
	}

	const query = `SELECT t.day
FROM (
  SELECT date_trunc('day', a.scheduled_start) AS day, COUNT(*) AS booked
  FROM appointments a
  JOIN assignable_advocates aa ON aa.practitioner_user_id = a.practitioner_id
  WHERE aa.id = $1
    AND a.cancelled_at IS NULL
    AND a.scheduled_start >= $2
    AND a.scheduled_start < $3
  GROUP BY 1
) t
JOIN assignable_advocates cap ON cap.id = $1
WHERE t.booked >= cap.daily_intro_capacity
ORDER BY t.day ASC`

	var days []time.Time
	if err := r.db.SelectContext(ctx, &days, query, advocateID, start, end); err != nil {
		return nil, fmt.Errorf("advocate unavailable dates: %w", err)
	}

	ranges := make([]models.TimeRange, 0, len(days))
	for _, day := range days {
		ranges = append(ranges, models.NewTimeRange(day, day.Add(24*time.Hour-time.Nanosecond)))
	}
	return ranges, nil
}
