package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carebridge/practice-api/internal/models"
)

// ScheduleEventRepository reads practitioner calendar blocks.
type ScheduleEventRepository struct {
	db *sqlx.DB
}

// NewScheduleEventRepository creates a new schedule event repository.
func NewScheduleEventRepository(db *sqlx.DB) *ScheduleEventRepository {
	return &ScheduleEventRepository{db: db}
}

// ListAvailable returns available schedule events overlapping the window,
// ordered by starts_at descending. Overlap covers events fully containing the
// window, overlapping either edge, fully contained, or matching it exactly.
func (r *ScheduleEventRepository) ListAvailable(ctx context.Context, userIDs []string, start, end time.Time) ([]models.ScheduleEvent, error) {
	const query = `SELECT id, user_id, starts_at, ends_at, state
FROM schedule_events
WHERE user_id = ANY($1)
  AND state = 'available'
  AND (
    (starts_at <= $2 AND ends_at >= $3)
    OR (starts_at >= $2 AND starts_at < $3)
    OR (ends_at > $2 AND ends_at <= $3)
    OR (starts_at >= $2 AND ends_at <= $3)
  )
ORDER BY starts_at DESC`

	var events []models.ScheduleEvent
	if err := r.db.SelectContext(ctx, &events, query, pq.Array(userIDs), start, end); err != nil {
		return nil, fmt.Errorf("list available schedule events: %w", err)
	}
	return events, nil
}
