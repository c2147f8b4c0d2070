package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carebridge/practice-api/internal/models"
)

// AppointmentRepository reads booked appointments for conflict checking.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// ListOverlapping returns non-cancelled appointments whose window overlaps
// [start - prep, end + prep]. The prep buffer is resolved per row in SQL from
// the appointment's product, falling back to the practitioner's default.
// When memberID is set, appointments that member holds with any practitioner
// are included too, since those block the member's own search. Appointments
// reference member_schedules rows, not members, so the member's schedule ids
// are resolved from their member id here.
func (r *AppointmentRepository) ListOverlapping(ctx context.Context, practitionerIDs []string, start, end time.Time, memberID string) ([]models.Appointment, error) {
	const query = `SELECT a.id, a.practitioner_id, a.member_schedule_id, a.product_id, a.scheduled_start, a.scheduled_end, a.cancelled_at
FROM appointments a
JOIN products p ON p.id = a.product_id
JOIN practitioner_profiles pp ON pp.user_id = a.practitioner_id
WHERE a.cancelled_at IS NULL
  AND (a.practitioner_id = ANY($1)
    OR ($4 <> '' AND a.member_schedule_id IN (SELECT id FROM member_schedules WHERE member_id = $4)))
  AND a.scheduled_start <= $3 + make_interval(mins => COALESCE(p.prep_buffer, pp.default_prep_buffer, 0))
  AND a.scheduled_end >= $2 - make_interval(mins => COALESCE(p.prep_buffer, pp.default_prep_buffer, 0))
ORDER BY a.scheduled_start ASC`

	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, pq.Array(practitionerIDs), start, end, memberID); err != nil {
		return nil, fmt.Errorf("list overlapping appointments: %w", err)
	}
	return appointments, nil
}

// ListMemberScheduleIDs returns the member_schedules ids belonging to the
// member. Appointment rows carry a schedule id, so callers classifying
// appointments by member need this mapping.
func (r *AppointmentRepository) ListMemberScheduleIDs(ctx context.Context, memberID string) ([]string, error) {
	const query = `SELECT id FROM member_schedules WHERE member_id = $1`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, memberID); err != nil {
		return nil, fmt.Errorf("list member schedule ids: %w", err)
	}
	return ids, nil
}

// HasCareAdvocateIntro reports whether the member has ever had an appointment
// with a Care Advocate vertical practitioner.
func (r *AppointmentRepository) HasCareAdvocateIntro(ctx context.Context, memberID string) (bool, error) {
	const query = `SELECT EXISTS (
  SELECT 1
  FROM appointments a
  JOIN member_schedules ms ON ms.id = a.member_schedule_id
  JOIN practitioner_verticals pv ON pv.user_id = a.practitioner_id
  JOIN verticals v ON v.id = pv.vertical_id
  WHERE ms.member_id = $1
    AND a.cancelled_at IS NULL
    AND v.name = $2
)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, memberID, models.VerticalCareAdvocate); err != nil {
		return false, fmt.Errorf("check care advocate intro: %w", err)
	}
	return exists, nil
}
