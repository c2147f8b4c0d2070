package models

import "time"

// Schedule event states. The availability engine only ever consumes available
// events; other states exist on the calendar but never reach the calculators.
const (
	ScheduleEventStateAvailable   = "available"
	ScheduleEventStateUnavailable = "unavailable"
	ScheduleEventStateContingent  = "contingent"
)

// ScheduleEvent is a practitioner-declared block of calendar time.
type ScheduleEvent struct {
	ID       string    `db:"id" json:"id"`
	UserID   string    `db:"user_id" json:"user_id"`
	StartsAt time.Time `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time `db:"ends_at" json:"ends_at"`
	State    string    `db:"state" json:"state"`
}

// Overlaps reports whether the event intersects the half-open window.
func (e ScheduleEvent) Overlaps(start, end time.Time) bool {
	return e.StartsAt.Before(end) && e.EndsAt.After(start)
}
