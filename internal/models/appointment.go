package models

import "time"

// Appointment is a booked visit between a member and a practitioner.
type Appointment struct {
	ID               string     `db:"id" json:"id"`
	PractitionerID   string     `db:"practitioner_id" json:"practitioner_id"`
	MemberScheduleID string     `db:"member_schedule_id" json:"member_schedule_id"`
	ProductID        string     `db:"product_id" json:"product_id"`
	ScheduledStart   time.Time  `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd     time.Time  `db:"scheduled_end" json:"scheduled_end"`
	CancelledAt      *time.Time `db:"cancelled_at" json:"cancelled_at"`
}

// Cancelled reports whether the appointment was cancelled.
func (a Appointment) Cancelled() bool {
	return a.CancelledAt != nil
}

// ConflictsWith reports whether a candidate slot collides with this
// appointment once its busy window is widened by prep on each side.
// The comparison is half-open: a candidate starting exactly when the widened
// window ends does not conflict.
func (a Appointment) ConflictsWith(start, end time.Time, prep time.Duration) bool {
	if a.Cancelled() {
		return false
	}
	busyStart := a.ScheduledStart.Add(-prep)
	busyEnd := a.ScheduledEnd.Add(prep)
	return start.Before(busyEnd) && end.After(busyStart)
}
