package models

import "time"

// TimeRange is a mutable accumulator for a contiguous run of bookable time.
// Nil endpoints mean the range has not started yet. It only lives for the
// duration of a calculation and is never persisted.
type TimeRange struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// NewTimeRange builds a started range over [start, end].
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{StartTime: &start, EndTime: &end}
}

// Started reports whether both endpoints have been set.
func (r TimeRange) Started() bool {
	return r.StartTime != nil && r.EndTime != nil
}

// Contains reports whether t falls inside the range, inclusive on both ends.
// An unstarted range contains nothing.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Started() {
		return false
	}
	return !t.Before(*r.StartTime) && !t.After(*r.EndTime)
}

// PotentialAppointment is one computed bookable slot. ScheduledEnd minus
// ScheduledStart always equals the product's raw (unpadded) duration.
type PotentialAppointment struct {
	ScheduledStart        time.Time `json:"scheduled_start"`
	ScheduledEnd          time.Time `json:"scheduled_end"`
	TotalAvailableCredits int       `json:"total_available_credits"`
}

// PotentialMassAvailability aggregates one practitioner's merged availability.
type PotentialMassAvailability struct {
	PractitionerID string      `json:"practitioner_id"`
	ProductID      string      `json:"product_id"`
	Availabilities []TimeRange `json:"availabilities"`
}

// ContractPrioritySentinel ranks practitioners without a caller-supplied
// contract priority after every ranked practitioner.
const ContractPrioritySentinel = 99

// PotentialPractitionerAvailabilities carries one practitioner's raw slots
// plus the product facts downstream sorting needs. A record is emitted even
// when the practitioner has zero availability.
type PotentialPractitionerAvailabilities struct {
	PractitionerID        string                 `json:"practitioner_id"`
	ProductID             string                 `json:"product_id"`
	ProductPrice          float64                `json:"product_price"`
	Duration              int                    `json:"duration"`
	ContractPriority      int                    `json:"contract_priority"`
	PotentialAppointments []PotentialAppointment `json:"potential_appointments"`
}

// DateAvailability answers the calendar-dots question for one localized date.
type DateAvailability struct {
	Date            string `json:"date"`
	HasAvailability bool   `json:"hasAvailability"`
}
