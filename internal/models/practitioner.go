package models

import "time"

// VerticalCareAdvocate is the vertical whose practitioners run intro appointments.
const VerticalCareAdvocate = "Care Advocate"

// DefaultMemberTimezone is assumed whenever a member has no usable timezone.
const DefaultMemberTimezone = "US/Eastern"

// Vertical groups practitioners by specialty.
type Vertical struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// PractitionerProfile holds the scheduling settings a practitioner configured.
type PractitionerProfile struct {
	UserID            string     `db:"user_id" json:"user_id"`
	BookingBuffer     int        `db:"booking_buffer" json:"booking_buffer"`
	RoundingMinutes   int        `db:"rounding_minutes" json:"rounding_minutes"`
	DefaultPrepBuffer *int       `db:"default_prep_buffer" json:"default_prep_buffer"`
	Active            bool       `db:"active" json:"active"`
	Verticals         []Vertical `db:"-" json:"verticals,omitempty"`
	Products          []Product  `db:"-" json:"products,omitempty"`
}

// InVertical reports whether the practitioner belongs to the named vertical.
func (p PractitionerProfile) InVertical(name string) bool {
	for _, v := range p.Verticals {
		if v.Name == name {
			return true
		}
	}
	return false
}

// AssignableAdvocate links a care-advocate practitioner to member assignment,
// carrying the capacity limits that gate intro bookings.
type AssignableAdvocate struct {
	ID                 string `db:"id" json:"id"`
	PractitionerUserID string `db:"practitioner_user_id" json:"practitioner_user_id"`
	MaxCapacity        int    `db:"max_capacity" json:"max_capacity"`
	DailyIntroCapacity int    `db:"daily_intro_capacity" json:"daily_intro_capacity"`
}

// ResolveTimezone maps a member-supplied timezone name onto a location,
// falling back to the default when the name is empty or unknown.
func ResolveTimezone(name string) *time.Location {
	if name == "" {
		name = DefaultMemberTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, err = time.LoadLocation(DefaultMemberTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}
