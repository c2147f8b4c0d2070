package dto

import "time"

// AvailabilityRequest asks for a single practitioner's bookable slots.
type AvailabilityRequest struct {
	PractitionerID          string    `json:"practitioner_id" validate:"required"`
	StartTime               time.Time `json:"start_time" validate:"required"`
	EndTime                 time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MemberID                string    `json:"member_id"`
	Limit                   *int      `json:"limit" validate:"omitempty,min=1"`
	CheckDailyIntroCapacity *bool     `json:"check_daily_intro_capacity"`
}

// MassAvailabilityRequest asks for merged availability across practitioners.
type MassAvailabilityRequest struct {
	PractitionerIDs []string  `json:"practitioner_ids" validate:"required,min=1,dive,required"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MemberID        string    `json:"member_id"`
}

// PractitionerAvailabilitiesRequest asks for raw slots per practitioner.
type PractitionerAvailabilitiesRequest struct {
	PractitionerIDs  []string       `json:"practitioner_ids" validate:"required,min=1,dive,required"`
	StartTime        time.Time      `json:"start_time" validate:"required"`
	EndTime          time.Time      `json:"end_time" validate:"required,gtfield=StartTime"`
	Limit            int            `json:"limit" validate:"min=1"`
	Offset           int            `json:"offset" validate:"min=0"`
	VerticalName     string         `json:"vertical_name"`
	MemberID         string         `json:"member_id"`
	ContractPriority map[string]int `json:"contract_priority"`
}

// AvailableDatesRequest asks which calendar dates have any availability.
type AvailableDatesRequest struct {
	PractitionerIDs []string  `json:"practitioner_ids" validate:"required,min=1,dive,required"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MemberID        string    `json:"member_id"`
	VerticalName    string    `json:"vertical_name"`
	MemberTimezone  string    `json:"member_timezone"`
}
