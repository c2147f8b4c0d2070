package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/practice-api/internal/models"
	appErrors "github.com/carebridge/practice-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// slotStepGranularity is the rounding applied to product minutes to derive
// the cadence between candidate slot starts. Prep buffers never widen the
// step; they only widen conflict windows against other appointments, so a
// practitioner's own generated slots stay dense.
const slotStepGranularity = 5 * time.Minute

type scheduleEventFetcher interface {
	ListAvailable(ctx context.Context, userIDs []string, start, end time.Time) ([]models.ScheduleEvent, error)
}

type appointmentFetcher interface {
	ListOverlapping(ctx context.Context, practitionerIDs []string, start, end time.Time, memberID string) ([]models.Appointment, error)
	ListMemberScheduleIDs(ctx context.Context, memberID string) ([]string, error)
	HasCareAdvocateIntro(ctx context.Context, memberID string) (bool, error)
}

type creditFetcher interface {
	ListAvailable(ctx context.Context, memberID string, asOf time.Time) ([]models.Credit, error)
}

type advocateProvider interface {
	FindAssignableAdvocate(ctx context.Context, practitionerUserID string) (*models.AssignableAdvocate, error)
	UnavailableDates(ctx context.Context, advocateID string, start, end time.Time, memberHasHadIntro, checkDailyIntroCapacity bool) ([]models.TimeRange, error)
}

// AvailabilityCalculator generates bookable slots for one practitioner and
// product pair. Construct a fresh calculator per request; instances hold no
// cross-request state.
type AvailabilityCalculator struct {
	profile models.PractitionerProfile
	product models.Product

	events       scheduleEventFetcher
	appointments appointmentFetcher
	credits      creditFetcher
	careTeam     advocateProvider

	logger *zap.Logger
	now    func() time.Time
}

// NewAvailabilityCalculator validates the practitioner/product pairing and
// wires the calculator's data access.
func NewAvailabilityCalculator(
	profile models.PractitionerProfile,
	product models.Product,
	events scheduleEventFetcher,
	appointments appointmentFetcher,
	credits creditFetcher,
	careTeam advocateProvider,
	logger *zap.Logger,
) (*AvailabilityCalculator, error) {
	if product.UserID != profile.UserID {
		return nil, appErrors.Clone(appErrors.ErrProductMismatch, "")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityCalculator{
		profile:      profile,
		product:      product,
		events:       events,
		appointments: appointments,
		credits:      credits,
		careTeam:     careTeam,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// PrepTime is the minimum gap required before and after an appointment with
// this product, from the product's own buffer or the practitioner's default.
func (c *AvailabilityCalculator) PrepTime() time.Duration {
	if c.product.PrepBuffer != nil {
		return time.Duration(*c.product.PrepBuffer) * time.Minute
	}
	if c.profile.DefaultPrepBuffer != nil {
		return time.Duration(*c.profile.DefaultPrepBuffer) * time.Minute
	}
	return 0
}

// PaddedLength is the cadence between consecutive candidate slot starts:
// the product's raw length rounded up to the next multiple of five minutes.
func (c *AvailabilityCalculator) PaddedLength() time.Duration {
	length := c.length()
	if rem := length % slotStepGranularity; rem != 0 {
		length += slotStepGranularity - rem
	}
	return length
}

// NextPossibleBookingStart is the earliest padded-and-rounded instant a
// member could book with this practitioner.
func (c *AvailabilityCalculator) NextPossibleBookingStart() time.Time {
	now := c.now()
	return PadAndRoundStartTime(now, now, c.profile.BookingBuffer, c.profile.RoundingMinutes)
}

// length is the raw, unpadded appointment duration.
func (c *AvailabilityCalculator) length() time.Duration {
	return time.Duration(c.product.Minutes) * time.Minute
}

// candidateBuffer is the larger of the prep and booking buffers, used both as
// the earliest-start floor and as the bump increment for the first candidate.
func (c *AvailabilityCalculator) candidateBuffer() time.Duration {
	buffer := time.Duration(c.profile.BookingBuffer) * time.Minute
	if prep := c.PrepTime(); prep > buffer {
		buffer = prep
	}
	return buffer
}

func (c *AvailabilityCalculator) minStartTime(now time.Time) time.Time {
	return now.Add(c.candidateBuffer())
}

// GetAvailability fetches the practitioner's calendar, existing appointments
// and the member's credits for the window and computes bookable slots.
// Invalid windows, an inactive practitioner, or an empty calendar yield an
// empty result rather than an error.
func (c *AvailabilityCalculator) GetAvailability(ctx context.Context, startTime, endTime time.Time, memberID string, limit *int, checkDailyIntroCapacity bool) ([]models.PotentialAppointment, error) {
	if limit != nil && *limit < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "limit must be at least 1")
	}
	if startTime.IsZero() || endTime.IsZero() || !endTime.After(startTime) {
		return []models.PotentialAppointment{}, nil
	}
	if !c.profile.Active {
		return []models.PotentialAppointment{}, nil
	}

	availabilities, err := c.events.ListAvailable(ctx, []string{c.profile.UserID}, startTime, endTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule events")
	}
	if len(availabilities) == 0 {
		return []models.PotentialAppointment{}, nil
	}

	existing, err := c.appointments.ListOverlapping(ctx, []string{c.profile.UserID}, startTime, endTime, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing appointments")
	}

	var credits []models.Credit
	memberHasHadIntro := false
	if memberID != "" {
		credits, err = c.credits.ListAvailable(ctx, memberID, startTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credits")
		}
		memberHasHadIntro, err = c.appointments.HasCareAdvocateIntro(ctx, memberID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check intro appointment history")
		}
	}

	return c.CalculateAvailability(ctx, startTime, endTime, availabilities, existing, credits, memberHasHadIntro, limit, 0, checkDailyIntroCapacity)
}

// CalculateAvailability walks the window at the padded-length cadence and
// collects every candidate slot that sits inside a contiguous run of
// schedule events and conflicts with nothing. Slots come back ordered by
// ascending start time. The availabilities argument may arrive in descending
// start order straight from the store; it is consumed ascending either way
// and is never mutated.
func (c *AvailabilityCalculator) CalculateAvailability(
	ctx context.Context,
	startTime, endTime time.Time,
	availabilities []models.ScheduleEvent,
	existingAppointments []models.Appointment,
	allCredits []models.Credit,
	memberHasHadIntro bool,
	limit *int,
	offset int,
	checkDailyIntroCapacity bool,
) ([]models.PotentialAppointment, error) {
	if limit != nil && *limit < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "limit must be at least 1")
	}
	if c.product.Minutes <= 0 {
		return []models.PotentialAppointment{}, nil
	}

	now := c.now()
	minStart := c.minStartTime(now)

	events := make([]models.ScheduleEvent, 0, len(availabilities))
	for _, ev := range availabilities {
		if ev.EndsAt.After(minStart) {
			events = append(events, ev)
		}
	}
	if len(events) == 0 {
		return []models.PotentialAppointment{}, nil
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })

	scheduledStart := startTime
	if scheduledStart.Before(minStart) {
		if buffer := c.candidateBuffer(); buffer > 0 {
			// Jump to the first whole-buffer increment at or past the floor
			// in one step, so a distant startTime costs nothing.
			steps := minStart.Sub(scheduledStart) / buffer
			scheduledStart = scheduledStart.Add(steps * buffer)
			if scheduledStart.Before(minStart) {
				scheduledStart = scheduledStart.Add(buffer)
			}
		} else {
			scheduledStart = minStart
		}
	}
	if scheduledStart.Before(events[0].StartsAt) {
		scheduledStart = events[0].StartsAt
	}
	scheduledEnd := scheduledStart.Add(c.length())

	unavailableDates, err := c.advocateUnavailableDates(ctx, startTime, endTime, memberHasHadIntro, checkDailyIntroCapacity)
	if err != nil {
		return nil, err
	}

	results := make([]models.PotentialAppointment, 0)
	skipped := 0
	idx := 0
	for !scheduledEnd.After(endTime) {
		conflicting := c.hasConflict(scheduledStart, scheduledEnd, existingAppointments, unavailableDates)
		if !conflicting && c.isWithinAvailabilities(scheduledStart, scheduledEnd, events) {
			if skipped < offset {
				skipped++
			} else {
				results = append(results, models.PotentialAppointment{
					ScheduledStart:        scheduledStart,
					ScheduledEnd:          scheduledEnd,
					TotalAvailableCredits: models.TotalCreditsAt(allCredits, scheduledStart),
				})
				if limit != nil && len(results) >= *limit {
					break
				}
			}
		}

		scheduledStart, scheduledEnd = c.nextStartEnd(scheduledStart)
		if scheduledStart.After(events[idx].EndsAt) {
			for idx < len(events) && scheduledStart.After(events[idx].EndsAt) {
				idx++
			}
			if idx >= len(events) {
				break
			}
			if scheduledStart.Before(events[idx].StartsAt) {
				scheduledStart = events[idx].StartsAt
				scheduledEnd = scheduledStart.Add(c.length())
			}
		}
	}

	return results, nil
}

// HasAvailabilityOnDate reports whether at least one conflict-free slot
// exists on the localized calendar date. The scan localizes each event into
// the member's timezone for date bucketing while conflict checks keep
// comparing UTC instants against UTC-stored appointment data. Inputs are
// never mutated. Credits are accepted for signature parity with the full
// scan but do not gate slot existence.
func (c *AvailabilityCalculator) HasAvailabilityOnDate(
	date time.Time,
	availabilities []models.ScheduleEvent,
	existingAppointments []models.Appointment,
	allCredits []models.Credit,
	unavailableDates []models.TimeRange,
	memberTimezone *time.Location,
) bool {
	_ = allCredits
	if c.product.Minutes <= 0 {
		return false
	}
	loc := memberTimezone
	if loc == nil {
		loc = models.ResolveTimezone("")
	}
	target := date.In(loc).Format(dateLayout)

	now := c.now()
	minStart := c.minStartTime(now)
	step := c.PaddedLength()

	for _, ev := range availabilities {
		localStart := ev.StartsAt.In(loc)
		localEnd := ev.EndsAt.In(loc)
		if localEnd.Format(dateLayout) < target {
			continue
		}
		if !eventOccursOnDate(date.In(loc), localStart, localEnd) {
			continue
		}

		start := ev.StartsAt
		for start.Before(minStart) {
			start = start.Add(step)
		}
		end := start.Add(c.length())
		for !end.After(ev.EndsAt) {
			local := start.In(loc).Format(dateLayout)
			if local > target {
				break
			}
			if local == target && !c.hasConflict(start, end, existingAppointments, unavailableDates) {
				return true
			}
			start, end = c.nextStartEnd(start)
		}
	}
	return false
}

// nextStartEnd advances one padded-length step and recomputes the slot end
// from the product's raw duration.
func (c *AvailabilityCalculator) nextStartEnd(currentStart time.Time) (time.Time, time.Time) {
	next := currentStart.Add(c.PaddedLength())
	return next, next.Add(c.length())
}

func (c *AvailabilityCalculator) advocateUnavailableDates(ctx context.Context, startTime, endTime time.Time, memberHasHadIntro, checkDailyIntroCapacity bool) ([]models.TimeRange, error) {
	if c.careTeam == nil {
		return nil, nil
	}
	advocate, err := c.careTeam.FindAssignableAdvocate(ctx, c.profile.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up assignable advocate")
	}
	if advocate == nil {
		return nil, nil
	}
	unavailable, err := c.careTeam.UnavailableDates(ctx, advocate.ID, startTime, endTime, memberHasHadIntro, checkDailyIntroCapacity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load advocate unavailable dates")
	}
	return unavailable, nil
}

// hasConflict reports whether the candidate start lands on an advocate
// unavailable date or the candidate overlaps any existing appointment once
// the appointment is widened by the prep buffer on both sides.
func (c *AvailabilityCalculator) hasConflict(start, end time.Time, appointments []models.Appointment, unavailableDates []models.TimeRange) bool {
	for _, r := range unavailableDates {
		if r.Contains(start) {
			return true
		}
	}
	prep := c.PrepTime()
	for _, appt := range appointments {
		if appt.ConflictsWith(start, end, prep) {
			return true
		}
	}
	return false
}

// isWithinAvailabilities reports whether the ascending events form a single
// contiguous block covering the candidate: some event contains the start,
// each following event begins no later than the previous one ends, and the
// chain reaches the candidate's end. Any gap breaks coverage even when both
// endpoints are individually covered.
func (c *AvailabilityCalculator) isWithinAvailabilities(start, end time.Time, events []models.ScheduleEvent) bool {
	started := false
	var chainEnd time.Time
	for _, ev := range events {
		if ev.StartsAt.After(end) {
			break
		}
		if ev.EndsAt.Before(start) {
			continue
		}
		if !started {
			if ev.StartsAt.After(start) {
				return false
			}
			started = true
			chainEnd = ev.EndsAt
		} else {
			if ev.StartsAt.After(chainEnd) {
				return false
			}
			if ev.EndsAt.After(chainEnd) {
				chainEnd = ev.EndsAt
			}
		}
		if !chainEnd.Before(end) {
			return true
		}
	}
	return false
}

// eventOccursOnDate compares calendar dates as formatted strings, inclusive
// on both ends, so an event touching midnight counts on both dates. All three
// arguments must already be localized to the same zone.
func eventOccursOnDate(date, start, end time.Time) bool {
	d := date.Format(dateLayout)
	return start.Format(dateLayout) <= d && d <= end.Format(dateLayout)
}
