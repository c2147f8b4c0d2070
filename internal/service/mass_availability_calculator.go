package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/practice-api/internal/models"
	appErrors "github.com/carebridge/practice-api/pkg/errors"
)

// CommonAvailabilityFields bundles the batched fetch results shared by every
// mass-availability operation, keyed by practitioner where relevant.
type CommonAvailabilityFields struct {
	AvailabilityByPractitioner map[string][]models.ScheduleEvent
	AppointmentsByPractitioner map[string][]models.Appointment
	MemberAppointments         []models.Appointment
	Credits                    []models.Credit
}

// MassAvailabilityCalculator runs the single-practitioner calculator over a
// batch of practitioners on top of one shared set of store queries.
type MassAvailabilityCalculator struct {
	events       scheduleEventFetcher
	appointments appointmentFetcher
	credits      creditFetcher
	careTeam     advocateProvider
	tools        *AvailabilityTools
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewMassAvailabilityCalculator wires the batch calculator. metrics may be
// nil when instrumentation is not wanted.
func NewMassAvailabilityCalculator(
	events scheduleEventFetcher,
	appointments appointmentFetcher,
	credits creditFetcher,
	careTeam advocateProvider,
	tools *AvailabilityTools,
	metrics *MetricsService,
	logger *zap.Logger,
) *MassAvailabilityCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MassAvailabilityCalculator{
		events:       events,
		appointments: appointments,
		credits:      credits,
		careTeam:     careTeam,
		tools:        tools,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// GetCommonAvailabilityFields issues one schedule-event query, one
// appointment query and one credit query for the whole batch, avoiding N+1
// access. The appointment query widens its window per row using that row's
// own prep buffer and also captures the member's appointments with other
// practitioners, which block the member's own search. Appointments are keyed
// by member_schedules ids, not member ids, so the member's schedule ids are
// resolved first and classification runs against that set.
func (m *MassAvailabilityCalculator) GetCommonAvailabilityFields(ctx context.Context, profiles []models.PractitionerProfile, startTime, endTime time.Time, memberID string) (*CommonAvailabilityFields, error) {
	ids := practitionerIDs(profiles)

	events, err := m.events.ListAvailable(ctx, ids, startTime, endTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule events")
	}
	availabilityBy := make(map[string][]models.ScheduleEvent, len(profiles))
	for _, ev := range events {
		availabilityBy[ev.UserID] = append(availabilityBy[ev.UserID], ev)
	}

	memberScheduleIDs := make(map[string]bool)
	if memberID != "" {
		scheduleIDs, err := m.appointments.ListMemberScheduleIDs(ctx, memberID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member schedule ids")
		}
		for _, id := range scheduleIDs {
			memberScheduleIDs[id] = true
		}
	}

	appointments, err := m.appointments.ListOverlapping(ctx, ids, startTime, endTime, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing appointments")
	}
	appointmentsBy := make(map[string][]models.Appointment, len(profiles))
	var memberAppointments []models.Appointment
	for _, appt := range appointments {
		appointmentsBy[appt.PractitionerID] = append(appointmentsBy[appt.PractitionerID], appt)
		if memberScheduleIDs[appt.MemberScheduleID] {
			memberAppointments = append(memberAppointments, appt)
		}
	}

	var credits []models.Credit
	if memberID != "" {
		credits, err = m.credits.ListAvailable(ctx, memberID, startTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credits")
		}
	}

	return &CommonAvailabilityFields{
		AvailabilityByPractitioner: availabilityBy,
		AppointmentsByPractitioner: appointmentsBy,
		MemberAppointments:         memberAppointments,
		Credits:                    credits,
	}, nil
}

// GetMassAvailability computes each practitioner's slots and folds them into
// merged contiguous time ranges. Practitioners missing a qualifying product
// or any available calendar time are skipped silently, not reported empty.
func (m *MassAvailabilityCalculator) GetMassAvailability(ctx context.Context, profiles []models.PractitionerProfile, startTime, endTime time.Time, memberID string) ([]models.PotentialMassAvailability, error) {
	fields, err := m.GetCommonAvailabilityFields(ctx, profiles, startTime, endTime, memberID)
	if err != nil {
		return nil, err
	}
	products, err := m.tools.LowestPriceProducts(ctx, practitionerIDs(profiles), "")
	if err != nil {
		return nil, err
	}
	memberHasHadIntro, err := m.tools.HasHadCareAdvocateIntro(ctx, memberID)
	if err != nil {
		return nil, err
	}

	results := make([]models.PotentialMassAvailability, 0, len(profiles))
	for _, profile := range profiles {
		product := products[profile.UserID]
		availabilities := fields.AvailabilityByPractitioner[profile.UserID]
		if product == nil || len(availabilities) == 0 {
			m.metrics.RecordPractitionerSkip("missing_product_or_availability")
			m.logger.Warn("skipping practitioner without product or availability",
				zap.String("practitioner_id", profile.UserID),
				zap.Bool("has_product", product != nil),
				zap.Int("event_count", len(availabilities)),
			)
			continue
		}

		calc, err := NewAvailabilityCalculator(profile, *product, m.events, m.appointments, m.credits, m.careTeam, m.logger)
		if err != nil {
			m.metrics.RecordPractitionerSkip("product_mismatch")
			m.logger.Warn("skipping practitioner with invalid product pairing",
				zap.String("practitioner_id", profile.UserID),
				zap.Error(err),
			)
			continue
		}
		calc.now = m.now

		appointments := m.blockingAppointments(profile.UserID, fields)
		slots, err := calc.CalculateAvailability(ctx, startTime, endTime, availabilities, appointments, fields.Credits, memberHasHadIntro, nil, 0, true)
		if err != nil {
			return nil, err
		}

		m.metrics.AddSlotsGenerated(len(slots))
		ranges := CollectTimeRanges(NewTimeRangeIterator(slots))
		results = append(results, models.PotentialMassAvailability{
			PractitionerID: profile.UserID,
			ProductID:      product.ID,
			Availabilities: ranges,
		})
	}
	return results, nil
}

// GetPractitionerAvailabilities returns raw slots per practitioner. Unlike
// the merged variant it always emits one record per practitioner, using the
// sentinel contract priority when the caller supplied no ranking, so callers
// can render a complete roster.
func (m *MassAvailabilityCalculator) GetPractitionerAvailabilities(
	ctx context.Context,
	profiles []models.PractitionerProfile,
	startTime, endTime time.Time,
	limit, offset int,
	verticalName, memberID string,
	contractPriorityByPractitionerID map[string]int,
) ([]models.PotentialPractitionerAvailabilities, error) {
	if limit < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "limit must be at least 1")
	}

	fields, err := m.GetCommonAvailabilityFields(ctx, profiles, startTime, endTime, memberID)
	if err != nil {
		return nil, err
	}
	products, err := m.tools.LowestPriceProducts(ctx, practitionerIDs(profiles), verticalName)
	if err != nil {
		return nil, err
	}
	memberHasHadIntro, err := m.tools.HasHadCareAdvocateIntro(ctx, memberID)
	if err != nil {
		return nil, err
	}

	results := make([]models.PotentialPractitionerAvailabilities, 0, len(profiles))
	for _, profile := range profiles {
		record := models.PotentialPractitionerAvailabilities{
			PractitionerID:        profile.UserID,
			ContractPriority:      models.ContractPrioritySentinel,
			PotentialAppointments: []models.PotentialAppointment{},
		}
		if priority, ok := contractPriorityByPractitionerID[profile.UserID]; ok {
			record.ContractPriority = priority
		}

		product := products[profile.UserID]
		availabilities := fields.AvailabilityByPractitioner[profile.UserID]
		if product != nil {
			record.ProductID = product.ID
			record.ProductPrice = product.Price
			record.Duration = product.Minutes
		}
		if product != nil && len(availabilities) > 0 {
			calc, err := NewAvailabilityCalculator(profile, *product, m.events, m.appointments, m.credits, m.careTeam, m.logger)
			if err != nil {
				m.logger.Warn("skipping slots for practitioner with invalid product pairing",
					zap.String("practitioner_id", profile.UserID),
					zap.Error(err),
				)
				results = append(results, record)
				continue
			}
			calc.now = m.now

			appointments := m.blockingAppointments(profile.UserID, fields)
			slots, err := calc.CalculateAvailability(ctx, startTime, endTime, availabilities, appointments, fields.Credits, memberHasHadIntro, &limit, offset, true)
			if err != nil {
				return nil, err
			}
			m.metrics.AddSlotsGenerated(len(slots))
			record.PotentialAppointments = slots
		}

		results = append(results, record)
	}
	return results, nil
}

// GetPractitionerAvailableDates answers, for each localized calendar date in
// the window, whether any practitioner in the batch has a bookable slot. The
// fetch window widens one day on each side so cross-timezone events landing
// on edge dates are not missed.
func (m *MassAvailabilityCalculator) GetPractitionerAvailableDates(
	ctx context.Context,
	profiles []models.PractitionerProfile,
	startTime, endTime time.Time,
	memberID, verticalName, memberTimezone string,
) ([]models.DateAvailability, error) {
	loc := models.ResolveTimezone(memberTimezone)
	widenedStart := startTime.AddDate(0, 0, -1)
	widenedEnd := endTime.AddDate(0, 0, 1)

	fields, err := m.GetCommonAvailabilityFields(ctx, profiles, widenedStart, widenedEnd, memberID)
	if err != nil {
		return nil, err
	}
	products, err := m.tools.LowestPriceProducts(ctx, practitionerIDs(profiles), verticalName)
	if err != nil {
		return nil, err
	}
	memberHasHadIntro, err := m.tools.HasHadCareAdvocateIntro(ctx, memberID)
	if err != nil {
		return nil, err
	}

	type practitionerScan struct {
		calc         *AvailabilityCalculator
		eventBuckets map[string][]models.ScheduleEvent
		apptBuckets  map[string][]models.Appointment
		unavailable  []models.TimeRange
	}
	scans := make([]practitionerScan, 0, len(profiles))
	for _, profile := range profiles {
		product := products[profile.UserID]
		availabilities := fields.AvailabilityByPractitioner[profile.UserID]
		if product == nil || len(availabilities) == 0 {
			m.metrics.RecordPractitionerSkip("missing_product_or_availability")
			m.logger.Warn("skipping practitioner without product or availability",
				zap.String("practitioner_id", profile.UserID),
				zap.Bool("has_product", product != nil),
				zap.Int("event_count", len(availabilities)),
			)
			continue
		}
		calc, err := NewAvailabilityCalculator(profile, *product, m.events, m.appointments, m.credits, m.careTeam, m.logger)
		if err != nil {
			m.metrics.RecordPractitionerSkip("product_mismatch")
			m.logger.Warn("skipping practitioner with invalid product pairing",
				zap.String("practitioner_id", profile.UserID),
				zap.Error(err),
			)
			continue
		}
		calc.now = m.now

		unavailable, err := calc.advocateUnavailableDates(ctx, widenedStart, widenedEnd, memberHasHadIntro, true)
		if err != nil {
			return nil, err
		}

		scans = append(scans, practitionerScan{
			calc:         calc,
			eventBuckets: partitionEventsByLocalizedDate(availabilities, loc),
			apptBuckets:  partitionAppointmentsByLocalizedDate(m.blockingAppointments(profile.UserID, fields), loc),
			unavailable:  unavailable,
		})
	}

	results := make([]models.DateAvailability, 0)
	for day := startTime.In(loc); !day.After(endTime.In(loc)); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		has := false
		for _, scan := range scans {
			bucket := scan.eventBuckets[date]
			if len(bucket) == 0 {
				continue
			}
			if scan.calc.HasAvailabilityOnDate(day, bucket, scan.apptBuckets[date], fields.Credits, scan.unavailable, loc) {
				has = true
				break
			}
		}
		results = append(results, models.DateAvailability{Date: date, HasAvailability: has})
	}
	return results, nil
}

// blockingAppointments merges the practitioner's own booked appointments with
// the member's appointments held elsewhere; both block a candidate slot.
func (m *MassAvailabilityCalculator) blockingAppointments(practitionerID string, fields *CommonAvailabilityFields) []models.Appointment {
	own := fields.AppointmentsByPractitioner[practitionerID]
	if len(fields.MemberAppointments) == 0 {
		return own
	}
	merged := make([]models.Appointment, 0, len(own)+len(fields.MemberAppointments))
	merged = append(merged, own...)
	for _, appt := range fields.MemberAppointments {
		if appt.PractitionerID != practitionerID {
			merged = append(merged, appt)
		}
	}
	return merged
}

func practitionerIDs(profiles []models.PractitionerProfile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	return ids
}

// partitionEventsByLocalizedDate buckets events under every localized
// calendar date they touch, so a block spanning midnight appears on both
// dates.
func partitionEventsByLocalizedDate(events []models.ScheduleEvent, loc *time.Location) map[string][]models.ScheduleEvent {
	buckets := make(map[string][]models.ScheduleEvent)
	for _, ev := range events {
		localStart := ev.StartsAt.In(loc)
		localEnd := ev.EndsAt.In(loc)
		for day := localStart; day.Format(dateLayout) <= localEnd.Format(dateLayout); day = day.AddDate(0, 0, 1) {
			date := day.Format(dateLayout)
			buckets[date] = append(buckets[date], ev)
		}
	}
	return buckets
}

func partitionAppointmentsByLocalizedDate(appointments []models.Appointment, loc *time.Location) map[string][]models.Appointment {
	buckets := make(map[string][]models.Appointment)
	for _, appt := range appointments {
		localStart := appt.ScheduledStart.In(loc)
		localEnd := appt.ScheduledEnd.In(loc)
		for day := localStart; day.Format(dateLayout) <= localEnd.Format(dateLayout); day = day.AddDate(0, 0, 1) {
			date := day.Format(dateLayout)
			buckets[date] = append(buckets[date], appt)
		}
	}
	return buckets
}
