package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeContains(t *testing.T) {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 10, 17, 0, 0, 0, time.UTC)
	r := NewTimeRange(start, end)

	require.True(t, r.Started())
	assert.True(t, r.Contains(start))
	assert.True(t, r.Contains(end))
	assert.True(t, r.Contains(start.Add(4*time.Hour)))
	assert.False(t, r.Contains(start.Add(-time.Nanosecond)))
	assert.False(t, r.Contains(end.Add(time.Nanosecond)))
}

func TestTimeRangeUnstartedContainsNothing(t *testing.T) {
	var r TimeRange
	assert.False(t, r.Started())
	assert.False(t, r.Contains(time.Now()))
}

func TestAppointmentConflictsWithPrepWidening(t *testing.T) {
	appt := Appointment{
		ScheduledStart: time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2026, 9, 10, 10, 30, 0, 0, time.UTC),
	}
	prep := 10 * time.Minute

	// Widened busy window is 09:50-10:40.
	slotAt := func(h, m int) (time.Time, time.Time) {
		start := time.Date(2026, 9, 10, h, m, 0, 0, time.UTC)
		return start, start.Add(30 * time.Minute)
	}

	start, end := slotAt(9, 30)
	assert.True(t, appt.ConflictsWith(start, end, prep), "slot ending inside widened window must conflict")

	start, end = slotAt(10, 30)
	assert.True(t, appt.ConflictsWith(start, end, prep), "slot starting inside widened window must conflict")

	start, end = slotAt(10, 40)
	assert.False(t, appt.ConflictsWith(start, end, prep), "slot starting exactly at widened end must not conflict")

	start, end = slotAt(9, 20)
	assert.False(t, appt.ConflictsWith(start, end, prep), "slot ending exactly at widened start must not conflict")
}

func TestAppointmentConflictsWithCancelled(t *testing.T) {
	cancelled := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	appt := Appointment{
		ScheduledStart: time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2026, 9, 10, 10, 30, 0, 0, time.UTC),
		CancelledAt:    &cancelled,
	}
	assert.False(t, appt.ConflictsWith(appt.ScheduledStart, appt.ScheduledEnd, 0))
}

func TestTotalCreditsAt(t *testing.T) {
	expiry := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	credits := []Credit{
		{ID: "c-1", Amount: 1},
		{ID: "c-2", Amount: 2, ExpiresAt: &expiry},
	}

	assert.Equal(t, 3, TotalCreditsAt(credits, expiry.Add(-time.Hour)))
	assert.Equal(t, 3, TotalCreditsAt(credits, expiry), "credit expiring exactly at slot start still counts")
	assert.Equal(t, 1, TotalCreditsAt(credits, expiry.Add(time.Second)))
}

func TestScheduleEventOverlaps(t *testing.T) {
	ev := ScheduleEvent{
		StartsAt: time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC),
	}
	assert.True(t, ev.Overlaps(ev.StartsAt.Add(-time.Hour), ev.StartsAt.Add(time.Minute)))
	assert.False(t, ev.Overlaps(ev.EndsAt, ev.EndsAt.Add(time.Hour)))
}

func TestProductBookable(t *testing.T) {
	assert.True(t, Product{Minutes: 30, IsActive: true}.Bookable())
	assert.False(t, Product{Minutes: 0, IsActive: true}.Bookable())
	assert.False(t, Product{Minutes: 30, IsActive: false}.Bookable())
}

func TestResolveTimezone(t *testing.T) {
	assert.Equal(t, "US/Eastern", ResolveTimezone("").String())
	assert.Equal(t, "US/Eastern", ResolveTimezone("Not/AZone").String())
	assert.Equal(t, "America/Chicago", ResolveTimezone("America/Chicago").String())
}

func TestPractitionerProfileInVertical(t *testing.T) {
	profile := PractitionerProfile{Verticals: []Vertical{{ID: "v-1", Name: VerticalCareAdvocate}}}
	assert.True(t, profile.InVertical(VerticalCareAdvocate))
	assert.False(t, profile.InVertical("Nutrition"))
}
