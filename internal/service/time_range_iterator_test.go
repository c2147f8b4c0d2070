package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/practice-api/internal/models"
)

func slot(start time.Time, minutes int) models.PotentialAppointment {
	return models.PotentialAppointment{ScheduledStart: start, ScheduledEnd: start.Add(time.Duration(minutes) * time.Minute)}
}

func TestTimeRangeIteratorMergesContiguousSlots(t *testing.T) {
	base := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	slots := []models.PotentialAppointment{
		slot(base, 30),
		slot(base.Add(30*time.Minute), 30),
		slot(base.Add(60*time.Minute), 30),
	}

	ranges := CollectTimeRanges(NewTimeRangeIterator(slots))
	require.Len(t, ranges, 1)
	assert.Equal(t, base, *ranges[0].StartTime)
	assert.Equal(t, base.Add(90*time.Minute), *ranges[0].EndTime)
}

func TestTimeRangeIteratorSplitsOnAnyGap(t *testing.T) {
	base := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	slots := []models.PotentialAppointment{
		slot(base, 30),
		slot(base.Add(30*time.Minute), 30),
		slot(base.Add(61*time.Minute), 30), // one minute past the previous end
	}

	ranges := CollectTimeRanges(NewTimeRangeIterator(slots))
	require.Len(t, ranges, 2)
	assert.Equal(t, base.Add(60*time.Minute), *ranges[0].EndTime)
	assert.Equal(t, base.Add(61*time.Minute), *ranges[1].StartTime)
}

func TestTimeRangeIteratorExhausts(t *testing.T) {
	it := NewTimeRangeIterator(nil)
	_, ok := it.Next()
	assert.False(t, ok)

	it = NewTimeRangeIterator([]models.PotentialAppointment{slot(time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), 30)})
	_, ok = it.Next()
	require.True(t, ok)
	_, ok = it.Next()
	assert.False(t, ok, "the iterator is single pass")
}
