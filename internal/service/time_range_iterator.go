package service

import (
	"github.com/carebridge/practice-api/internal/models"
)

// TimeRangeIterator folds an ascending slot sequence into contiguous time
// ranges. Two adjacent slots merge when the next slot starts exactly where
// the previous one ends; any positive gap starts a new range. The iterator is
// finite, single pass and not restartable: drain it once and discard it.
// Booking buffers between back-to-back appointments are deliberately not
// modeled here.
type TimeRangeIterator struct {
	slots []models.PotentialAppointment
	pos   int
}

// NewTimeRangeIterator wraps slots already ordered by ascending start time.
func NewTimeRangeIterator(slots []models.PotentialAppointment) *TimeRangeIterator {
	return &TimeRangeIterator{slots: slots}
}

// Next returns the next merged range. The second return is false once the
// input is exhausted.
func (it *TimeRangeIterator) Next() (models.TimeRange, bool) {
	if it.pos >= len(it.slots) {
		return models.TimeRange{}, false
	}

	start := it.slots[it.pos].ScheduledStart
	end := it.slots[it.pos].ScheduledEnd
	it.pos++
	for it.pos < len(it.slots) {
		next := it.slots[it.pos]
		if !next.ScheduledStart.Equal(end) {
			break
		}
		end = next.ScheduledEnd
		it.pos++
	}
	return models.NewTimeRange(start, end), true
}

// CollectTimeRanges drains the iterator into a slice.
func CollectTimeRanges(it *TimeRangeIterator) []models.TimeRange {
	ranges := make([]models.TimeRange, 0)
	for {
		r, ok := it.Next()
		if !ok {
			return ranges
		}
		ranges = append(ranges, r)
	}
}
