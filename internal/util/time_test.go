package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayAndMonthRange(t *testing.T) {
	SetLocation(time.UTC)

	ts := time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC)
	start, end := DayRange(ts)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), end)

	mStart, mEnd := MonthRange(ts)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), mStart)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), mEnd)
}

func TestSameDayUsesConfiguredZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	SetLocation(ist)
	defer SetLocation(time.UTC)

	// 20:00 UTC and 17:00 UTC on the same UTC date fall on different IST days.
	a := time.Date(2026, time.January, 10, 17, 0, 0, 0, time.UTC)
	b := time.Date(2026, time.January, 10, 20, 0, 0, 0, time.UTC)
	assert.False(t, SameDay(a, b))
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.True(t, SameDay(b, b.Add(time.Hour)))
}
