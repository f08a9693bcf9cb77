package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libschedule/temporal"
)

func TestDateRange_IsOneTimeAndDays(t *testing.T) {
	day := NewDateRange(date(2013, 1, 1), date(2013, 1, 1))
	assert.True(t, day.IsOneTime())
	assert.Equal(t, 0, day.Days())

	week := NewDateRange(date(2013, 1, 1), date(2013, 1, 8))
	assert.False(t, week.IsOneTime())
	assert.Equal(t, 7, week.Days())

	partial := DateRange{
		Start: time.Date(2013, 1, 1, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2013, 1, 3, 9, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 3, partial.Days())
}

func TestDateRange_OverlapsAndClamp(t *testing.T) {
	limits := NewDateRange(date(2000, 1, 1), date(2010, 12, 31))

	tests := []struct {
		name     string
		r        DateRange
		overlaps bool
		clamped  DateRange
	}{
		{"inside", NewDateRange(date(2004, 1, 1), date(2004, 2, 1)), true, NewDateRange(date(2004, 1, 1), date(2004, 2, 1))},
		{"straddles start", NewDateRange(date(1995, 1, 1), date(2001, 1, 1)), true, NewDateRange(date(2000, 1, 1), date(2001, 1, 1))},
		{"straddles end", NewDateRange(date(2010, 6, 1), date(2020, 1, 1)), true, NewDateRange(date(2010, 6, 1), date(2010, 12, 31))},
		{"covers", NewDateRange(date(1990, 1, 1), date(2020, 1, 1)), true, limits},
		{"touches end", NewDateRange(date(2010, 12, 31), date(2011, 1, 5)), true, NewDateRange(date(2010, 12, 31), date(2010, 12, 31))},
		{"before", NewDateRange(date(1990, 1, 1), date(1999, 12, 31)), false, DateRange{}},
		{"after", NewDateRange(date(2011, 1, 1), date(2012, 1, 1)), false, DateRange{}},
		{"inverted", NewDateRange(date(2004, 2, 1), date(2004, 1, 1)), false, DateRange{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.r.Overlaps(limits))
			assert.Equal(t, tt.overlaps, limits.Overlaps(tt.r))

			got, err := tt.r.Clamp(limits)
			if !tt.overlaps {
				assert.ErrorIs(t, err, ErrNoOverlap)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.clamped, got)
		})
	}
}

func TestDateRange_EachAndReverse(t *testing.T) {
	r := NewDateRange(date(2012, 2, 27), date(2012, 3, 1))
	want := []time.Time{date(2012, 2, 27), date(2012, 2, 28), date(2012, 2, 29), date(2012, 3, 1)}

	assert.Equal(t, want, slices.Collect(r.Each()))

	reversed := slices.Clone(want)
	slices.Reverse(reversed)
	assert.Equal(t, reversed, slices.Collect(r.Reverse()))

	assert.Empty(t, slices.Collect(NewDateRange(date(2012, 3, 1), date(2012, 2, 1)).Each()))

	edge := NewDateRange(temporal.AddDays(temporal.MaxDate, -1), temporal.MaxDate)
	assert.Len(t, slices.Collect(edge.Each()), 2)
	low := NewDateRange(temporal.MinDate, temporal.AddDays(temporal.MinDate, 1))
	assert.Len(t, slices.Collect(low.Reverse()), 2)
}

func TestDateRange_Contains(t *testing.T) {
	r := NewDateRange(date(2013, 1, 1), date(2013, 1, 31))
	assert.True(t, r.Contains(date(2013, 1, 1)))
	assert.True(t, r.Contains(time.Date(2013, 1, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(date(2013, 2, 1)))
	assert.Equal(t, "2013-01-01..2013-01-31", r.String())
}
