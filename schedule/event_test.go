package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libschedule/temporal"
)

func TestWeekdays(t *testing.T) {
	w := WeekdaysOf(time.Friday, time.Monday)
	assert.Equal(t, Monday|Friday, w)
	assert.True(t, w.Has(time.Monday))
	assert.False(t, w.Has(time.Tuesday))
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, slices.Collect(w.Each()))
	assert.Equal(t, "Mon|Fri", w.String())
	assert.Equal(t, "none", Weekdays(0).String())
	assert.Equal(t, Weekdays(127), AllDays)
}

func TestMonthlyPositions(t *testing.T) {
	assert.Equal(t, MonthlyPositions(31), EveryWeek)
	assert.Equal(t, FirstWeek|ThirdWeek, PositionsOf(temporal.First, temporal.Third))
	assert.Equal(t, EveryWeek, PositionsOf(temporal.AnyWeek))

	p := FirstWeek | LastWeek
	assert.Equal(t, []temporal.Position{temporal.First, temporal.Last}, slices.Collect(p.Each()))
	assert.True(t, p.Has(temporal.Last))
	assert.False(t, p.Has(temporal.Second))
	assert.Equal(t, "first|last", p.String())

	assert.Equal(t, []temporal.Position{temporal.AnyWeek}, slices.Collect(EveryWeek.Each()))
	assert.True(t, EveryWeek.Has(temporal.AnyWeek))
}

func TestQuartersAndQuarterMonths(t *testing.T) {
	q := QuartersOf(2, 4, 7)
	assert.Equal(t, Q2|Q4, q)
	assert.Equal(t, []int{2, 4}, slices.Collect(q.Each()))
	assert.Equal(t, "Q2|Q4", q.String())
	assert.Equal(t, Quarters(10), q)

	m := QuarterMonthsOf(2, 3)
	assert.Equal(t, SecondMonth|LastMonth, m)
	assert.Equal(t, QuarterMonths(6), m)
	assert.Equal(t, []int{2, 3}, slices.Collect(m.Each()))
	assert.Equal(t, "second|last", m.String())
}

func TestFrequencyKind(t *testing.T) {
	for _, k := range []FrequencyKind{KindOneTime, KindDaily, KindWeekly, KindMonthly, KindQuarterly, KindYearly} {
		parsed, err := ParseFrequencyKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	k, err := ParseFrequencyKind(" Monthly ")
	require.NoError(t, err)
	assert.Equal(t, KindMonthly, k)

	_, err = ParseFrequencyKind("fortnightly")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestEvent_KindAndInterval(t *testing.T) {
	assert.Equal(t, KindUnknown, Event{}.Kind())
	assert.Equal(t, 1, Event{}.Interval())
	assert.Equal(t, KindWeekly, Event{Frequency: EveryWeekday()}.Kind())
	assert.Equal(t, 1, Event{Frequency: Daily{Interval: -3}}.Interval())
	assert.Equal(t, 3, Event{Frequency: Monthly{Interval: 3}}.Interval())
	assert.Equal(t, 1, Event{Frequency: Quarterly{}}.Interval())
	assert.Equal(t, "Trash (weekly)", Event{Title: "Trash", Frequency: TueThu()}.String())
}

func TestYearRange_Expression(t *testing.T) {
	r := YearRange{StartMonth: time.June, EndMonth: time.September, StartDay: mo.Some(15), EndDay: mo.Some(30)}
	expr := r.Expression()
	assert.False(t, expr.Includes(date(2013, 6, 1)))
	assert.True(t, expr.Includes(date(2013, 6, 15)))
	assert.NoError(t, Event{Frequency: Daily{}, YearRange: mo.Some(r)}.Validate())
}

func TestBuildUnion_Shapes(t *testing.T) {
	start := some(date(2013, 1, 15))

	tests := []struct {
		name  string
		event Event
		size  int
	}{
		{"daily", Event{Frequency: Daily{}}, 7},
		{"daily interval", Event{Frequency: Daily{Interval: 2}, Start: start}, 1},
		{"weekly", Event{Frequency: MonWedFri()}, 3},
		{"monthly positions", Event{Frequency: Monthly{Positions: FirstWeek | ThirdWeek, Days: Monday | Friday}}, 4},
		{"monthly every week", Event{Frequency: Monthly{Positions: EveryWeek, Days: Monday | Friday}}, 2},
		{"monthly interval", Event{Frequency: Monthly{Interval: 2, Positions: LastWeek, Days: Monday | Friday}, Start: start}, 1},
		{"quarterly", Event{Frequency: Quarterly{Quarters: Q2 | Q4, MonthPositions: SecondMonth, Positions: SecondWeek, Days: Wednesday}}, 2},
		{"one-time", Event{Frequency: OneTime{Date: start}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := BuildUnion(tt.event)
			require.NoError(t, err)
			assert.Len(t, u, tt.size)
		})
	}
}
