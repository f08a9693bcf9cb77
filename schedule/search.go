package schedule

import (
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/libschedule/temporal"
)

// NthOccurrence returns the nth date (1-based) in r that expr includes.
func NthOccurrence(expr temporal.Expression, r DateRange, n int) mo.Option[time.Time] {
	if n < 1 || r.Inverted() {
		return mo.None[time.Time]()
	}
	seen := 0
	for d := range r.Each() {
		if expr.Includes(d) {
			seen++
			if seen == n {
				return mo.Some(d)
			}
		}
	}
	return mo.None[time.Time]()
}

// WindowDays is the initial size of the search window for a frequency: one
// repeat period plus one unit, so a window always spans a full period.
func WindowDays(kind FrequencyKind, interval int) int {
	interval = max(interval, 1)
	switch kind {
	case KindDaily:
		return interval + 1
	case KindWeekly:
		return (interval + 1) * 7
	case KindMonthly:
		return (interval + 1) * 31
	case KindYearly:
		return (interval + 1) * 366
	default:
		// quarterly, one-time and anything unknown search a year at a time
		return 366
	}
}

// horizon is a date far enough after start to hold n occurrences of e when
// nothing is excluded.
func horizon(e Event, start time.Time, n int) time.Time {
	units := n*e.Interval() + 1

	var end time.Time
	switch e.Kind() {
	case KindDaily:
		end = temporal.AddDays(start, units)
	case KindWeekly:
		end = temporal.AddDays(start, units*7)
	case KindMonthly:
		end = temporal.AddMonths(start, units)
	case KindQuarterly:
		end = temporal.AddYears(start, n+1)
	case KindYearly:
		// the year range only decides whether the anniversary can match at all
		if leapDayAnniversary(e) {
			step := lcm(e.Interval(), 4)
			// +1 step covers the missing leap day of a century year
			return temporal.AddYears(start, (n+2)*step)
		}
		return temporal.AddYears(start, units)
	default:
		return temporal.AddYears(start, 1)
	}

	if _, ok := e.YearRange.Get(); ok {
		// a range as narrow as one day lands on a given weekday about once
		// every seven years
		if byYears := temporal.AddYears(start, units*7); byYears.After(end) {
			end = byYears
		}
	}
	return end
}

func leapDayAnniversary(e Event) bool {
	f, ok := e.Frequency.(Yearly)
	if !ok {
		return false
	}
	ann, ok := f.Anniversary.Get()
	return ok && ann.Month == time.February && ann.Day == 29
}

func lcm(a, b int) int {
	x, y := a, b
	for y != 0 {
		x, y = y, x%y
	}
	return a / x * b
}

// mustOrdered panics when a computed window is inverted; the search code
// never builds one from valid input.
func mustOrdered(r DateRange) {
	if r.Inverted() {
		panic(fmt.Sprintf("schedule: computed search window %s has start after end", r))
	}
}

// scanForward finds the first occurrence in bound, sliding a window forward
// and doubling its size after each empty window.
func (s *Schedule) scanForward(bound DateRange) mo.Option[time.Time] {
	size := s.window
	from := bound.Start
	for {
		to := temporal.AddDays(from, size-1)
		if to.After(bound.End) {
			to = bound.End
		}
		w := DateRange{Start: from, End: to}
		mustOrdered(w)
		for d := range w.Each() {
			if s.includes(d) {
				return mo.Some(d)
			}
		}
		if !to.Before(bound.End) {
			return mo.None[time.Time]()
		}
		from = temporal.AddDays(to, 1)
		size = s.grow(size)
		s.logger.Debug("widening forward search window",
			"schedule", s.id, "from", from.Format(time.DateOnly), "days", size)
	}
}

// scanBackward is scanForward in reverse, starting at bound.End.
func (s *Schedule) scanBackward(bound DateRange) mo.Option[time.Time] {
	size := s.window
	to := bound.End
	for {
		from := temporal.AddDays(to, -(size - 1))
		if from.Before(bound.Start) {
			from = bound.Start
		}
		w := DateRange{Start: from, End: to}
		mustOrdered(w)
		for d := range w.Reverse() {
			if s.includes(d) {
				return mo.Some(d)
			}
		}
		if !from.After(bound.Start) {
			return mo.None[time.Time]()
		}
		to = temporal.AddDays(from, -1)
		size = s.grow(size)
		s.logger.Debug("widening backward search window",
			"schedule", s.id, "to", to.Format(time.DateOnly), "days", size)
	}
}

func (s *Schedule) grow(size int) int {
	limit := max(s.window, s.config.MaxWindowDays)
	return min(size*2, limit)
}
