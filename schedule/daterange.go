package schedule

import (
	"fmt"
	"iter"
	"time"

	"github.com/cyp0633/libschedule/temporal"
)

// DateRange is an inclusive span of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalises both ends to calendar dates
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: temporal.Day(start), End: temporal.Day(end)}
}

// IsOneTime reports whether the range spans zero days
func (r DateRange) IsOneTime() bool {
	return temporal.DaysBetween(r.Start, r.End) == 0
}

// Days is the number of days between Start and End, rounding partial days up.
func (r DateRange) Days() int {
	const day = 24 * 60 * 60
	secs := r.End.Unix() - r.Start.Unix()
	days := secs / day
	if secs > 0 && secs%day != 0 {
		days++
	}
	return int(days)
}

// Inverted reports whether Start is after End
func (r DateRange) Inverted() bool {
	return temporal.Day(r.Start).After(temporal.Day(r.End))
}

func (r DateRange) Contains(d time.Time) bool {
	d = temporal.Day(d)
	return !d.Before(temporal.Day(r.Start)) && !d.After(temporal.Day(r.End))
}

// Overlaps reports whether the two ranges share at least one date
func (r DateRange) Overlaps(other DateRange) bool {
	if r.Inverted() || other.Inverted() {
		return false
	}
	return !temporal.Day(r.Start).After(temporal.Day(other.End)) &&
		!temporal.Day(other.Start).After(temporal.Day(r.End))
}

// Clamp returns the intersection of r and limits
func (r DateRange) Clamp(limits DateRange) (DateRange, error) {
	if !r.Overlaps(limits) {
		return DateRange{}, fmt.Errorf("%w: %s and %s", ErrNoOverlap, r, limits)
	}
	out := NewDateRange(r.Start, r.End)
	if l := temporal.Day(limits.Start); out.Start.Before(l) {
		out.Start = l
	}
	if l := temporal.Day(limits.End); out.End.After(l) {
		out.End = l
	}
	return out, nil
}

// Each yields every date of the range in ascending order. An inverted range
// yields nothing.
func (r DateRange) Each() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		start, end := temporal.Day(r.Start), temporal.Day(r.End)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
			if d.Equal(temporal.MaxDate) {
				return
			}
		}
	}
}

// Reverse yields every date of the range in descending order
func (r DateRange) Reverse() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		start, end := temporal.Day(r.Start), temporal.Day(r.End)
		for d := end; !d.Before(start); d = d.AddDate(0, 0, -1) {
			if !yield(d) {
				return
			}
			if d.Equal(temporal.MinDate) {
				return
			}
		}
	}
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
}
