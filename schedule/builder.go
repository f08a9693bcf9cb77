package schedule

import (
	"fmt"
	"time"

	"github.com/cyp0633/libschedule/temporal"
)

// BuildUnion compiles the event's frequency into a union of leaf expressions.
// The union does not include the event's limits, year range or exclusions.
func BuildUnion(e Event) (temporal.Union, error) {
	switch f := e.Frequency.(type) {
	case OneTime:
		return buildOneTime(f), nil
	case Daily:
		return buildDaily(e, f)
	case Weekly:
		return buildWeekly(e, f), nil
	case Monthly:
		return buildMonthly(e, f)
	case Quarterly:
		return buildQuarterly(f), nil
	case Yearly:
		return buildYearly(e, f)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFrequency, e.Frequency)
	}
}

// baseExpression is the frequency union restricted by the year range, if any.
func baseExpression(e Event) (temporal.Expression, error) {
	union, err := BuildUnion(e)
	if err != nil {
		return nil, err
	}
	r, ok := e.YearRange.Get()
	if !ok {
		return union, nil
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return temporal.Intersection{union, r.Expression()}, nil
}

func buildOneTime(f OneTime) temporal.Union {
	date, ok := f.Date.Get()
	if !ok {
		return temporal.Union{}
	}
	return temporal.Union{temporal.DateExact{Date: temporal.Day(date)}}
}

func buildDaily(e Event, f Daily) (temporal.Union, error) {
	interval := f.RepeatInterval()
	if interval == 1 {
		union := make(temporal.Union, 0, 7)
		for d := range AllDays.Each() {
			union = append(union, temporal.DayOfWeek(d))
		}
		return union, nil
	}

	start, ok := e.Start.Get()
	if !ok {
		return nil, fmt.Errorf("daily every %d days: %w", interval, ErrIntervalRequiresStart)
	}
	return temporal.Union{temporal.DayInterval{Interval: interval, Anchor: temporal.Day(start)}}, nil
}

func buildWeekly(e Event, f Weekly) temporal.Union {
	interval := f.RepeatInterval()
	start, hasStart := e.Start.Get()

	var union temporal.Union
	for d := range f.Days.Each() {
		if interval > 1 && hasStart {
			union = append(union, temporal.DayInWeek{
				Day:            d,
				FirstDayOfWeek: e.FirstDayOfWeek,
				Anchor:         temporal.Day(start),
				Interval:       interval,
			})
			continue
		}
		union = append(union, temporal.DayOfWeek(d))
	}
	return union
}

func buildMonthly(e Event, f Monthly) (temporal.Union, error) {
	interval := f.RepeatInterval()
	var anchor time.Time
	if interval > 1 {
		start, ok := e.Start.Get()
		if !ok {
			return nil, fmt.Errorf("monthly every %d months: %w", interval, ErrIntervalRequiresStart)
		}
		anchor = temporal.Day(start)
	}

	if f.DayOfMonth > 0 {
		return temporal.Union{temporal.MonthDay{Day: f.DayOfMonth, Interval: interval, Anchor: anchor}}, nil
	}

	var days temporal.Union
	for pos := range f.Positions.Each() {
		for d := range f.Days.Each() {
			days = append(days, temporal.DayInMonth{Day: d, Position: pos})
		}
	}
	if interval == 1 || len(days) == 0 {
		return days, nil
	}
	return temporal.Union{temporal.Intersection{
		temporal.MonthInterval{Interval: interval, Anchor: anchor},
		days,
	}}, nil
}

func buildQuarterly(f Quarterly) temporal.Union {
	var union temporal.Union
	for q := range f.Quarters.Each() {
		for m := range f.MonthPositions.Each() {
			for pos := range f.Positions.Each() {
				for d := range f.Days.Each() {
					union = append(union, temporal.DayInQuarter{
						Quarter:       q,
						MonthPosition: m,
						Position:      pos,
						Day:           d,
					})
				}
			}
		}
	}
	return union
}

func buildYearly(e Event, f Yearly) (temporal.Union, error) {
	ann, ok := f.Anniversary.Get()
	if !ok {
		return nil, ErrMissingAnniversary
	}
	// 2000 is a leap year, so February 29th is accepted
	if ann.Month < time.January || ann.Month > time.December ||
		ann.Day < 1 || ann.Day > temporal.DaysInMonth(2000, ann.Month) {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidAnniversary, ann.Month, ann.Day)
	}

	interval := f.RepeatInterval()
	leaf := temporal.Year{Month: ann.Month, Day: ann.Day, Interval: interval}
	if start, ok := e.Start.Get(); ok {
		leaf.AnchorYear = anchorYear(temporal.Day(start), ann)
	} else if interval > 1 {
		return nil, fmt.Errorf("yearly every %d years: %w", interval, ErrIntervalRequiresStart)
	}
	return temporal.Union{leaf}, nil
}

// anchorYear is the year of the first anniversary on or after start.
func anchorYear(start time.Time, ann AnniversaryDate) int {
	if start.Month() > ann.Month || (start.Month() == ann.Month && start.Day() > ann.Day) {
		return start.Year() + 1
	}
	return start.Year()
}
