package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/libschedule/temporal"
)

// FrequencyKind names the recurrence pattern of an event
type FrequencyKind int

const (
	KindUnknown FrequencyKind = iota
	KindOneTime
	KindDaily
	KindWeekly
	KindMonthly
	KindQuarterly
	KindYearly
)

var kindNames = map[FrequencyKind]string{
	KindOneTime:   "one-time",
	KindDaily:     "daily",
	KindWeekly:    "weekly",
	KindMonthly:   "monthly",
	KindQuarterly: "quarterly",
	KindYearly:    "yearly",
}

func (k FrequencyKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseFrequencyKind parses the names produced by FrequencyKind.String
func ParseFrequencyKind(s string) (FrequencyKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "onetime" || name == "once" {
		return KindOneTime, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
}

// Frequency is one of OneTime, Daily, Weekly, Monthly, Quarterly or Yearly.
type Frequency interface {
	Kind() FrequencyKind
	// RepeatInterval is the "every Nth unit" multiplier; values below 1 mean 1.
	RepeatInterval() int
}

// OneTime happens once, on Date. An absent date means no occurrence at all.
type OneTime struct {
	Date mo.Option[time.Time]
}

// Daily repeats every Interval days, counted from the event's Start. An
// Interval above one without a Start is rejected with
// ErrIntervalRequiresStart rather than anchored at the current day.
type Daily struct {
	Interval int
}

// Weekly repeats on Days every Interval weeks
type Weekly struct {
	Days     Weekdays
	Interval int
}

// EveryWeekday is Monday through Friday every week
func EveryWeekday() Weekly { return Weekly{Days: WorkWeek, Interval: 1} }

// MonWedFri is Monday, Wednesday and Friday every week
func MonWedFri() Weekly { return Weekly{Days: Monday | Wednesday | Friday, Interval: 1} }

// TueThu is Tuesday and Thursday every week
func TueThu() Weekly { return Weekly{Days: Tuesday | Thursday, Interval: 1} }

// Monthly repeats every Interval months, either on DayOfMonth or, when
// DayOfMonth is zero, on Days in the weeks named by Positions.
type Monthly struct {
	Interval   int
	DayOfMonth int
	Positions  MonthlyPositions
	Days       Weekdays
}

// Quarterly repeats every year on Days in the weeks named by Positions, in
// the months named by MonthPositions of each quarter in Quarters.
type Quarterly struct {
	Quarters       Quarters
	MonthPositions QuarterMonths
	Positions      MonthlyPositions
	Days           Weekdays
}

// AnniversaryDate is a month and day repeated every year
type AnniversaryDate struct {
	Month time.Month
	Day   int
}

// Yearly repeats on Anniversary every Interval years
type Yearly struct {
	Interval    int
	Anniversary mo.Option[AnniversaryDate]
}

func (OneTime) Kind() FrequencyKind   { return KindOneTime }
func (Daily) Kind() FrequencyKind     { return KindDaily }
func (Weekly) Kind() FrequencyKind    { return KindWeekly }
func (Monthly) Kind() FrequencyKind   { return KindMonthly }
func (Quarterly) Kind() FrequencyKind { return KindQuarterly }
func (Yearly) Kind() FrequencyKind    { return KindYearly }

func (OneTime) RepeatInterval() int   { return 1 }
func (f Daily) RepeatInterval() int   { return max(f.Interval, 1) }
func (f Weekly) RepeatInterval() int  { return max(f.Interval, 1) }
func (f Monthly) RepeatInterval() int { return max(f.Interval, 1) }
func (Quarterly) RepeatInterval() int { return 1 }
func (f Yearly) RepeatInterval() int  { return max(f.Interval, 1) }

// YearRange restricts occurrences to the same span of months every year.
// StartDay and EndDay narrow the first and last month when present.
type YearRange struct {
	StartMonth time.Month
	EndMonth   time.Month
	StartDay   mo.Option[int]
	EndDay     mo.Option[int]
}

// Expression returns the yearly range as a temporal expression
func (r YearRange) Expression() temporal.RangeEachYear {
	return temporal.RangeEachYear{
		StartMonth: r.StartMonth,
		EndMonth:   r.EndMonth,
		StartDay:   r.StartDay.OrEmpty(),
		EndDay:     r.EndDay.OrEmpty(),
	}
}

func (r YearRange) validate() error {
	if r.StartMonth < time.January || r.StartMonth > time.December ||
		r.EndMonth < time.January || r.EndMonth > time.December {
		return fmt.Errorf("%w: months %d..%d", ErrInvalidYearRange, r.StartMonth, r.EndMonth)
	}
	for _, d := range []mo.Option[int]{r.StartDay, r.EndDay} {
		if day, ok := d.Get(); ok && (day < 1 || day > 31) {
			return fmt.Errorf("%w: day %d", ErrInvalidYearRange, day)
		}
	}
	return nil
}

// Event describes a recurring calendar event. Events are values: the With*
// methods return modified copies.
type Event struct {
	ID    string
	Title string

	Frequency Frequency

	// Start and End bound every occurrence, inclusive
	Start mo.Option[time.Time]
	End   mo.Option[time.Time]
	// Count limits the number of occurrences; zero means no limit
	Count int

	YearRange      mo.Option[YearRange]
	FirstDayOfWeek time.Weekday

	// EndSetFromCount records the count End was derived from, if any
	EndSetFromCount int
}

// Kind reports the frequency kind, KindUnknown when no frequency is set.
func (e Event) Kind() FrequencyKind {
	if e.Frequency == nil {
		return KindUnknown
	}
	return e.Frequency.Kind()
}

// Interval is the frequency's repeat interval, at least 1
func (e Event) Interval() int {
	if e.Frequency == nil {
		return 1
	}
	return max(e.Frequency.RepeatInterval(), 1)
}

// Validate reports configuration errors. An event that can never occur, such
// as a weekly event with no days, is valid.
func (e Event) Validate() error {
	if r, ok := e.YearRange.Get(); ok {
		if err := r.validate(); err != nil {
			return err
		}
	}
	_, err := BuildUnion(e)
	return err
}

// WithEndDateForOccurrences returns a copy of the event whose End is the date
// of its nth occurrence. Exclusions are not taken into account.
func (e Event) WithEndDateForOccurrences(n int) (Event, error) {
	if n < 1 {
		return e, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	start, ok := e.Start.Get()
	if !ok {
		return e, ErrMissingStart
	}
	expr, err := baseExpression(e)
	if err != nil {
		return e, err
	}

	start = temporal.Day(start)
	window := DateRange{Start: start, End: horizon(e, start, n)}
	nth, found := NthOccurrence(expr, window, n).Get()
	if !found {
		return e, fmt.Errorf("event %q has fewer than %d occurrences", e.Title, n)
	}

	e.End = mo.Some(nth)
	e.EndSetFromCount = n
	return e, nil
}

// limits is the Start..End range, defaulting to the representable span
func (e Event) limits() DateRange {
	return DateRange{
		Start: temporal.Day(e.Start.OrElse(temporal.MinDate)),
		End:   temporal.Day(e.End.OrElse(temporal.MaxDate)),
	}
}

func (e Event) String() string {
	if e.Title != "" {
		return fmt.Sprintf("%s (%s)", e.Title, e.Kind())
	}
	return e.Kind().String()
}
