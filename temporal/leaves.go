package temporal

import (
	"time"
)

// DayOfWeek matches every date falling on the weekday
type DayOfWeek time.Weekday

func (d DayOfWeek) Includes(date time.Time) bool {
	return date.Weekday() == time.Weekday(d)
}

// DayOfMonth matches the given day number in every month
type DayOfMonth int

func (d DayOfMonth) Includes(date time.Time) bool {
	return date.Day() == int(d)
}

// DateExact matches a single calendar date
type DateExact struct {
	Date time.Time
}

func (d DateExact) Includes(date time.Time) bool {
	return Day(date).Equal(Day(d.Date))
}

// DayInMonth matches a weekday in a given week of the month, e.g. the second
// Tuesday or the last Friday. AnyWeek matches the weekday in every week.
type DayInMonth struct {
	Day      time.Weekday
	Position Position
}

func (d DayInMonth) Includes(date time.Time) bool {
	return date.Weekday() == d.Day && weekMatches(date, d.Position)
}

// weekMatches reports whether date lies in the week ordinal p of its month.
func weekMatches(date time.Time, p Position) bool {
	switch {
	case p == AnyWeek:
		return true
	case p > 0:
		return WeekOfMonth(date.Day()) == int(p)
	default:
		return WeekFromEnd(date) == -int(p)
	}
}

// DayInterval matches every Interval-th day counted from Anchor, in both
// directions.
type DayInterval struct {
	Interval int
	Anchor   time.Time
}

func (d DayInterval) Includes(date time.Time) bool {
	return mod(DaysBetween(d.Anchor, date), normalizeInterval(d.Interval)) == 0
}

// DayInWeek matches a weekday in every Interval-th week, counting whole weeks
// from the week that contains Anchor. Dates before Anchor never match.
type DayInWeek struct {
	Day            time.Weekday
	FirstDayOfWeek time.Weekday
	Anchor         time.Time
	Interval       int
}

func (d DayInWeek) Includes(date time.Time) bool {
	if date.Weekday() != d.Day || Day(date).Before(Day(d.Anchor)) {
		return false
	}
	weeks := DaysBetween(StartOfWeek(d.Anchor, d.FirstDayOfWeek), StartOfWeek(date, d.FirstDayOfWeek)) / 7
	return mod(weeks, normalizeInterval(d.Interval)) == 0
}

// Year matches month/day every Interval years, counted from AnchorYear
type Year struct {
	Month      time.Month
	Day        int
	Interval   int
	AnchorYear int
}

func (y Year) Includes(date time.Time) bool {
	if date.Month() != y.Month || date.Day() != y.Day {
		return false
	}
	return mod(date.Year()-y.AnchorYear, normalizeInterval(y.Interval)) == 0
}

// Anniversary matches the same month and day every year
func Anniversary(month time.Month, day int) Year {
	return Year{Month: month, Day: day, Interval: 1}
}

// RangeEachYear matches the span of months StartMonth..EndMonth every year.
// StartDay and EndDay narrow the first and last month; 0 means the whole
// month. A StartMonth after EndMonth wraps around the new year.
type RangeEachYear struct {
	StartMonth time.Month
	EndMonth   time.Month
	StartDay   int
	EndDay     int
}

func (r RangeEachYear) Includes(date time.Time) bool {
	m := date.Month()
	if m == r.StartMonth && m == r.EndMonth && r.StartMonth <= r.EndMonth {
		return r.afterStart(date) && r.beforeEnd(date)
	}
	if m == r.StartMonth {
		return r.afterStart(date)
	}
	if m == r.EndMonth {
		return r.beforeEnd(date)
	}
	if r.StartMonth <= r.EndMonth {
		return m > r.StartMonth && m < r.EndMonth
	}
	return m > r.StartMonth || m < r.EndMonth
}

func (r RangeEachYear) afterStart(date time.Time) bool {
	return r.StartDay == 0 || date.Day() >= r.StartDay
}

func (r RangeEachYear) beforeEnd(date time.Time) bool {
	return r.EndDay == 0 || date.Day() <= r.EndDay
}

// QuarterMonthMatrix maps (quarter, month-in-quarter), both zero based, to a
// zero based month number.
func QuarterMonthMatrix() [4][3]int {
	var m [4][3]int
	month := 0
	for q := 0; q < 4; q++ {
		for p := 0; p < 3; p++ {
			m[q][p] = month
			month++
		}
	}
	return m
}

// DayInQuarter matches a weekday in a given week of one month of a quarter.
// Quarter is 1..4 and MonthPosition is 1..3.
type DayInQuarter struct {
	Quarter       int
	MonthPosition int
	Position      Position
	Day           time.Weekday
}

func (d DayInQuarter) Includes(date time.Time) bool {
	if d.Quarter < 1 || d.Quarter > 4 || d.MonthPosition < 1 || d.MonthPosition > 3 {
		return false
	}
	month := time.Month(QuarterMonthMatrix()[d.Quarter-1][d.MonthPosition-1] + 1)
	if date.Month() != month {
		return false
	}
	return date.Weekday() == d.Day && weekMatches(date, d.Position)
}

// FixedHoliday matches a month/day every year, e.g. July 4th
type FixedHoliday struct {
	Month time.Month
	Day   int
}

func (h FixedHoliday) Includes(date time.Time) bool {
	return date.Month() == h.Month && date.Day() == h.Day
}

// FloatingHoliday matches the nth weekday of a month every year, e.g. the
// first Monday of September.
type FloatingHoliday struct {
	Month    time.Month
	Day      time.Weekday
	Position Position
}

func (h FloatingHoliday) Includes(date time.Time) bool {
	return date.Month() == h.Month && DayInMonth{Day: h.Day, Position: h.Position}.Includes(date)
}

// MonthDay matches day Day of every Interval-th month counted from Anchor's
// month. In months shorter than Day the last day of the month matches.
type MonthDay struct {
	Day      int
	Interval int
	Anchor   time.Time
}

func (m MonthDay) Includes(date time.Time) bool {
	if !(MonthInterval{Interval: m.Interval, Anchor: m.Anchor}).Includes(date) {
		return false
	}
	want := min(m.Day, DaysInMonth(date.Year(), date.Month()))
	return date.Day() == want
}

// MonthInterval matches every date of every Interval-th month counted from
// Anchor's month.
type MonthInterval struct {
	Interval int
	Anchor   time.Time
}

func (m MonthInterval) Includes(date time.Time) bool {
	interval := normalizeInterval(m.Interval)
	if interval == 1 {
		return true
	}
	return mod(MonthsBetween(m.Anchor, date), interval) == 0
}
