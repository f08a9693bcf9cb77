package temporal

import (
	"time"
)

const secondsPerDay = 24 * 60 * 60

var (
	// MinDate is the earliest representable calendar date
	MinDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	// MaxDate is the latest representable calendar date
	MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Date builds a calendar date at midnight UTC
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day drops the time-of-day part of t, keeping the year, month and day as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Clamp keeps a date inside [MinDate, MaxDate]
func Clamp(t time.Time) time.Time {
	t = Day(t)
	if t.Before(MinDate) {
		return MinDate
	}
	if t.After(MaxDate) {
		return MaxDate
	}
	return t
}

// AddDays adds n days to t, saturating at MinDate/MaxDate instead of overflowing.
func AddDays(t time.Time, n int) time.Time {
	t = Day(t)
	// Check in day numbers first so huge n never wraps.
	target := dayNumber(t) + int64(n)
	if target < dayNumber(MinDate) {
		return MinDate
	}
	if target > dayNumber(MaxDate) {
		return MaxDate
	}
	return t.AddDate(0, 0, n)
}

// AddMonths adds n months to t with the same saturation as AddDays.
func AddMonths(t time.Time, n int) time.Time {
	t = Day(t)
	total := int64(t.Year())*12 + int64(t.Month()-1) + int64(n)
	if total < 12 {
		return MinDate
	}
	if total/12 > int64(MaxDate.Year()) {
		return MaxDate
	}
	return Clamp(t.AddDate(0, n, 0))
}

// AddYears adds n years to t with the same saturation as AddDays.
func AddYears(t time.Time, n int) time.Time {
	t = Day(t)
	year := int64(t.Year()) + int64(n)
	if year < int64(MinDate.Year()) {
		return MinDate
	}
	if year > int64(MaxDate.Year()) {
		return MaxDate
	}
	return Clamp(t.AddDate(n, 0, 0))
}

// DaysBetween returns the number of whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(dayNumber(Day(b)) - dayNumber(Day(a)))
}

// MonthsBetween returns the number of calendar months from a's month to b's month.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()*12 + int(b.Month())) - (a.Year()*12 + int(a.Month()))
}

// DaysInMonth returns the number of days of the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekOfMonth returns the 1-based week ordinal for a day-of-month number (days 1-7 are week 1).
func WeekOfMonth(dayNumber int) int {
	return (dayNumber-1)/7 + 1
}

// WeekFromEnd returns the week ordinal of t counted from the end of its month.
func WeekFromEnd(t time.Time) int {
	daysLeft := DaysInMonth(t.Year(), t.Month()) - t.Day()
	return WeekOfMonth(daysLeft + 1)
}

// StartOfWeek returns the date of the first day of the week containing t.
func StartOfWeek(t time.Time, firstDay time.Weekday) time.Time {
	diff := int(t.Weekday()) - int(firstDay)
	if diff < 0 {
		diff += 7
	}
	return AddDays(t, -diff)
}

// dayNumber counts days since the Unix epoch; valid for the whole MinDate..MaxDate span.
func dayNumber(t time.Time) int64 {
	return floorDiv(t.Unix(), secondsPerDay)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod is a non-negative modulo
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// normalizeInterval treats a misconfigured interval below 1 as 1.
func normalizeInterval(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
