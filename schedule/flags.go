package schedule

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/cyp0633/libschedule/temporal"
)

// Weekdays is a set of days of the week
type Weekdays uint8

const (
	Sunday Weekdays = 1 << iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday

	Weekend  = Saturday | Sunday
	WorkWeek = Monday | Tuesday | Wednesday | Thursday | Friday
	AllDays  = WorkWeek | Weekend
)

// WeekdaysOf builds a set from time.Weekday values
func WeekdaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

// Each yields the days in the set from Sunday to Saturday
func (w Weekdays) Each() iter.Seq[time.Weekday] {
	return func(yield func(time.Weekday) bool) {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if w.Has(d) && !yield(d) {
				return
			}
		}
	}
}

func (w Weekdays) String() string {
	var parts []string
	for d := range w.Each() {
		parts = append(parts, d.String()[:3])
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// MonthlyPositions is a set of week ordinals within a month
type MonthlyPositions uint8

const (
	FirstWeek MonthlyPositions = 1 << iota
	SecondWeek
	ThirdWeek
	FourthWeek
	LastWeek

	EveryWeek = FirstWeek | SecondWeek | ThirdWeek | FourthWeek | LastWeek
)

var monthlyPositionOrder = []struct {
	flag MonthlyPositions
	pos  temporal.Position
}{
	{FirstWeek, temporal.First},
	{SecondWeek, temporal.Second},
	{ThirdWeek, temporal.Third},
	{FourthWeek, temporal.Fourth},
	{LastWeek, temporal.Last},
}

// PositionsOf builds a set from temporal positions. AnyWeek yields EveryWeek.
func PositionsOf(positions ...temporal.Position) MonthlyPositions {
	var m MonthlyPositions
	for _, p := range positions {
		if p == temporal.AnyWeek {
			return EveryWeek
		}
		for _, o := range monthlyPositionOrder {
			if o.pos == p {
				m |= o.flag
			}
		}
	}
	return m
}

func (m MonthlyPositions) Has(p temporal.Position) bool {
	if p == temporal.AnyWeek {
		return m == EveryWeek
	}
	for _, o := range monthlyPositionOrder {
		if o.pos == p {
			return m&o.flag != 0
		}
	}
	return false
}

// Each yields the positions in the set, first week to last week. The full
// set yields the single position AnyWeek so that fifth weeks are not lost.
func (m MonthlyPositions) Each() iter.Seq[temporal.Position] {
	return func(yield func(temporal.Position) bool) {
		if m == EveryWeek {
			yield(temporal.AnyWeek)
			return
		}
		for _, o := range monthlyPositionOrder {
			if m&o.flag != 0 && !yield(o.pos) {
				return
			}
		}
	}
}

func (m MonthlyPositions) String() string {
	var parts []string
	for p := range m.Each() {
		parts = append(parts, p.String())
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Quarters is a set of calendar quarters
type Quarters uint8

const (
	Q1 Quarters = 1 << iota
	Q2
	Q3
	Q4

	AllQuarters = Q1 | Q2 | Q3 | Q4
)

// QuartersOf builds a set from quarter numbers 1..4; other numbers are ignored.
func QuartersOf(quarters ...int) Quarters {
	var q Quarters
	for _, n := range quarters {
		if n >= 1 && n <= 4 {
			q |= 1 << uint(n-1)
		}
	}
	return q
}

func (q Quarters) Has(n int) bool {
	return n >= 1 && n <= 4 && q&(1<<uint(n-1)) != 0
}

// Each yields quarter numbers 1..4 in ascending order
func (q Quarters) Each() iter.Seq[int] {
	return func(yield func(int) bool) {
		for n := 1; n <= 4; n++ {
			if q.Has(n) && !yield(n) {
				return
			}
		}
	}
}

func (q Quarters) String() string {
	var parts []string
	for n := range q.Each() {
		parts = append(parts, fmt.Sprintf("Q%d", n))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// QuarterMonths is a set of month positions inside a quarter
type QuarterMonths uint8

const (
	FirstMonth QuarterMonths = 1 << iota
	SecondMonth
	LastMonth
)

// QuarterMonthsOf builds a set from month positions 1..3; other numbers are ignored.
func QuarterMonthsOf(positions ...int) QuarterMonths {
	var m QuarterMonths
	for _, n := range positions {
		if n >= 1 && n <= 3 {
			m |= 1 << uint(n-1)
		}
	}
	return m
}

func (m QuarterMonths) Has(n int) bool {
	return n >= 1 && n <= 3 && m&(1<<uint(n-1)) != 0
}

// Each yields month positions 1..3 in ascending order
func (m QuarterMonths) Each() iter.Seq[int] {
	return func(yield func(int) bool) {
		for n := 1; n <= 3; n++ {
			if m.Has(n) && !yield(n) {
				return
			}
		}
	}
}

func (m QuarterMonths) String() string {
	names := []string{"first", "second", "last"}
	var parts []string
	for n := range m.Each() {
		parts = append(parts, names[n-1])
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
