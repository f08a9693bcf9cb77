package temporal

import (
	"fmt"
	"strings"
	"time"
)

// Position is the ordinal of a weekday inside a month: 1 to 4 count from the
// start, Last counts from the end and AnyWeek matches every week.
type Position int

const (
	AnyWeek Position = 0
	First   Position = 1
	Second  Position = 2
	Third   Position = 3
	Fourth  Position = 4
	Last    Position = -1
)

func (p Position) String() string {
	switch p {
	case AnyWeek:
		return "any"
	case First:
		return "first"
	case Second:
		return "second"
	case Third:
		return "third"
	case Fourth:
		return "fourth"
	case Last:
		return "last"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition accepts the lowercase names produced by String, plus "every" for AnyWeek.
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "every":
		return AnyWeek, nil
	case "first", "1":
		return First, nil
	case "second", "2":
		return Second, nil
	case "third", "3":
		return Third, nil
	case "fourth", "4":
		return Fourth, nil
	case "last", "-1":
		return Last, nil
	}
	return AnyWeek, fmt.Errorf("unknown week position %q", s)
}

// ParseWeekday parses an English weekday name or its three letter abbreviation.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
