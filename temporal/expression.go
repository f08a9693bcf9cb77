// Package temporal implements a small algebra of date predicates used to
// describe recurring calendar events.
//
// An Expression answers whether a calendar date belongs to the set it
// describes. Leaves match on a single calendar property (weekday, day of
// month, nth weekday of a month, ...) and the combinators Union,
// Intersection and Difference compose them. Expressions are immutable values
// and safe for concurrent use.
package temporal

import (
	"time"
)

// Expression is a predicate over calendar dates
type Expression interface {
	Includes(date time.Time) bool
}

// ExpressionFunc adapts a plain function to the Expression interface
type ExpressionFunc func(date time.Time) bool

func (f ExpressionFunc) Includes(date time.Time) bool {
	return f(date)
}

// Union includes a date when any member does. An empty union includes nothing.
type Union []Expression

func (u Union) Includes(date time.Time) bool {
	for _, e := range u {
		if e.Includes(date) {
			return true
		}
	}
	return false
}

// Intersection includes a date when every member does. An empty intersection
// includes every date.
type Intersection []Expression

func (in Intersection) Includes(date time.Time) bool {
	for _, e := range in {
		if !e.Includes(date) {
			return false
		}
	}
	return true
}

// Difference includes dates matched by Include and not matched by Exclude.
// A nil Exclude excludes nothing.
type Difference struct {
	Include Expression
	Exclude Expression
}

func (d Difference) Includes(date time.Time) bool {
	if d.Include == nil || !d.Include.Includes(date) {
		return false
	}
	return d.Exclude == nil || !d.Exclude.Includes(date)
}

// Never is an expression that includes no date
var Never Expression = Union(nil)
