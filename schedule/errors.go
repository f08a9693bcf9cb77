package schedule

import "errors"

// Configuration errors, returned by New and Event.Validate
var (
	ErrMissingAnniversary    = errors.New("yearly frequency requires an anniversary")
	ErrInvalidAnniversary    = errors.New("anniversary is not a valid month and day")
	ErrIntervalRequiresStart = errors.New("repeat interval greater than one requires a start date")
	ErrUnknownFrequency      = errors.New("unknown frequency")
	ErrInvalidYearRange      = errors.New("year range is not valid")
)

// Precondition errors, returned by the search operations
var (
	ErrMissingStart = errors.New("event has no start date")
	ErrMissingEnd   = errors.New("event has no end date")
	ErrMissingLimit = errors.New("event needs a start date and an end date or occurrence count")
	ErrInvalidCount = errors.New("occurrence count must be at least one")
	ErrNoOverlap    = errors.New("date ranges do not overlap")
	// ErrNotExpressible is returned when an event cannot be written as a single RRULE
	ErrNotExpressible = errors.New("event cannot be expressed as an RRULE")
)
