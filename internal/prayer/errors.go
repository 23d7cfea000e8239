package prayer

import "errors"

// Errors that make a prayer time query unavailable. Callers match them with errors.Is.
var (
	// ErrUnsolvable means a sun-angle solve had no answer (the sun never
	// reaches the requested altitude) and nothing recovered it.
	ErrUnsolvable = errors.New("prayer times unsolvable for this location and date")

	// ErrMissingFixedSchedule means the location uses a fixed time-table but
	// the table has no usable row for the requested date.
	ErrMissingFixedSchedule = errors.New("no fixed prayer schedule for this date")

	// ErrInvalidConfiguration means an Attribute was built from bad input.
	ErrInvalidConfiguration = errors.New("invalid prayer configuration")
)
