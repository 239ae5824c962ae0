// Package chance supplies the scalar random values used to build fake
// records: names, dates, enumerated picks and weighted coin flips.
//
// Every probabilistic decision in the generator goes through a Source so
// tests can substitute a seeded or scripted implementation.
package chance

import "time"

// Source is the fake-value provider consumed by record generators and the
// duplicate injector.
type Source interface {
	// Boolean returns true with the given likelihood, in percent (0..100).
	Boolean(likelihood int) bool

	// IntRange returns a uniform integer in [min, max].
	IntRange(min, max int) int

	// PickOne returns one element of options, uniformly.
	PickOne(options []string) string

	// Date returns a calendar date between Jan 1 of minYear and Dec 31 of
	// MaxYear. Only the date part is meaningful.
	Date(minYear int) time.Time

	// FirstName returns a realistic first name.
	FirstName() string
}

// MaxYear bounds Date from above so seeded runs stay reproducible across
// calendar years.
const MaxYear = 2025

// DateLayout is how generated dates are written into records.
const DateLayout = "2006-01-02"
