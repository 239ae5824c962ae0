package chance

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

var _ Source = (*Faker)(nil)

// Faker is a Source backed by gofakeit.
//
// Thread-safety: Faker is not safe for concurrent use; streams own their
// source exclusively.
type Faker struct {
	f *gofakeit.Faker
}

// NewFaker creates a Source seeded with seed. Seed 0 picks a random seed.
// Two Fakers with the same non-zero seed produce identical value sequences.
func NewFaker(seed uint64) *Faker {
	return &Faker{f: gofakeit.New(seed)}
}

func (s *Faker) Boolean(likelihood int) bool {
	if likelihood <= 0 {
		return false
	}
	if likelihood >= 100 {
		return true
	}
	return s.f.Number(1, 100) <= likelihood
}

func (s *Faker) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return s.f.Number(min, max)
}

func (s *Faker) PickOne(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return s.f.RandomString(options)
}

func (s *Faker) Date(minYear int) time.Time {
	if minYear > MaxYear {
		minYear = MaxYear
	}
	start := time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(MaxYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	d := s.f.DateRange(start, end)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Faker) FirstName() string {
	return s.f.FirstName()
}
