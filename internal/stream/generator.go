package stream

import (
	"github.com/roach88/fakestream/internal/chance"
	"github.com/roach88/fakestream/internal/protocol"
)

// RecordGenerator produces one record per call. The caller assigns "id".
type RecordGenerator interface {
	Produce(src chance.Source) protocol.Record
}

// Cats record constants.
const (
	AdoptionLikelihood = 70
	FosterLikelihood   = 50
	MaxImmunizations   = 4
	MinAge             = 1
	MaxAge             = 15
	MinYear            = 2012
)

var (
	ImmunizationTypes = []string{"FIV", "Panleukopenia", "Rabies", "Feline Leukemia"}
	Patterns          = []string{"Tabby", "Tuxedo", "Calico", "Tortoiseshell"}
)

// Cats generates records that conform to the cats schema.
//
// The nested "adoption" object is present with 70% likelihood, or always
// when NestedCount > 0. It holds NestedCount immunizations, or a random
// 0..4 when NestedCount is zero.
type Cats struct {
	NestedCount int
}

func (g Cats) Produce(src chance.Source) protocol.Record {
	var adoption any
	if g.NestedCount > 0 || src.Boolean(AdoptionLikelihood) {
		count := g.NestedCount
		if count == 0 {
			count = src.IntRange(0, MaxImmunizations)
		}

		immunizations := make([]any, 0, count)
		for i := 0; i < count; i++ {
			kind := src.PickOne(ImmunizationTypes)
			administered := src.Date(MinYear).Format(chance.DateLayout)
			immunizations = append(immunizations, map[string]any{
				"type":              kind,
				"date_administered": administered,
			})
		}

		adoptedOn := src.Date(MinYear).Format(chance.DateLayout)
		wasFoster := src.Boolean(FosterLikelihood)
		adoption = map[string]any{
			"adopted_on":    adoptedOn,
			"was_foster":    wasFoster,
			"immunizations": immunizations,
		}
	}

	name := src.FirstName()
	pattern := src.PickOne(Patterns)
	age := src.IntRange(MinAge, MaxAge)

	return protocol.Record{
		"name":     name,
		"pattern":  pattern,
		"age":      age,
		"adoption": adoption,
	}
}
