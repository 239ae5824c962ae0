package stream

import (
	"fmt"
	"slices"

	"github.com/roach88/fakestream/internal/chance"
	"github.com/roach88/fakestream/internal/schema"
)

// Kind pairs a stream definition with the record generator that fills it.
type Kind struct {
	Name string

	// Valid is false for generators that emit schema-violating records.
	Valid bool

	Definition func() schema.Stream
	New        func(nestedCount int) RecordGenerator
}

var kinds = map[string]Kind{
	"cats": {
		Name:       "cats",
		Valid:      true,
		Definition: schema.Cats,
		New:        func(n int) RecordGenerator { return Cats{NestedCount: n} },
	},
	"invalid-cats": {
		Name:       "invalid-cats",
		Valid:      false,
		Definition: schema.Cats,
		New:        func(n int) RecordGenerator { return InvalidCats{Cats{NestedCount: n}} },
	},
}

// Lookup returns the generator kind registered under name.
func Lookup(name string) (Kind, error) {
	k, ok := kinds[name]
	if !ok {
		return Kind{}, &ConfigError{
			Field:   "stream",
			Message: fmt.Sprintf("unknown generator %q (available: %v)", name, Kinds()),
		}
	}
	return k, nil
}

// Kinds lists the registered generator names, sorted.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build resolves cfg's generator kind and creates a Stream. A nil src is
// replaced by a gofakeit source seeded with cfg.Seed.
func Build(cfg Config, src chance.Source, opts ...Option) (*Stream, error) {
	kind, err := Lookup(cfg.Kind())
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = chance.NewFaker(cfg.Seed)
	}
	spec := cfg.Spec(kind.Definition())
	return New(spec, kind.New(spec.NestedCount), src, opts...)
}
