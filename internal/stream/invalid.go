package stream

import (
	"github.com/roach88/fakestream/internal/chance"
	"github.com/roach88/fakestream/internal/protocol"
)

// Corruption names the single schema violation applied to an invalid record.
type Corruption int

const (
	CorruptionNone Corruption = iota

	// CorruptionNestedShape replaces the adoption object with a list.
	CorruptionNestedShape

	// CorruptionIntegerAsString replaces age with a string.
	CorruptionIntegerAsString

	// CorruptionNestedArray replaces adoption.immunizations with an object.
	CorruptionNestedArray

	// CorruptionStringAsNumber replaces name with a fractional number.
	CorruptionStringAsNumber
)

// AllCorruptions lists every corruption in cascade order.
var AllCorruptions = []Corruption{
	CorruptionNestedShape,
	CorruptionIntegerAsString,
	CorruptionNestedArray,
	CorruptionStringAsNumber,
}

func (c Corruption) String() string {
	switch c {
	case CorruptionNone:
		return "none"
	case CorruptionNestedShape:
		return "nested_shape"
	case CorruptionIntegerAsString:
		return "integer_as_string"
	case CorruptionNestedArray:
		return "nested_array"
	case CorruptionStringAsNumber:
		return "string_as_number"
	}
	return "unknown"
}

// CorruptionLikelihood is the chance (percent) each cascade branch fires.
const CorruptionLikelihood = 50

// InvalidCats wraps Cats and breaks every record in exactly one way.
type InvalidCats struct {
	Cats
}

func (g InvalidCats) Produce(src chance.Source) protocol.Record {
	rec := g.Cats.Produce(src)
	Corrupt(rec, src)
	return rec
}

// Corrupt applies the first corruption whose coin flip succeeds, in fixed
// priority order, falling through to CorruptionStringAsNumber. The nested
// array branch is only considered when the record has an adoption object.
func Corrupt(rec protocol.Record, src chance.Source) Corruption {
	if src.Boolean(CorruptionLikelihood) {
		rec["adoption"] = []any{"invalid", "adoption"}
		return CorruptionNestedShape
	}
	if src.Boolean(CorruptionLikelihood) {
		rec["age"] = "very invalid age"
		return CorruptionIntegerAsString
	}
	if adoption, ok := rec["adoption"].(map[string]any); ok && src.Boolean(CorruptionLikelihood) {
		adoption["immunizations"] = map[string]any{
			"type":              src.PickOne([]string{"a", "b", "c"}),
			"date_administered": []any{"clearly", "not", "a", "date"},
		}
		return CorruptionNestedArray
	}
	rec["name"] = 22.0 / 7.0
	return CorruptionStringAsNumber
}

// Classify reports which corruptions a cats record exhibits. A valid
// record yields none; an InvalidCats record yields exactly one.
//
// It accepts both in-memory records and records decoded from the wire.
func Classify(rec protocol.Record) []Corruption {
	var found []Corruption

	switch rec["adoption"].(type) {
	case []any, []string:
		found = append(found, CorruptionNestedShape)
	}

	if _, ok := rec["age"].(string); ok {
		found = append(found, CorruptionIntegerAsString)
	}

	if adoption, ok := rec["adoption"].(map[string]any); ok {
		switch adoption["immunizations"].(type) {
		case nil, []any, []map[string]any:
		default:
			found = append(found, CorruptionNestedArray)
		}
	}

	if _, ok := rec["name"].(string); !ok {
		found = append(found, CorruptionStringAsNumber)
	}

	return found
}
