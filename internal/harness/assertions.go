package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/stream"
)

// maxTraceLines caps how much of the trace an AssertionError prints.
const maxTraceLines = 20

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for i, event := range e.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(&buf, "  ... (%d more)\n", len(e.Trace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event)
		}
	}
	return buf.String()
}

func (e TraceEvent) String() string {
	switch e.Type {
	case protocol.TypeRecord:
		id := "?"
		if e.ID != nil {
			id = fmt.Sprint(*e.ID)
		}
		s := fmt.Sprintf("RECORD id=%s seq=%d", id, e.Sequence)
		if e.Duplicate {
			s += " duplicate"
		}
		return s
	case protocol.TypeActivateVersion:
		if e.Version != nil {
			return fmt.Sprintf("ACTIVATE_VERSION version=%d", *e.Version)
		}
	}
	return string(e.Type)
}

func fail(r *Result, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Trace: r.Trace}
}

// assertSchemaFirst checks the trace opens with the only SCHEMA message.
func assertSchemaFirst(r *Result) error {
	if len(r.Trace) == 0 {
		return fail(r, AssertSchemaFirst, "SCHEMA as first message", "empty trace")
	}
	if r.Trace[0].Type != protocol.TypeSchema {
		return fail(r, AssertSchemaFirst, "SCHEMA as first message", fmt.Sprintf("first message is %s", r.Trace[0].Type))
	}
	for i, e := range r.Trace[1:] {
		if e.Type == protocol.TypeSchema {
			return fail(r, AssertSchemaFirst, "exactly one SCHEMA", fmt.Sprintf("second SCHEMA at position %d", i+2))
		}
	}
	return nil
}

// assertIDsContiguous checks fresh record ids are 1..n in emission order.
func assertIDsContiguous(r *Result) error {
	fresh := r.Records(true)
	for i, e := range fresh {
		want := int64(i + 1)
		if e.ID == nil {
			return fail(r, AssertIDsContiguous, fmt.Sprintf("record %d has id %d", i+1, want), "record without integer id")
		}
		if *e.ID != want {
			return fail(r, AssertIDsContiguous, fmt.Sprintf("record %d has id %d", i+1, want), fmt.Sprintf("id %d", *e.ID))
		}
	}
	if len(fresh) != r.Spec.N {
		return fail(r, AssertIDsContiguous, fmt.Sprintf("ids 1..%d", r.Spec.N), fmt.Sprintf("ids 1..%d", len(fresh)))
	}
	return nil
}

// assertRecordCount checks the number of fresh records.
func assertRecordCount(r *Result, a Assertion) error {
	want := r.Spec.N
	if a.Count != nil {
		want = *a.Count
	}
	if got := len(r.Records(true)); got != want {
		return fail(r, AssertRecordCount, fmt.Sprintf("%d fresh records", want), fmt.Sprintf("%d fresh records", got))
	}
	return nil
}

// assertDuplicateBound checks duplicates stay within min(duplicates, n),
// that record totals add up, and that each duplicate repeats a record
// already emitted unchanged.
func assertDuplicateBound(r *Result) error {
	bound := min(r.Spec.Duplicates, r.Spec.N)
	dups := r.Records(false)
	if len(dups) > bound {
		return fail(r, AssertDuplicateBound, fmt.Sprintf("at most %d duplicates", bound), fmt.Sprintf("%d duplicates", len(dups)))
	}

	total := 0
	seen := map[int64]protocol.Record{}
	for i, e := range r.Trace {
		if e.Type != protocol.TypeRecord {
			continue
		}
		total++
		if e.ID == nil {
			return fail(r, AssertDuplicateBound, "records with integer ids", fmt.Sprintf("message %d without id", i+1))
		}
		if !e.Duplicate {
			seen[*e.ID] = e.Record
			continue
		}
		original, ok := seen[*e.ID]
		if !ok {
			return fail(r, AssertDuplicateBound,
				"duplicate of an already emitted record",
				fmt.Sprintf("message %d duplicates id %d before it was emitted", i+1, *e.ID))
		}
		if !reflect.DeepEqual(original, e.Record) {
			return fail(r, AssertDuplicateBound,
				fmt.Sprintf("duplicate of id %d equal to the original", *e.ID),
				fmt.Sprintf("message %d differs from the original", i+1))
		}
	}

	if want := r.Spec.N + len(dups); total != want {
		return fail(r, AssertDuplicateBound, fmt.Sprintf("%d record messages (n + duplicates)", want), fmt.Sprintf("%d", total))
	}
	return nil
}

// assertDuplicateCount checks min <= duplicates <= max.
func assertDuplicateCount(r *Result, a Assertion) error {
	got := len(r.Records(false))
	if a.Min != nil && got < *a.Min {
		return fail(r, AssertDuplicateCount, fmt.Sprintf("at least %d duplicates", *a.Min), fmt.Sprintf("%d", got))
	}
	if a.Max != nil && got > *a.Max {
		return fail(r, AssertDuplicateCount, fmt.Sprintf("at most %d duplicates", *a.Max), fmt.Sprintf("%d", got))
	}
	return nil
}

// assertSequenceBase checks fresh records carry the base sequence and
// duplicates the shifted one.
func assertSequenceBase(r *Result, a Assertion) error {
	if a.Sequence != nil && r.Base != *a.Sequence {
		return fail(r, AssertSequenceBase, fmt.Sprintf("base sequence %d", *a.Sequence), fmt.Sprintf("%d", r.Base))
	}
	if r.DuplicateSequence <= r.Base {
		return fail(r, AssertSequenceBase, "positive duplicate delta",
			fmt.Sprintf("base %d, duplicate %d", r.Base, r.DuplicateSequence))
	}

	for i, e := range r.Trace {
		if e.Type != protocol.TypeRecord {
			continue
		}
		want := r.Base
		if e.Duplicate {
			want = r.DuplicateSequence
		}
		if e.Sequence != want {
			return fail(r, AssertSequenceBase, fmt.Sprintf("message %d with sequence %d", i+1, want), fmt.Sprintf("%d", e.Sequence))
		}
	}
	return nil
}

// assertActivateVersionLast checks ACTIVATE_VERSION closes the stream
// exactly when a version is configured, and that every record carries it.
func assertActivateVersionLast(r *Result) error {
	activations := 0
	for _, e := range r.Trace {
		if e.Type == protocol.TypeActivateVersion {
			activations++
		}
	}

	version := r.Spec.Version
	if version == nil {
		if activations > 0 {
			return fail(r, AssertActivateVersionLast, "no ACTIVATE_VERSION without a version", fmt.Sprintf("%d", activations))
		}
		for i, e := range r.Trace {
			if e.Version != nil {
				return fail(r, AssertActivateVersionLast, "unversioned records", fmt.Sprintf("message %d has version %d", i+1, *e.Version))
			}
		}
		if n := len(r.Trace); n > 1 && r.Trace[n-1].Type != protocol.TypeRecord {
			return fail(r, AssertActivateVersionLast, "RECORD as last message", string(r.Trace[n-1].Type))
		}
		return nil
	}

	if activations != 1 {
		return fail(r, AssertActivateVersionLast, "exactly one ACTIVATE_VERSION", fmt.Sprintf("%d", activations))
	}
	last := r.Trace[len(r.Trace)-1]
	if last.Type != protocol.TypeActivateVersion {
		return fail(r, AssertActivateVersionLast, "ACTIVATE_VERSION as last message", string(last.Type))
	}
	if last.Version == nil || *last.Version != *version {
		return fail(r, AssertActivateVersionLast, fmt.Sprintf("ACTIVATE_VERSION version %d", *version), last.String())
	}
	for i, e := range r.Trace {
		if e.Type != protocol.TypeRecord {
			continue
		}
		if e.Version == nil || *e.Version != *version {
			return fail(r, AssertActivateVersionLast, fmt.Sprintf("message %d with version %d", i+1, *version), e.String())
		}
	}
	return nil
}

// assertMessageCount checks the total number of messages.
func assertMessageCount(r *Result, a Assertion) error {
	if got := len(r.Trace); got != *a.Count {
		return fail(r, AssertMessageCount, fmt.Sprintf("%d messages", *a.Count), fmt.Sprintf("%d messages", got))
	}
	return nil
}

// assertExhaustedIdempotent checks pulls after exhaustion produce nothing.
func assertExhaustedIdempotent(r *Result) error {
	if r.PostExhaustion > 0 {
		return fail(r, AssertExhaustedIdempotent, "no messages after exhaustion", fmt.Sprintf("%d messages", r.PostExhaustion))
	}
	if !r.State.Exhausted {
		return fail(r, AssertExhaustedIdempotent, "stream marked exhausted", "not exhausted")
	}
	return nil
}

// assertSingleCorruption checks every record breaks the schema in
// exactly one way.
func assertSingleCorruption(r *Result) error {
	for i, e := range r.Trace {
		if e.Type != protocol.TypeRecord {
			continue
		}
		if len(e.Corruptions) != 1 {
			return fail(r, AssertSingleCorruption,
				fmt.Sprintf("message %d with exactly one corruption", i+1),
				fmt.Sprintf("%v", e.Corruptions))
		}
	}
	return nil
}

// assertCorruptionCoverage checks each corruption kind occurs at least once.
func assertCorruptionCoverage(r *Result) error {
	seen := map[stream.Corruption]bool{}
	for _, e := range r.Trace {
		for _, c := range e.Corruptions {
			seen[c] = true
		}
	}
	var missing []string
	for _, c := range stream.AllCorruptions {
		if !seen[c] {
			missing = append(missing, c.String())
		}
	}
	if len(missing) > 0 {
		return fail(r, AssertCorruptionCoverage, "every corruption kind at least once", "missing "+strings.Join(missing, ", "))
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSchemaFirst:
			err = assertSchemaFirst(result)
		case AssertIDsContiguous:
			err = assertIDsContiguous(result)
		case AssertRecordCount:
			err = assertRecordCount(result, assertion)
		case AssertDuplicateBound:
			err = assertDuplicateBound(result)
		case AssertDuplicateCount:
			err = assertDuplicateCount(result, assertion)
		case AssertSequenceBase:
			err = assertSequenceBase(result, assertion)
		case AssertActivateVersionLast:
			err = assertActivateVersionLast(result)
		case AssertMessageCount:
			if assertion.Count == nil {
				err = fmt.Errorf("assertion[%d]: message_count requires count", i)
			} else {
				err = assertMessageCount(result, assertion)
			}
		case AssertExhaustedIdempotent:
			err = assertExhaustedIdempotent(result)
		case AssertSingleCorruption:
			err = assertSingleCorruption(result)
		case AssertCorruptionCoverage:
			err = assertCorruptionCoverage(result)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
