package harness

import (
	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/stream"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// event helpers build trace events directly for assertion tests.

func schemaEvent() TraceEvent {
	return TraceEvent{Type: protocol.TypeSchema, Stream: "cats"}
}

func recordEvent(id, seq int64, version *int64) TraceEvent {
	return TraceEvent{
		Type:     protocol.TypeRecord,
		Stream:   "cats",
		Sequence: seq,
		Version:  version,
		ID:       int64Ptr(id),
		Record:   protocol.Record{"id": id, "name": "Felix"},
	}
}

func dupEvent(id, seq int64, version *int64) TraceEvent {
	e := recordEvent(id, seq, version)
	e.Duplicate = true
	return e
}

func activateEvent(version int64) TraceEvent {
	return TraceEvent{Type: protocol.TypeActivateVersion, Stream: "cats", Version: int64Ptr(version)}
}

// traceResult builds a result the way Run would for the given spec shape.
func traceResult(n, duplicates int, version *int64, trace ...TraceEvent) *Result {
	r := NewResult()
	r.Trace = trace
	r.Spec = stream.Spec{Stream: "cats", N: n, Duplicates: duplicates, Version: version}
	r.Base = 1000
	r.DuplicateSequence = 1200
	r.State = stream.State{Exhausted: true}
	return r
}
