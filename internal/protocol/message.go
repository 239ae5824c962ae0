package protocol

import "fmt"

// Type identifies the message shape.
type Type string

const (
	TypeSchema          Type = "SCHEMA"
	TypeRecord          Type = "RECORD"
	TypeActivateVersion Type = "ACTIVATE_VERSION"
)

// Valid reports whether t is one of the three known message types.
func (t Type) Valid() bool {
	switch t {
	case TypeSchema, TypeRecord, TypeActivateVersion:
		return true
	}
	return false
}

// Record is one domain record: field name to value.
// Values are JSON-compatible Go values (string, int, int64, float64, bool,
// nil, []any, map[string]any, Record).
type Record map[string]any

// Message is the tagged union of SCHEMA, RECORD and ACTIVATE_VERSION.
//
// Only the fields relevant to Type are serialized:
//   - SCHEMA: Stream, Schema, KeyProperties
//   - RECORD: Stream, Record, Sequence, Version (if set)
//   - ACTIVATE_VERSION: Stream, Version
type Message struct {
	Type          Type
	Stream        string
	Schema        map[string]any
	KeyProperties []string
	Record        Record
	Sequence      int64
	Version       *int64

	// Duplicate marks a RECORD that re-wraps an already emitted record.
	// It is never written to the wire.
	Duplicate bool
}

// NewSchema wraps a schema document into a SCHEMA message.
func NewSchema(stream string, schema map[string]any, keyProperties []string) Message {
	return Message{
		Type:          TypeSchema,
		Stream:        stream,
		Schema:        schema,
		KeyProperties: keyProperties,
	}
}

// NewRecord wraps a record into a RECORD message.
// version may be nil for unversioned streams.
func NewRecord(stream string, record Record, sequence int64, version *int64) Message {
	return Message{
		Type:     TypeRecord,
		Stream:   stream,
		Record:   record,
		Sequence: sequence,
		Version:  version,
	}
}

// NewActivateVersion builds the terminal ACTIVATE_VERSION message.
func NewActivateVersion(stream string, version int64) Message {
	return Message{
		Type:    TypeActivateVersion,
		Stream:  stream,
		Version: &version,
	}
}

// ID returns the record's "id" field as an int64.
// ok is false for non-RECORD messages or when id is missing or not integral.
func (m Message) ID() (int64, bool) {
	if m.Type != TypeRecord || m.Record == nil {
		return 0, false
	}
	return AsInt64(m.Record["id"])
}

func (m Message) String() string {
	switch m.Type {
	case TypeRecord:
		id, _ := m.ID()
		return fmt.Sprintf("%s %s id=%d seq=%d dup=%t", m.Type, m.Stream, id, m.Sequence, m.Duplicate)
	case TypeActivateVersion:
		return fmt.Sprintf("%s %s version=%d", m.Type, m.Stream, derefVersion(m.Version))
	default:
		return fmt.Sprintf("%s %s", m.Type, m.Stream)
	}
}

func derefVersion(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
