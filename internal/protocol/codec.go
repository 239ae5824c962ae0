package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalLine encodes a message as a single JSON line (without the newline).
func MarshalLine(m Message) ([]byte, error) {
	fields, err := m.wireFields()
	if err != nil {
		return nil, err
	}
	return marshalValue(fields)
}

// wireFields projects the message onto the keys that exist on the wire.
func (m Message) wireFields() (map[string]any, error) {
	if !m.Type.Valid() {
		return nil, fmt.Errorf("marshal message: unknown type %q", m.Type)
	}

	fields := map[string]any{
		"type":   string(m.Type),
		"stream": m.Stream,
	}

	switch m.Type {
	case TypeSchema:
		fields["schema"] = m.Schema
		if m.KeyProperties != nil {
			fields["key_properties"] = m.KeyProperties
		}
	case TypeRecord:
		fields["record"] = map[string]any(m.Record)
		fields["sequence"] = m.Sequence
		if m.Version != nil {
			fields["version"] = *m.Version
		}
	case TypeActivateVersion:
		if m.Version == nil {
			return nil, fmt.Errorf("marshal message: ACTIVATE_VERSION without version")
		}
		fields["version"] = *m.Version
	}
	return fields, nil
}

// Marshal encodes an arbitrary JSON-compatible value with the same key
// ordering and string normalization as MarshalLine.
func Marshal(v any) ([]byte, error) {
	return marshalValue(v)
}

func marshalValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return marshalString(val)
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int32:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case uint64:
		return []byte(strconv.FormatUint(val, 10)), nil
	case float32:
		return marshalFloat(float64(val))
	case float64:
		return marshalFloat(val)
	case json.Number:
		if _, err := strconv.ParseFloat(string(val), 64); err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return []byte(val), nil
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return marshalArray(arr)
	case []any:
		return marshalArray(val)
	case []map[string]any:
		arr := make([]any, len(val))
		for i, m := range val {
			arr[i] = m
		}
		return marshalArray(arr)
	case Record:
		return marshalObject(val)
	case map[string]any:
		return marshalObject(val)
	default:
		// Structs and other named types fall back to encoding/json.
		out, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("unsupported type %T: %w", v, err)
		}
		return out, nil
	}
}

func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v", f)
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// marshalString writes a JSON string, NFC normalized, without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareUTF16 orders strings by UTF-16 code units rather than UTF-8 bytes.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// ParseLine decodes one wire line back into a Message.
// Numbers inside schema and record bodies are kept as json.Number.
func ParseLine(line []byte) (Message, error) {
	var raw struct {
		Type          Type           `json:"type"`
		Stream        string         `json:"stream"`
		Schema        map[string]any `json:"schema"`
		KeyProperties []string       `json:"key_properties"`
		Record        map[string]any `json:"record"`
		Sequence      *json.Number   `json:"sequence"`
		Version       *json.Number   `json:"version"`
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Message{}, fmt.Errorf("parse line: %w", err)
	}
	if !raw.Type.Valid() {
		return Message{}, fmt.Errorf("parse line: unknown type %q", raw.Type)
	}
	if raw.Stream == "" {
		return Message{}, fmt.Errorf("parse line: %s message without stream", raw.Type)
	}

	msg := Message{Type: raw.Type, Stream: raw.Stream}
	if raw.Version != nil {
		v, err := raw.Version.Int64()
		if err != nil {
			return Message{}, fmt.Errorf("parse line: version: %w", err)
		}
		msg.Version = &v
	}

	switch raw.Type {
	case TypeSchema:
		if raw.Schema == nil {
			return Message{}, fmt.Errorf("parse line: SCHEMA without schema")
		}
		msg.Schema = raw.Schema
		msg.KeyProperties = raw.KeyProperties
	case TypeRecord:
		if raw.Record == nil {
			return Message{}, fmt.Errorf("parse line: RECORD without record")
		}
		if raw.Sequence == nil {
			return Message{}, fmt.Errorf("parse line: RECORD without sequence")
		}
		seq, err := raw.Sequence.Int64()
		if err != nil {
			return Message{}, fmt.Errorf("parse line: sequence: %w", err)
		}
		msg.Record = Record(raw.Record)
		msg.Sequence = seq
	case TypeActivateVersion:
		if msg.Version == nil {
			return Message{}, fmt.Errorf("parse line: ACTIVATE_VERSION without version")
		}
	}
	return msg, nil
}

// AsInt64 converts integral Go and decoded JSON numbers to int64.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}
