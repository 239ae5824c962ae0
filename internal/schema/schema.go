package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed cats.json
var catsJSON []byte

// Document is a JSON-schema-like description of a record's shape.
type Document map[string]any

// Properties returns the top-level "properties" object, or nil.
func (d Document) Properties() map[string]any {
	props, _ := d["properties"].(map[string]any)
	return props
}

// Property returns the declaration of a top-level property.
func (d Document) Property(name string) (map[string]any, bool) {
	p, ok := d.Properties()[name].(map[string]any)
	return p, ok
}

// Types returns the declared JSON types of a property. A single "type"
// string is returned as a one-element slice.
func (d Document) Types(name string) []string {
	p, ok := d.Property(name)
	if !ok {
		return nil
	}
	return typeList(p["type"])
}

// Nullable reports whether a top-level property admits null.
func (d Document) Nullable(name string) bool {
	return slices.Contains(d.Types(name), "null")
}

// Default returns the declared default of a top-level property.
func (d Document) Default(name string) (any, bool) {
	p, ok := d.Property(name)
	if !ok {
		return nil, false
	}
	v, ok := p["default"]
	return v, ok
}

func typeList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	return nil
}

// Stream binds a schema document to a stream name and its primary key.
type Stream struct {
	Name          string   `yaml:"stream"`
	Schema        Document `yaml:"schema"`
	KeyProperties []string `yaml:"key_properties"`
}

// Cats returns the built-in "cats" stream definition.
// Each call returns a fresh copy.
func Cats() Stream {
	s, err := Parse(catsJSON)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded cats.json: %v", err))
	}
	return s
}

// Load reads a stream definition from a YAML or JSON file.
func Load(path string) (Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stream{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Stream{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a stream definition. JSON is accepted as a subset of YAML.
func Parse(data []byte) (Stream, error) {
	var s Stream
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Stream{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return Stream{}, fmt.Errorf("invalid schema: %w", err)
	}
	s.Schema = normalize(s.Schema).(map[string]any)
	return s, nil
}

func (s *Stream) validate() error {
	if s.Name == "" {
		return fmt.Errorf("stream is required")
	}
	if s.Schema == nil {
		return fmt.Errorf("schema is required")
	}
	if len(s.KeyProperties) == 0 {
		return fmt.Errorf("key_properties is required and must be non-empty")
	}
	for _, k := range s.KeyProperties {
		if _, ok := s.Schema.Property(k); !ok {
			return fmt.Errorf("key property %q is not declared in schema properties", k)
		}
	}
	return nil
}

// normalize converts yaml.v3 decoded values into plain JSON-compatible
// values (map[string]any, []any, int64, float64).
func normalize(v any) any {
	switch t := v.(type) {
	case Document:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case int:
		return int64(t)
	default:
		return v
	}
}
