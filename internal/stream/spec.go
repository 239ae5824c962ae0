package stream

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fakestream/internal/schema"
)

const (
	// DefaultDuplicateSequenceDelta is added to the base sequence of
	// duplicate record messages.
	DefaultDuplicateSequenceDelta int64 = 200

	// DefaultDuplicateLikelihood is the per-pull chance (percent) of
	// re-emitting an earlier record.
	DefaultDuplicateLikelihood = 30

	// DefaultKind is the generator used when a config names none.
	DefaultKind = "cats"
)

// Spec describes one generation run. It is not modified once a Stream
// has been built from it.
type Spec struct {
	Stream        string
	Schema        schema.Document
	KeyProperties []string

	// N is the number of fresh records.
	N int

	// Version, when set, is attached to every record message and announced
	// by a final ACTIVATE_VERSION.
	Version *int64

	// NestedCount > 0 forces every record to carry a nested object with
	// exactly this many sub-records.
	NestedCount int

	// Duplicates caps how many earlier records are re-emitted.
	Duplicates int

	DuplicateSequenceDelta int64

	// DuplicateLikelihood is in percent. Nil means the default; zero means
	// only the forced duplicate can appear.
	DuplicateLikelihood *int

	// Sequence fixes the base sequence. Zero derives it from the clock.
	Sequence int64
}

// WithDefaults fills zero-valued tunables.
func (s Spec) WithDefaults() Spec {
	if s.DuplicateSequenceDelta == 0 {
		s.DuplicateSequenceDelta = DefaultDuplicateSequenceDelta
	}
	if s.DuplicateLikelihood == nil {
		v := DefaultDuplicateLikelihood
		s.DuplicateLikelihood = &v
	}
	return s
}

// Validate checks the spec after defaults have been applied.
func (s Spec) Validate() error {
	switch {
	case s.Stream == "":
		return &ConfigError{Field: "stream", Message: "is required"}
	case s.Schema == nil:
		return &ConfigError{Field: "schema", Message: "is required"}
	case len(s.KeyProperties) == 0:
		return &ConfigError{Field: "key_properties", Message: "must be non-empty"}
	case s.N < 0:
		return &ConfigError{Field: "n", Message: fmt.Sprintf("must be >= 0, got %d", s.N)}
	case s.NestedCount < 0:
		return &ConfigError{Field: "nested_count", Message: fmt.Sprintf("must be >= 0, got %d", s.NestedCount)}
	case s.Duplicates < 0:
		return &ConfigError{Field: "duplicates", Message: fmt.Sprintf("must be >= 0, got %d", s.Duplicates)}
	case s.DuplicateSequenceDelta <= 0:
		return &ConfigError{Field: "duplicate_sequence_delta", Message: fmt.Sprintf("must be > 0, got %d", s.DuplicateSequenceDelta)}
	case s.DuplicateLikelihood != nil && (*s.DuplicateLikelihood < 0 || *s.DuplicateLikelihood > 100):
		return &ConfigError{Field: "duplicate_likelihood", Message: fmt.Sprintf("must be within 0..100, got %d", *s.DuplicateLikelihood)}
	case s.Sequence < 0:
		return &ConfigError{Field: "sequence", Message: fmt.Sprintf("must be >= 0, got %d", s.Sequence)}
	}
	return nil
}

// ConfigError reports an unusable run configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Config is the file and flag form of a run. The generator kind selects
// the stream definition and record generator.
type Config struct {
	Stream                 string `yaml:"stream,omitempty" json:"stream,omitempty"`
	N                      int    `yaml:"n" json:"n"`
	Version                *int64 `yaml:"version,omitempty" json:"version,omitempty"`
	NestedCount            int    `yaml:"nested_count,omitempty" json:"nested_count,omitempty"`
	Duplicates             int    `yaml:"duplicates,omitempty" json:"duplicates,omitempty"`
	DuplicateSequenceDelta int64  `yaml:"duplicate_sequence_delta,omitempty" json:"duplicate_sequence_delta,omitempty"`
	DuplicateLikelihood    *int   `yaml:"duplicate_likelihood,omitempty" json:"duplicate_likelihood,omitempty"`
	Sequence               int64  `yaml:"sequence,omitempty" json:"sequence,omitempty"`

	// Seed feeds the default fake-value source. Zero picks a random seed.
	Seed uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Kind returns the configured generator kind or DefaultKind.
func (c Config) Kind() string {
	if c.Stream == "" {
		return DefaultKind
	}
	return c.Stream
}

// Spec binds the config to a stream definition.
func (c Config) Spec(def schema.Stream) Spec {
	return Spec{
		Stream:                 def.Name,
		Schema:                 def.Schema,
		KeyProperties:          def.KeyProperties,
		N:                      c.N,
		Version:                c.Version,
		NestedCount:            c.NestedCount,
		Duplicates:             c.Duplicates,
		DuplicateSequenceDelta: c.DuplicateSequenceDelta,
		DuplicateLikelihood:    c.DuplicateLikelihood,
		Sequence:               c.Sequence,
	}.WithDefaults()
}

// LoadConfig reads a run config from a YAML file. Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
