package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fakestream/internal/stream"
)

// DefaultPullsAfterExhaustion is how many extra pulls Run makes once the
// stream reports exhaustion.
const DefaultPullsAfterExhaustion = 3

// Scenario defines one generation run and the properties its output must have.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Run is the generator configuration. Seed 0 runs with seed 1 so
	// scenarios are reproducible by default.
	Run stream.Config `yaml:"run"`

	// PullsAfterExhaustion overrides DefaultPullsAfterExhaustion.
	PullsAfterExhaustion int `yaml:"pulls_after_exhaustion,omitempty"`

	// Assertions validate the emitted trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the exact expectation for message_count and record_count.
	// record_count defaults to the configured n.
	Count *int `yaml:"count,omitempty"`

	// Min and Max bound duplicate_count.
	Min *int `yaml:"min,omitempty"`
	Max *int `yaml:"max,omitempty"`

	// Sequence pins the base sequence for sequence_base.
	Sequence *int64 `yaml:"sequence,omitempty"`
}

// Assertion type constants.
const (
	AssertSchemaFirst         = "schema_first"
	AssertIDsContiguous       = "ids_contiguous"
	AssertRecordCount         = "record_count"
	AssertDuplicateBound      = "duplicate_bound"
	AssertDuplicateCount      = "duplicate_count"
	AssertSequenceBase        = "sequence_base"
	AssertActivateVersionLast = "activate_version_last"
	AssertMessageCount        = "message_count"
	AssertExhaustedIdempotent = "exhausted_idempotent"
	AssertSingleCorruption    = "single_corruption"
	AssertCorruptionCoverage  = "corruption_coverage"
)

// AssertionTypes lists every supported assertion type.
var AssertionTypes = []string{
	AssertSchemaFirst,
	AssertIDsContiguous,
	AssertRecordCount,
	AssertDuplicateBound,
	AssertDuplicateCount,
	AssertSequenceBase,
	AssertActivateVersionLast,
	AssertMessageCount,
	AssertExhaustedIdempotent,
	AssertSingleCorruption,
	AssertCorruptionCoverage,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.PullsAfterExhaustion < 0 {
		return fmt.Errorf("pulls_after_exhaustion must be non-negative")
	}
	if _, err := stream.Lookup(s.Run.Kind()); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if s.Run.N < 0 {
		return fmt.Errorf("run: n must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMessageCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for message_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for message_count", index)
		}
	case AssertRecordCount:
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertDuplicateCount:
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for duplicate_count", index)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return fmt.Errorf("assertions[%d]: min %d exceeds max %d", index, *a.Min, *a.Max)
		}
	case AssertSchemaFirst, AssertIDsContiguous, AssertDuplicateBound, AssertSequenceBase,
		AssertActivateVersionLast, AssertExhaustedIdempotent, AssertSingleCorruption,
		AssertCorruptionCoverage:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func (s *Scenario) pullsAfterExhaustion() int {
	if s.PullsAfterExhaustion == 0 {
		return DefaultPullsAfterExhaustion
	}
	return s.PullsAfterExhaustion
}
