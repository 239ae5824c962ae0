package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fakestream/internal/protocol"
)

// GoldenDir is where RunWithGolden keeps its fixtures, relative to the
// test's package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders a result as golden-file text: a header line followed by
// one line per message, each in canonical JSON.
//
// Record bodies are left out; the snapshot pins the stream's shape (order,
// ids, sequences, versions, duplicates, corruption kinds), not the fake
// values inside records.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	var buf bytes.Buffer

	header, err := protocol.Marshal(map[string]any{
		"scenario_name":      scenarioName,
		"base":               result.Base,
		"duplicate_sequence": result.DuplicateSequence,
	})
	if err != nil {
		return nil, err
	}
	buf.Write(header)
	buf.WriteByte('\n')

	for i, event := range result.Trace {
		line, err := protocol.Marshal(event.snapshot())
		if err != nil {
			return nil, fmt.Errorf("snapshot event %d: %w", i+1, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (e TraceEvent) snapshot() map[string]any {
	m := map[string]any{
		"type":   string(e.Type),
		"stream": e.Stream,
	}
	if e.Type == protocol.TypeRecord {
		m["sequence"] = e.Sequence
	}
	if e.Version != nil {
		m["version"] = *e.Version
	}
	if e.ID != nil {
		m["id"] = *e.ID
	}
	if e.Duplicate {
		m["duplicate"] = true
	}
	if len(e.Corruptions) > 0 {
		names := make([]any, len(e.Corruptions))
		for i, c := range e.Corruptions {
			names[i] = c.String()
		}
		m["corruptions"] = names
	}
	return m
}

// RunWithGolden executes a scenario, compares its snapshot against
// testdata/golden/{scenario.Name}.golden and fails t on mismatch.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

// GoldenPath returns the golden file that belongs to a scenario file:
// <dir>/golden/<base name>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, "golden", name+".golden")
}

// CompareGolden reports whether result matches the golden file at path.
// A missing file is reported through os.ErrNotExist.
func CompareGolden(path, scenarioName string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(scenarioName, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// WriteGolden writes result's snapshot to path, creating directories.
func WriteGolden(path, scenarioName string, result *Result) error {
	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
