package harness

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fakestream/internal/stream"
	"github.com/roach88/fakestream/internal/testutil"
)

func TestRunWithGolden_VersionedDuplicate(t *testing.T) {
	scenario := &Scenario{
		Name:        "golden_versioned_duplicate",
		Description: "S, R1, duplicate of R1, R2, ACTIVATE_VERSION",
		Run:         stream.Config{N: 2, Duplicates: 1, Version: int64Ptr(3), Sequence: 1000},
		Assertions:  allProperties,
	}

	// Calls: R1 adoption coin, duplicate coin, R2 adoption coin.
	result, err := RunWithGolden(t, scenario, WithChance(testutil.NewScriptedChance(false, true, false)))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_InvalidCats(t *testing.T) {
	scenario := &Scenario{
		Name:        "golden_invalid_cats",
		Description: "one nested-shape and one string-as-number corruption",
		Run:         stream.Config{Stream: "invalid-cats", N: 2, Sequence: 500},
		Assertions:  []Assertion{{Type: AssertSingleCorruption}},
	}

	// R1: adoption coin, first cascade coin lands.
	// R2: adoption coin, two cascade coins miss, no adoption so fall through.
	src := testutil.NewScriptedChance(false, true, false, false, false)
	result, err := RunWithGolden(t, scenario, WithChance(src))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Format(t *testing.T) {
	v := int64Ptr(4)
	r := traceResult(1, 1, v, schemaEvent(), recordEvent(1, 1000, v), dupEvent(1, 1200, v), activateEvent(4))
	r.Trace[1].Corruptions = []stream.Corruption{stream.CorruptionNestedArray}

	data, err := Snapshot("fmt", r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"base":1000,"duplicate_sequence":1200,"scenario_name":"fmt"}`+"\n"+
			`{"stream":"cats","type":"SCHEMA"}`+"\n"+
			`{"corruptions":["nested_array"],"id":1,"sequence":1000,"stream":"cats","type":"RECORD","version":4}`+"\n"+
			`{"duplicate":true,"id":1,"sequence":1200,"stream":"cats","type":"RECORD","version":4}`+"\n"+
			`{"stream":"cats","type":"ACTIVATE_VERSION","version":4}`+"\n",
		string(data))
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "cats.golden"), GoldenPath(filepath.Join("scenarios", "cats.yaml")))
	assert.Equal(t, filepath.Join("golden", "x.golden"), GoldenPath("x.yml"))
}

func TestWriteAndCompareGolden(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golden", "run.golden")
	r := traceResult(1, 0, nil, schemaEvent(), recordEvent(1, 1000, nil))

	_, err := CompareGolden(path, "run", r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, WriteGolden(path, "run", r))

	match, err := CompareGolden(path, "run", r)
	require.NoError(t, err)
	assert.True(t, match)

	r.Trace = append(r.Trace, recordEvent(2, 1000, nil))
	match, err = CompareGolden(path, "run", r)
	require.NoError(t, err)
	assert.False(t, match)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"run"`)
}
