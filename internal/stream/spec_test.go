package stream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fakestream/internal/schema"
)

func TestSpec_WithDefaults(t *testing.T) {
	spec := catsSpec(3).WithDefaults()
	assert.Equal(t, DefaultDuplicateSequenceDelta, spec.DuplicateSequenceDelta)
	require.NotNil(t, spec.DuplicateLikelihood)
	assert.Equal(t, DefaultDuplicateLikelihood, *spec.DuplicateLikelihood)

	custom := catsSpec(3)
	custom.DuplicateSequenceDelta = 5
	custom.DuplicateLikelihood = intPtr(90)
	custom = custom.WithDefaults()
	assert.Equal(t, int64(5), custom.DuplicateSequenceDelta)
	assert.Equal(t, 90, *custom.DuplicateLikelihood)

	never := catsSpec(3)
	never.DuplicateLikelihood = intPtr(0)
	never = never.WithDefaults()
	assert.Equal(t, 0, *never.DuplicateLikelihood)
	assert.NoError(t, never.Validate())
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Spec)
		field string
	}{
		{"empty stream", func(s *Spec) { s.Stream = "" }, "stream"},
		{"nil schema", func(s *Spec) { s.Schema = nil }, "schema"},
		{"no keys", func(s *Spec) { s.KeyProperties = nil }, "key_properties"},
		{"negative n", func(s *Spec) { s.N = -1 }, "n"},
		{"negative nested", func(s *Spec) { s.NestedCount = -2 }, "nested_count"},
		{"negative duplicates", func(s *Spec) { s.Duplicates = -1 }, "duplicates"},
		{"negative delta", func(s *Spec) { s.DuplicateSequenceDelta = -200 }, "duplicate_sequence_delta"},
		{"likelihood over 100", func(s *Spec) { s.DuplicateLikelihood = intPtr(101) }, "duplicate_likelihood"},
		{"negative likelihood", func(s *Spec) { s.DuplicateLikelihood = intPtr(-1) }, "duplicate_likelihood"},
		{"negative sequence", func(s *Spec) { s.Sequence = -1 }, "sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := catsSpec(1).WithDefaults()
			tt.mut(&spec)

			err := spec.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	assert.NoError(t, catsSpec(0).WithDefaults().Validate())
}

func TestNew_RejectsInvalidSpec(t *testing.T) {
	spec := catsSpec(-5)
	_, err := New(spec, Cats{}, newFakerForTest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid n")
}

func TestNew_RequiresGeneratorAndSource(t *testing.T) {
	_, err := New(catsSpec(1), nil, newFakerForTest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator")

	_, err = New(catsSpec(1), Cats{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source")
}

func TestConfig_Spec(t *testing.T) {
	cfg := Config{N: 5, Version: int64Ptr(7), Duplicates: 2, NestedCount: 3, Sequence: 99}
	spec := cfg.Spec(schema.Cats())

	assert.Equal(t, "cats", spec.Stream)
	assert.Equal(t, []string{"id"}, spec.KeyProperties)
	assert.Equal(t, 5, spec.N)
	assert.Equal(t, int64(7), *spec.Version)
	assert.Equal(t, 2, spec.Duplicates)
	assert.Equal(t, 3, spec.NestedCount)
	assert.Equal(t, int64(99), spec.Sequence)
	assert.Equal(t, DefaultDuplicateSequenceDelta, spec.DuplicateSequenceDelta)
}

func TestConfig_SpecDuplicateLikelihood(t *testing.T) {
	unset := Config{N: 1}.Spec(schema.Cats())
	assert.Equal(t, DefaultDuplicateLikelihood, *unset.DuplicateLikelihood)

	never := Config{N: 1, DuplicateLikelihood: intPtr(0)}.Spec(schema.Cats())
	assert.Equal(t, 0, *never.DuplicateLikelihood)
}

func TestLoadConfig_ExplicitZeroLikelihood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n: 3\nduplicate_likelihood: 0\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.DuplicateLikelihood)
	assert.Equal(t, 0, *cfg.DuplicateLikelihood)
}

func TestConfig_Kind(t *testing.T) {
	assert.Equal(t, "cats", Config{}.Kind())
	assert.Equal(t, "invalid-cats", Config{Stream: "invalid-cats"}.Kind())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
stream: invalid-cats
n: 10
version: 3
duplicates: 4
duplicate_sequence_delta: 50
sequence: 1234
seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "invalid-cats", cfg.Stream)
	assert.Equal(t, 10, cfg.N)
	require.NotNil(t, cfg.Version)
	assert.Equal(t, int64(3), *cfg.Version)
	assert.Equal(t, 4, cfg.Duplicates)
	assert.Equal(t, int64(50), cfg.DuplicateSequenceDelta)
	assert.Equal(t, int64(1234), cfg.Sequence)
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestLoadConfig_VersionZeroIsSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n: 1\nversion: 0\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Version)
	assert.Equal(t, int64(0), *cfg.Version)
}

func TestLoadConfig_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n: 1\nduplicate: 2\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
