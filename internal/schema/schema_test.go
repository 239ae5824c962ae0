package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCats(t *testing.T) {
	s := Cats()

	assert.Equal(t, "cats", s.Name)
	assert.Equal(t, []string{"id"}, s.KeyProperties)
	assert.Equal(t, false, s.Schema["additionalProperties"])

	for _, field := range []string{"id", "name", "paw_size", "paw_colour", "flea_check_complete", "pattern", "age", "adoption"} {
		_, ok := s.Schema.Property(field)
		assert.True(t, ok, "missing property %s", field)
	}
}

func TestCats_ReturnsFreshCopy(t *testing.T) {
	a := Cats()
	a.Schema["mutated"] = true

	b := Cats()
	_, ok := b.Schema["mutated"]
	assert.False(t, ok)
}

func TestDocument_TypesAndNullability(t *testing.T) {
	doc := Cats().Schema

	assert.Equal(t, []string{"integer"}, doc.Types("id"))
	assert.Equal(t, []string{"null", "integer"}, doc.Types("age"))
	assert.True(t, doc.Nullable("age"))
	assert.True(t, doc.Nullable("adoption"))
	assert.False(t, doc.Nullable("name"))
	assert.Nil(t, doc.Types("missing"))
}

func TestDocument_Defaults(t *testing.T) {
	doc := Cats().Schema

	v, ok := doc.Default("paw_size")
	require.True(t, ok)
	assert.Equal(t, int64(314159), v)

	v, ok = doc.Default("flea_check_complete")
	require.True(t, ok)
	assert.Equal(t, false, v)

	_, ok = doc.Default("name")
	assert.False(t, ok)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dogs.yaml")
	content := `
stream: dogs
key_properties: [id]
schema:
  properties:
    id:
      type: integer
    breed:
      type: ["null", string]
      default: mutt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dogs", s.Name)
	assert.Equal(t, []string{"id"}, s.KeyProperties)
	assert.Equal(t, []string{"integer"}, s.Schema.Types("id"))

	v, ok := s.Schema.Default("breed")
	require.True(t, ok)
	assert.Equal(t, "mutt", v)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing stream", `{"schema":{"properties":{"id":{}}},"key_properties":["id"]}`, "stream is required"},
		{"missing schema", `{"stream":"x","key_properties":["id"]}`, "schema is required"},
		{"missing keys", `{"stream":"x","schema":{"properties":{"id":{}}}}`, "key_properties is required"},
		{"undeclared key", `{"stream":"x","schema":{"properties":{"id":{}}},"key_properties":["pk"]}`, `key property "pk"`},
		{"unknown field", `{"stream":"x","schema":{"properties":{"id":{}}},"key_properties":["id"],"bogus":1}`, "failed to parse schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema file")
}
