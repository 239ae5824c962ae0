package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fakestream/internal/protocol"
)

func parseLines(t *testing.T, out string) []protocol.Message {
	t.Helper()
	var msgs []protocol.Message
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if line == "" {
			continue
		}
		msg, err := protocol.ParseLine([]byte(line))
		require.NoError(t, err, "line %q", line)
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestGenerate_Stdout(t *testing.T) {
	out, errOut, err := execute(t, "generate", "-n", "5", "--sequence", "1000", "--seed", "1")
	require.NoError(t, err)

	msgs := parseLines(t, out)
	require.Len(t, msgs, 6)
	assert.Equal(t, protocol.TypeSchema, msgs[0].Type)
	for i, m := range msgs[1:] {
		id, ok := m.ID()
		require.True(t, ok)
		assert.Equal(t, int64(i+1), id)
		assert.Equal(t, int64(1000), m.Sequence)
	}

	// The summary goes to stderr so stdout stays a clean stream.
	assert.Contains(t, errOut, "Generated 6 messages for stream cats")
	assert.Contains(t, errOut, "seed 1")
}

func TestGenerate_VersionAndDuplicates(t *testing.T) {
	out, _, err := execute(t, "generate", "-n", "5", "--duplicates", "2", "--version", "7", "--sequence", "1000", "--seed", "42")
	require.NoError(t, err)

	msgs := parseLines(t, out)
	last := msgs[len(msgs)-1]
	assert.Equal(t, protocol.TypeActivateVersion, last.Type)
	assert.Equal(t, int64(7), *last.Version)

	dups := 0
	for _, m := range msgs[1 : len(msgs)-1] {
		assert.Equal(t, protocol.TypeRecord, m.Type)
		assert.Equal(t, int64(7), *m.Version)
		if m.Sequence == 1200 {
			dups++
		}
	}
	assert.GreaterOrEqual(t, dups, 1)
	assert.LessOrEqual(t, dups, 2)
	assert.Len(t, msgs, 1+5+dups+1)
}

func TestGenerate_VersionZeroIsSet(t *testing.T) {
	out, _, err := execute(t, "generate", "-n", "1", "--version", "0", "--seed", "1")
	require.NoError(t, err)

	msgs := parseLines(t, out)
	last := msgs[len(msgs)-1]
	assert.Equal(t, protocol.TypeActivateVersion, last.Type)
	assert.Equal(t, int64(0), *last.Version)
}

func TestGenerate_ZeroLikelihoodOnlyForcedDuplicate(t *testing.T) {
	tests := []struct {
		name string
		args func(dir string) []string
	}{
		{"flag", func(string) []string {
			return []string{"--duplicate-likelihood", "0"}
		}},
		{"config file", func(dir string) []string {
			path := filepath.Join(dir, "run.yaml")
			require.NoError(t, os.WriteFile(path, []byte("n: 30\nduplicate_likelihood: 0\n"), 0644))
			return []string{"--config", path}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"generate", "-n", "30", "--duplicates", "10", "--sequence", "1000", "--seed", "4"}, tt.args(t.TempDir())...)
			out, _, err := execute(t, args...)
			require.NoError(t, err)

			msgs := parseLines(t, out)
			require.Len(t, msgs, 1+30+1)
			for _, m := range msgs[1:31] {
				assert.Equal(t, int64(1000), m.Sequence)
			}
			assert.Equal(t, int64(1200), msgs[31].Sequence)
		})
	}
}

func TestGenerate_SameSeedSameOutput(t *testing.T) {
	args := []string{"generate", "-n", "20", "--duplicates", "5", "--sequence", "1", "--seed", "99"}
	a, _, err := execute(t, args...)
	require.NoError(t, err)
	b, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cats.jsonl")
	out, errOut, err := execute(t, "generate", "-n", "3", "--output", path, "--seed", "1")
	require.NoError(t, err)
	assert.Empty(t, errOut)
	assert.Contains(t, out, "-> "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, parseLines(t, string(data)), 4)
}

func TestGenerate_ConfigFileWithOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("stream: invalid-cats\nn: 10\nversion: 3\nsequence: 50\nseed: 5\n"), 0644))

	out, _, err := execute(t, "generate", "--config", cfgPath, "-n", "4")
	require.NoError(t, err)

	msgs := parseLines(t, out)
	require.Len(t, msgs, 1+4+1, "n from the flag, version from the file")
	assert.Equal(t, int64(3), *msgs[5].Version)
	assert.Equal(t, int64(50), msgs[1].Sequence)
}

func TestGenerate_ConfigFileUnknownField(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("n: 1\nrecords: 4\n"), 0644))

	_, _, err := execute(t, "generate", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"negative n", []string{"--records=-1"}, "invalid n"},
		{"unknown kind", []string{"--stream", "dogs"}, "unknown generator"},
		{"likelihood out of range", []string{"--duplicate-likelihood", "101"}, "duplicate_likelihood"},
		{"kafka without topic", []string{"--kafka-brokers", "localhost:9092"}, "topic is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"generate"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate_JSONSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.jsonl")
	out, _, err := execute(t, "--format", "json", "generate", "-n", "2", "--output", path, "--seed", "3", "--run-id", "run-abc")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cats", resp.Data["stream"])
	assert.Equal(t, "run-abc", resp.Data["run_id"])
	assert.Equal(t, float64(3), resp.Data["messages"])
	assert.Equal(t, float64(2), resp.Data["records"])
	assert.Equal(t, float64(1), resp.Data["schemas"])
}

func TestGenerate_InvalidCatsCorruptsEveryRecord(t *testing.T) {
	out, _, err := execute(t, "generate", "--stream", "invalid-cats", "-n", "30", "--seed", "8")
	require.NoError(t, err)

	msgs := parseLines(t, out)
	require.Len(t, msgs, 31)
	for _, m := range msgs[1:] {
		_, nameIsString := m.Record["name"].(string)
		_, ageIsString := m.Record["age"].(string)
		_, adoptionIsList := m.Record["adoption"].([]any)
		adoption, _ := m.Record["adoption"].(map[string]any)
		_, immunizationsIsObject := adoption["immunizations"].(map[string]any)
		assert.True(t, !nameIsString || ageIsString || adoptionIsList || immunizationsIsObject,
			"record %v is not corrupted", m.Record)
	}
}
