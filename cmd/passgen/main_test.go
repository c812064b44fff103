package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	t.Setenv("PASSGEN_CONFIG", filepath.Join(t.TempDir(), "config"))

	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"--help"}} {
		out, _, err := runArgs(t, args...)
		require.NoError(t, err, args)
		assert.Contains(t, out, "Usage: passgen <command>", args)
	}

	out, _, err := runArgs(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "passgen version "+version+"\n", out)

	_, stderr, err := runArgs(t, "nonexistent")
	require.Error(t, err)
	assert.Contains(t, stderr, "Unknown command: nonexistent")

	_, stderr, err = runArgs(t, "rate", "-h")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Usage: passgen rate")

	_, _, err = runArgs(t, "rate", "-no-such-flag")
	require.Error(t, err)
}

func TestRun_ConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	t.Setenv("PASSGEN_CONFIG", path)

	_, _, err := runArgs(t, "config", "passing.rating-expr", "static")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "passing.rating-expr static\n")

	out, _, err := runArgs(t, "rate", "-format", "json")
	require.NoError(t, err)
	var rating struct {
		Expression string  `json:"expression"`
		Score      float64 `json:"score"`
		Components struct {
			Static float64 `json:"static"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rating))
	assert.Equal(t, "static", rating.Expression)
	assert.InDelta(t, rating.Components.Static, rating.Score, 1e-12)
}

func TestRun_SymlinkedConfigIsIgnored(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	require.NoError(t, os.WriteFile(real, []byte("passing.seed 1\n"), 0o644))
	link := filepath.Join(dir, "config")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	t.Setenv("PASSGEN_CONFIG", link)

	_, stderr, err := runArgs(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stderr, "ignoring config")
}
