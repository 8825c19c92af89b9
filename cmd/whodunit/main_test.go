package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append(args, "--env-file", "testdata/missing.env"))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Regexp(t, `^whodunit version \d+\.\d+\.\d+\n$`, out)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "../../pkg/adapters/memory/scenarios/ashcombe.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "ashcombe.yaml: ok")

	out, err = execute(t, "validate", "testdata/broken.yaml")
	assert.Error(t, err)
	assert.Contains(t, out, "broken.yaml: invalid")
	assert.Contains(t, out, "title")
}

func TestPlay_Offline(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("GAME_SEED", "7")
	out, err := execute(t, "play", "--offline", "--name", "Inspector Lane")
	require.NoError(t, err)
	assert.Contains(t, out, "Setting the scene...")
	assert.Contains(t, out, "The Great Hall")
}

func TestMap(t *testing.T) {
	out, err := execute(t, "map", "../../pkg/adapters/memory/scenarios/ashcombe.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, "The Great Hall")
	assert.NotContains(t, out, "class")
}
