package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_HelpListsSubcommands(t *testing.T) {
	out, err := runCommand(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "search")
	assert.Contains(t, out, "compare")
}

func TestRootCmd_ConfigFileApplied(t *testing.T) {
	corpusPath := writeTestCorpus(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("search:\n  alpha: 5.0\n"), 0o644))

	_, err := runCommand(t, "search", "rank fusion",
		"--corpus", corpusPath, "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	corpusPath := writeTestCorpus(t)

	_, err := runCommand(t, "search", "rank fusion",
		"--corpus", corpusPath, "--config", "/nope/config.yaml")
	require.Error(t, err)
}
