package callout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNone(t *testing.T) {
	assert.Empty(t, None("scratch", "alice"))
}

func TestExecUsesStdout(t *testing.T) {
	script := filepath.Join(t.TempDir(), "prefix")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"/$2/shard3/\"\n"), 0o755))

	hook := Exec(script)
	assert.Equal(t, "alice/shard3", hook("scratch", "alice"))
}

func TestExecFailureMeansNoPrefix(t *testing.T) {
	script := filepath.Join(t.TempDir(), "prefix")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0o755))

	hook := Exec(script)
	assert.Empty(t, hook("scratch", "alice"))
}

func TestExecMissingScriptMeansNoPrefix(t *testing.T) {
	hook := Exec(filepath.Join(t.TempDir(), "nosuch"))
	assert.Empty(t, hook("scratch", "alice"))
}

func TestForArea(t *testing.T) {
	assert.Empty(t, ForArea("")("scratch", "alice"))
}
