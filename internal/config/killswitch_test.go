package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillSwitchEngageAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "KILL")
	ks, err := NewKillSwitch(path)
	require.NoError(t, err)
	defer ks.Close()

	assert.False(t, ks.Engaged())

	require.NoError(t, ks.Engage())
	assert.True(t, ks.Engaged())
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	require.NoError(t, ks.Clear())
	assert.False(t, ks.Engaged())
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestKillSwitchPicksUpPreexistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "KILL")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ks, err := NewKillSwitch(path)
	require.NoError(t, err)
	defer ks.Close()
	assert.True(t, ks.Engaged())
}

func TestKillSwitchWithoutSentinelPathStillToggles(t *testing.T) {
	ks, err := NewKillSwitch("")
	require.NoError(t, err)
	defer ks.Close()

	assert.False(t, ks.Engaged())
	require.NoError(t, ks.Engage())
	assert.True(t, ks.Engaged())
	require.NoError(t, ks.Clear())
	assert.False(t, ks.Engaged())
}
