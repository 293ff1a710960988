package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestNewManager_LoadsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  threads: 4\n")
	m, err := NewManager(path)
	require.NoError(t, err)
	snap := m.Get()
	assert.Equal(t, 4, snap.Server.Threads)
	assert.Equal(t, 10000, snap.Server.RequestLimit)
	assert.Equal(t, ":8080", snap.Server.BindAddress)
}

func TestManager_ReloadSwapsSnapshotAtomically(t *testing.T) {
	path := writeConfig(t, "server:\n  threads: 1\n")
	m, err := NewManager(path)
	require.NoError(t, err)
	old := m.Get()
	assert.Equal(t, 1, old.Server.Threads)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  threads: 9\n"), 0o600))
	require.NoError(t, m.Reload(path))

	assert.Equal(t, 1, old.Server.Threads, "previously obtained snapshot must not mutate")
	assert.Equal(t, 9, m.Get().Server.Threads)
}

func TestNewManager_MissingFileErrors(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestManager_MarshalRedactedBlanksBearerToken(t *testing.T) {
	path := writeConfig(t, "auth:\n  bearerToken: topsecret\n")
	m, err := NewManager(path)
	require.NoError(t, err)

	out, err := m.MarshalRedacted()
	require.NoError(t, err)
	assert.Contains(t, string(out), "***")
	assert.NotContains(t, string(out), "topsecret")

	full, err := m.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(full), "topsecret")
}
