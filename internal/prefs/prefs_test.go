package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWriteThrough(t *testing.T) {
	backend := &MemoryBackend{}
	store, err := NewStore(backend)
	require.NoError(t, err)

	assert.Empty(t, store.SessionID())
	assert.False(t, store.AgentMode())

	require.NoError(t, store.SetSessionID("sess-1"))
	require.NoError(t, store.SetAgentMode(true))
	require.NoError(t, store.SetTimezone("Asia/Tokyo"))
	require.NoError(t, store.SetPromptOverride("chat", "be brief"))

	// A fresh store over the same backend sees everything.
	reloaded, err := NewStore(backend)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", reloaded.SessionID())
	assert.True(t, reloaded.AgentMode())
	assert.Equal(t, "Asia/Tokyo", reloaded.Timezone())
	assert.Equal(t, "be brief", reloaded.PromptOverride("chat"))
	assert.Empty(t, reloaded.PromptOverride("search"))
}

func TestStoreClearPromptOverride(t *testing.T) {
	store, err := NewStore(&MemoryBackend{})
	require.NoError(t, err)

	require.NoError(t, store.SetPromptOverride("chat", "be brief"))
	require.NoError(t, store.SetPromptOverride("chat", ""))
	assert.Empty(t, store.PromptOverride("chat"))
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	backend := &FileBackend{Path: path}

	// Missing file means empty preferences.
	store, err := NewStore(backend)
	require.NoError(t, err)
	assert.Empty(t, store.Timezone())

	require.NoError(t, store.SetTimezone("Europe/Vienna"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := NewStore(&FileBackend{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Vienna", reloaded.Timezone())
}

func TestStoreRejectsCorruptData(t *testing.T) {
	backend := &MemoryBackend{}
	require.NoError(t, backend.Save([]byte("Intermediate: [not yaml")))

	_, err := NewStore(backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse preferences")
}
