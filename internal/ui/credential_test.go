package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Run("missing file reads as empty", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "nope", "settings.yaml"))

		v, err := store.Get(CredentialKey)

		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("set then get across instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "kbase", "settings.yaml")
		require.NoError(t, NewFileStore(path).Set(CredentialKey, "sk-one"))

		v, err := NewFileStore(path).Get(CredentialKey)
		require.NoError(t, err)
		assert.Equal(t, "sk-one", v)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("last write wins and other keys survive", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		require.NoError(t, store.Set("other", "keep"))
		require.NoError(t, store.Set(CredentialKey, "sk-one"))
		require.NoError(t, store.Set(CredentialKey, "sk-two"))

		v, err := store.Get(CredentialKey)
		require.NoError(t, err)
		assert.Equal(t, "sk-two", v)

		other, err := store.Get("other")
		require.NoError(t, err)
		assert.Equal(t, "keep", other)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		require.NoError(t, os.WriteFile(path, []byte("key: [unclosed"), 0o600))

		_, err := NewFileStore(path).Get(CredentialKey)

		assert.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	v, err := store.Get(CredentialKey)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Set(CredentialKey, "sk-test"))
	v, err = store.Get(CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)
}
