package lib

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := setConfigDir(t)

	store, err := NewFileStore()
	require.NoError(t, err)
	require.NoError(t, store.Load())

	_, err = store.Get("jdoe@example.com")
	require.Error(t, err)

	require.NoError(t, store.Save("jdoe@example.com", "hunter2"))

	// A fresh store sees what the first one wrote.
	again, err := NewFileStore()
	require.NoError(t, err)
	require.NoError(t, again.Load())
	password, err := again.Get("jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "secret"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestFileStoreClear(t *testing.T) {
	dir := setConfigDir(t)

	store, err := NewFileStore()
	require.NoError(t, err)
	require.NoError(t, store.Save("jdoe@example.com", "hunter2"))
	require.NoError(t, store.Clear())

	_, err = os.Stat(filepath.Join(dir, "secret"))
	assert.True(t, os.IsNotExist(err))
}

func TestInitializeSecretRejectsUnknownType(t *testing.T) {
	assert.Error(t, InitializeSecret("vault"))
	assert.NoError(t, InitializeSecret("none"))
	_, err := StoredPassword("jdoe@example.com")
	assert.Error(t, err)
}
