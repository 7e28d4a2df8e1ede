package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, store.Load())

	_, err = store.Get("jdoe@example.com")
	require.Error(t, err)

	require.NoError(t, store.Save("jdoe@example.com", "hunter2"))

	// A fresh store sees what the first one wrote.
	again, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, again.Load())
	password, err := again.Get("jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)
}

// Save merges with the latest stored state instead of clobbering other
// users' entries.
func TestKeyringStoreSaveMerges(t *testing.T) {
	keyring.MockInit()

	first, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, first.Save("jdoe@example.com", "hunter2"))

	second, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, second.Save("asmith@example.com", "swordfish"))

	check, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, check.Load())
	password, err := check.Get("jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)
	password, err = check.Get("asmith@example.com")
	require.NoError(t, err)
	assert.Equal(t, "swordfish", password)
}

func TestKeyringStoreClear(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, store.Save("jdoe@example.com", "hunter2"))
	require.NoError(t, store.Clear())

	again, err := NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, again.Load())
	_, err = again.Get("jdoe@example.com")
	assert.Error(t, err)
}
