package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	s := NewInMemoryStore(testLogger())
	defer s.Stop()

	_, found, err := s.Load("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save("key", []byte("value")))

	data, found, err := s.Load("key")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("value"), data)

	require.NoError(t, s.Save("key", []byte("updated")))
	data, _, _ = s.Load("key")
	assert.Equal(t, []byte("updated"), data)

	require.NoError(t, s.Delete("key"))
	_, found, err = s.Load("key")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is a no-op.
	require.NoError(t, s.Delete("key"))
}

func TestStoreModeWithoutRedis(t *testing.T) {
	s := NewInMemoryStore(testLogger())
	defer s.Stop()

	assert.Equal(t, StoreModeInMemory, s.Mode())
}
