package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/stacks/internal/domain"
)

func TestKV_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	kv, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set("token", "abc"))
	require.NoError(t, kv.Close())

	kv, err = Open(path)
	require.NoError(t, err)
	defer kv.Close()

	v, ok := kv.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestKV_Remove(t *testing.T) {
	kv, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("user", "{}"))
	require.NoError(t, kv.Remove("user"))
	require.NoError(t, kv.Remove("user"))

	_, ok := kv.Get("user")
	assert.False(t, ok)
}

func TestKV_MemoryOnly(t *testing.T) {
	kv, err := Open("")
	require.NoError(t, err)

	require.NoError(t, kv.Set("token", "abc"))
	v, ok := kv.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.ElementsMatch(t, []string{"token"}, kv.Keys())
}

func TestKV_Closed(t *testing.T) {
	kv, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	require.NoError(t, kv.Close())
	require.NoError(t, kv.Close())

	assert.ErrorIs(t, kv.Set("token", "x"), domain.ErrStoreClosed)
	assert.ErrorIs(t, kv.Remove("token"), domain.ErrStoreClosed)
	_, ok := kv.Get("token")
	assert.False(t, ok)
}
