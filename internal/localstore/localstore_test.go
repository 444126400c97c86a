package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	in := map[string]int{"a": 1, "b": 2}
	require.NoError(t, s.Put("counts", in))

	var out map[string]int
	require.NoError(t, s.Get("counts", &out))
	assert.Equal(t, in, out)
}

func TestStore_GetMissingKey(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	var out []string
	err = s.Get("nothing", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetCorruptValue(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookings.json"), []byte("{not json"), 0o644))

	var out []string
	err = s.Get("bookings", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_PutReplacesValue(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("k", []int{1, 2, 3}))
	require.NoError(t, s.Put("k", []int{9}))

	var out []int
	require.NoError(t, s.Get("k", &out))
	assert.Equal(t, []int{9}, out)
}

func TestStore_Delete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("k", "v"))
	require.NoError(t, s.Delete("k"))

	var out string
	assert.ErrorIs(t, s.Get("k", &out), ErrNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, s.Delete("k"))
}

func TestStore_ValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(KeyOfflineQueue, []string{"a1", "a2"}))

	reopened, err := Open(dir)
	require.NoError(t, err)

	var out []string
	require.NoError(t, reopened.Get(KeyOfflineQueue, &out))
	assert.Equal(t, []string{"a1", "a2"}, out)
}
