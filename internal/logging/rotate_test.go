package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingFile_AppendsToExisting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	f, err := OpenRotating(path, DefaultRotation())
	require.NoError(t, err)
	_, err = f.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingFile_RotatesAndPrunes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "r.log")
	f, err := OpenRotating(path, Rotation{MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	chunk := bytes.Repeat([]byte("x"), 600<<10)
	for i := range 4 {
		chunk[0] = byte('a' + i)
		_, err := f.Write(chunk)
		require.NoError(t, err)
	}

	// a -> rotated out entirely, b -> .2, c -> .1, d -> live
	live, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('d'), live[0])

	one, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, byte('c'), one[0])

	two, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, byte('b'), two[0])

	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingFile_NoBackups(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "n.log")
	f, err := OpenRotating(path, Rotation{MaxSizeMB: 1, MaxFiles: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	chunk := bytes.Repeat([]byte("y"), 700<<10)
	for range 2 {
		_, err := f.Write(chunk)
		require.NoError(t, err)
	}
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, len(chunk), info.Size())
	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	t.Parallel()
	f, err := OpenRotating(filepath.Join(t.TempDir(), "c.log"), DefaultRotation())
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	_, err = f.Write([]byte("x"))
	require.ErrorIs(t, err, os.ErrClosed)
}
