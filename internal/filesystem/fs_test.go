package filesystem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS_Exists(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.jpg")
	touch(t, file)
	fsys := NewOS()

	ok, err := fsys.Exists(file)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fsys.Exists(root)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fsys.Exists(filepath.Join(root, "missing.jpg"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOS_FileSizeAndRead(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.jpg")
	require.NoError(t, os.WriteFile(file, []byte("0123456789"), 0o644))
	fsys := NewOS()

	size, err := fsys.FileSize(file)
	require.NoError(t, err)
	assert.EqualValues(t, 10, size)

	data, err := fsys.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	rc, err := fsys.Open(file)
	require.NoError(t, err)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, streamed)
}

func TestOS_ErrorsAreWrapped(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.jpg")
	fsys := NewOS()

	_, err := fsys.FileSize(missing)
	assert.True(t, errors.Is(err, ErrIO))

	_, err = fsys.ReadFile(missing)
	assert.True(t, errors.Is(err, ErrIO))

	_, err = fsys.Open(missing)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOS_WriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "thumbs", "7.png")
	fsys := NewOS()

	require.NoError(t, fsys.WriteFile(path, []byte("png")))
	require.NoError(t, fsys.WriteFile(path, []byte("png2")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png2", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
