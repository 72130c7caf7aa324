package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestListDirectory_SplitsFilesAndDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.jpg"))
	touch(t, filepath.Join(root, "a.PNG"))
	touch(t, filepath.Join(root, "c.WebP"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "noext"))
	touch(t, filepath.Join(root, "Trip", "x.gif"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "Empty"), 0o755))

	listing, err := NewOS().ListDirectory(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.PNG"),
		filepath.Join(root, "b.jpg"),
		filepath.Join(root, "c.WebP"),
	}, listing.Files)
	assert.Equal(t, []string{
		filepath.Join(root, "Empty"),
		filepath.Join(root, "Trip"),
	}, listing.Dirs)
	assert.False(t, listing.Empty())
}

func TestListDirectory_DoesNotDescend(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Trip", "Day1", "a.jpg"))

	listing, err := NewOS().ListDirectory(root)
	require.NoError(t, err)

	assert.Empty(t, listing.Files)
	assert.Equal(t, []string{filepath.Join(root, "Trip")}, listing.Dirs)
}

func TestListDirectory_KeepsHiddenByDefault(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".beach.jpg"))
	touch(t, filepath.Join(root, ".2019", "a.jpg"))
	touch(t, filepath.Join(root, "visible.jpg"))

	listing, err := NewOS().ListDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, ".beach.jpg"),
		filepath.Join(root, "visible.jpg"),
	}, listing.Files)
	assert.Equal(t, []string{filepath.Join(root, ".2019")}, listing.Dirs)
}

func TestListDirectory_SkipHiddenOptIn(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".beach.jpg"))
	touch(t, filepath.Join(root, ".2019", "a.jpg"))
	touch(t, filepath.Join(root, "visible.jpg"))

	fsys := NewOS()
	fsys.SkipHidden = true
	listing, err := fsys.ListDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "visible.jpg")}, listing.Files)
	assert.Empty(t, listing.Dirs)
}

func TestListDirectory_IgnoresSymlinks(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	touch(t, filepath.Join(target, "real.jpg"))

	require.NoError(t, os.Symlink(filepath.Join(target, "real.jpg"), filepath.Join(root, "link.jpg")))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "linkdir")))

	listing, err := NewOS().ListDirectory(root)
	require.NoError(t, err)
	assert.True(t, listing.Empty())
}

func TestListDirectory_EmptyDirectory(t *testing.T) {
	listing, err := NewOS().ListDirectory(t.TempDir())
	require.NoError(t, err)
	assert.True(t, listing.Empty())
}

func TestListDirectory_MissingDirectory(t *testing.T) {
	_, err := NewOS().ListDirectory(filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestListDirectory_NotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.jpg")
	touch(t, file)

	_, err := NewOS().ListDirectory(file)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestListDirectory_PartialListingSkipsUnreadableEntries(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "Trip", "b.jpg"))
	stubReadDir(t, &os.PathError{Op: "lstat", Path: filepath.Join(root, "c.jpg"), Err: syscall.EACCES})

	listing, err := NewOS().ListDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.jpg")}, listing.Files)
	assert.Equal(t, []string{filepath.Join(root, "Trip")}, listing.Dirs)
}
