package indexer

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
)

// countingFS counts opens and lets tests force Exists failures.
type countingFS struct {
	*filesystem.OS
	opens atomic.Int64

	mu        sync.Mutex
	existsErr map[string]error
}

func (c *countingFS) Open(path string) (io.ReadCloser, error) {
	c.opens.Add(1)
	return c.OS.Open(path)
}

func (c *countingFS) Exists(path string) (bool, error) {
	c.mu.Lock()
	err, ok := c.existsErr[path]
	c.mu.Unlock()
	if ok {
		return false, err
	}
	return c.OS.Exists(path)
}

func (c *countingFS) failExists(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.existsErr == nil {
		c.existsErr = map[string]error{}
	}
	c.existsErr[path] = err
}

type testEnv struct {
	db  *database.Database
	fs  *countingFS
	idx *Indexer
	lib string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(root, "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lib := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(lib, 0o755))

	fsys := &countingFS{OS: filesystem.NewOS()}
	return &testEnv{
		db:  db,
		fs:  fsys,
		idx: New(db, fsys),
		lib: lib,
	}
}

func (e *testEnv) path(parts ...string) string {
	return filepath.Join(append([]string{e.lib}, parts...)...)
}

// wrapICO stores encoded PNG data as the single entry of an ICO container.
func wrapICO(data []byte, w, h int) []byte {
	out := []byte{0, 0, 1, 0, 1, 0}
	out = append(out, uint8(w), uint8(h), 0, 0, 1, 0, 32, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = binary.LittleEndian.AppendUint32(out, 22)
	return append(out, data...)
}

// writeImage writes a w x h image to path, encoded by extension, filled
// with shade so different shades give different bytes.
func writeImage(t *testing.T, path string, w, h int, shade uint8) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}

	var buf bytes.Buffer
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	case ".ico":
		var encoded bytes.Buffer
		require.NoError(t, png.Encode(&encoded, img))
		buf.Write(wrapICO(encoded.Bytes(), w, h))
	default:
		require.NoError(t, png.Encode(&buf, img))
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func (e *testEnv) galleryFor(t *testing.T, dir string) *database.Gallery {
	t.Helper()
	g, err := e.db.GalleryByDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, g, "no gallery for %s", dir)
	return g
}

func (e *testEnv) pictureFor(t *testing.T, path string) *database.Picture {
	t.Helper()
	p, err := e.db.PictureByPath(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, p, "no picture for %s", path)
	return p
}

func (e *testEnv) counts(t *testing.T) (galleries, pictures int) {
	t.Helper()
	stats, err := e.db.GetStats()
	require.NoError(t, err)
	return stats.TotalGalleries, stats.TotalPictures
}
