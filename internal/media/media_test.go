package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
)

// wrapICO stores encoded PNG data as the single entry of an ICO container.
func wrapICO(data []byte, w, h int) []byte {
	out := []byte{0, 0, 1, 0, 1, 0}
	out = append(out, uint8(w), uint8(h), 0, 0, 1, 0, 32, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = binary.LittleEndian.AppendUint32(out, 22)
	return append(out, data...)
}

// writeImage writes a solid w x h image to path, encoded by extension.
func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
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

type testEnv struct {
	db    *database.Database
	fs    *filesystem.OS
	cache *ThumbnailCache
	lib   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(root, "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fsys := filesystem.NewOS()
	return &testEnv{
		db:    db,
		fs:    fsys,
		cache: NewThumbnailCache(db, fsys, filepath.Join(root, "cache")),
		lib:   filepath.Join(root, "lib"),
	}
}

// addPicture writes an image into the library and records it in the store.
func (e *testEnv) addPicture(t *testing.T, rel string, w, h int) *database.Picture {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(e.lib, rel)
	writeImage(t, path, w, h)

	dir := filepath.Dir(path)
	g := &database.Gallery{Name: filepath.Base(dir), Directory: &dir}
	_, err := e.db.InsertGallery(ctx, g)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)

	p := &database.Picture{
		Name:       filepath.Base(path),
		Width:      w,
		Height:     h,
		GalleryID:  g.ID,
		Format:     "png",
		Path:       path,
		Hash:       "hash-" + rel,
		FileSize:   info.Size(),
		ExternalID: "ext-" + rel,
	}
	_, err = e.db.InsertPicture(ctx, p)
	require.NoError(t, err)
	return p
}
