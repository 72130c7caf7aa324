package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Thumbnails fit inside a ThumbnailSize x ThumbnailSize box.
const ThumbnailSize = 100

// ThumbnailCache materializes fixed-size PNG derivatives of pictures under
// <cache>/thumbs/<picture id>.png. A picture's thumbnail row holds the
// content hash the file was generated from; the file is fresh while that
// hash equals the picture's hash.
type ThumbnailCache struct {
	store database.ThumbnailStore
	fs    filesystem.FS
	dir   string
	group singleflight.Group
}

// NewThumbnailCache returns a cache writing into cacheDir/thumbs.
func NewThumbnailCache(store database.ThumbnailStore, fsys filesystem.FS, cacheDir string) *ThumbnailCache {
	dir := filepath.Join(cacheDir, "thumbs")
	logging.Debug("ThumbnailCache: dir %s", dir)
	return &ThumbnailCache{
		store: store,
		fs:    fsys,
		dir:   dir,
	}
}

// Dir returns the directory holding thumbnail files.
func (c *ThumbnailCache) Dir() string {
	return c.dir
}

// Path returns where the thumbnail of pic lives.
func (c *ThumbnailCache) Path(pic *database.Picture) string {
	return filepath.Join(c.dir, strconv.FormatInt(pic.ID, 10)+".png")
}

// Generate decodes pic, resizes it to fit the thumbnail box preserving its
// aspect ratio, writes the PNG and records pic.Hash as the thumbnail's
// validity token. The file is written before the row so a fresh row never
// points at a missing or stale file.
func (c *ThumbnailCache) Generate(ctx context.Context, pic *database.Picture) error {
	start := time.Now()
	metrics.ThumbnailGeneratorRunning.Inc()
	defer metrics.ThumbnailGeneratorRunning.Dec()

	err := c.generate(ctx, pic)
	metrics.ThumbnailGenerationsTotal.WithLabelValues(generationStatus(err)).Inc()
	if err != nil {
		logging.Warn("Thumbnail generation failed for picture %d (%s): %v", pic.ID, pic.Path, err)
		return err
	}

	duration := time.Since(start)
	metrics.ThumbnailGenerationLastDuration.Set(duration.Seconds())
	logging.Debug("Thumbnail generated for picture %d in %v: %s", pic.ID, duration, c.Path(pic))
	return nil
}

func (c *ThumbnailCache) generate(ctx context.Context, pic *database.Picture) error {
	phase := time.Now()
	observe := func(name string) {
		metrics.ThumbnailGenerationDuration.WithLabelValues(name).Observe(time.Since(phase).Seconds())
		phase = time.Now()
	}

	src, err := c.fs.Open(pic.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	img, err := decodeImage(src)
	if closeErr := src.Close(); closeErr != nil {
		logging.Warn("failed to close image file %s: %v", pic.Path, closeErr)
	}
	if err != nil {
		return fmt.Errorf("picture %d: %w", pic.ID, err)
	}
	observe("decode")

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Linear)
	observe("resize")

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return fmt.Errorf("%w: encode thumbnail for picture %d: %w", ErrIO, pic.ID, err)
	}
	observe("encode")

	if err := c.fs.WriteFile(c.Path(pic), buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	observe("write")

	err = c.store.UpsertThumbnail(ctx, &database.Thumbnail{PictureID: pic.ID, PictureHash: pic.Hash})
	if err != nil {
		return fmt.Errorf("%w: picture %d: %w", ErrStore, pic.ID, err)
	}
	observe("store")

	return nil
}

func generationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrFormat):
		return "error_decode"
	case errors.Is(err, ErrStore):
		return "error_store"
	default:
		return "error_io"
	}
}

// GenerateIfNeeded generates the thumbnail unless a fresh one is recorded.
// It reports whether a thumbnail was generated.
func (c *ThumbnailCache) GenerateIfNeeded(ctx context.Context, pic *database.Picture) (bool, error) {
	fresh, err := c.isFresh(ctx, pic)
	if err != nil {
		return false, err
	}
	if fresh {
		return false, nil
	}
	if err := c.Generate(ctx, pic); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ThumbnailCache) isFresh(ctx context.Context, pic *database.Picture) (bool, error) {
	row, err := c.store.ThumbnailByPicture(ctx, pic.ID)
	if err != nil {
		return false, fmt.Errorf("%w: picture %d: %w", ErrStore, pic.ID, err)
	}
	return row.Fresh(pic), nil
}

// Load returns the cached thumbnail bytes of pic. ok is false when no
// thumbnail has been recorded or its file is missing.
func (c *ThumbnailCache) Load(ctx context.Context, pic *database.Picture) ([]byte, bool, error) {
	row, err := c.store.ThumbnailByPicture(ctx, pic.ID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: picture %d: %w", ErrStore, pic.ID, err)
	}
	if row == nil {
		return nil, false, nil
	}

	path := c.Path(pic)
	exists, err := c.fs.Exists(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !exists {
		logging.Debug("Thumbnail row for picture %d has no file at %s", pic.ID, path)
		return nil, false, nil
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return data, true, nil
}

// LoadOrGenerate returns the thumbnail bytes of pic, generating them first
// when missing or stale. It is stricter than Load: a recorded row whose hash
// differs from pic.Hash is regenerated, so this read may write the cache.
// Concurrent calls for the same picture share one generation.
func (c *ThumbnailCache) LoadOrGenerate(ctx context.Context, pic *database.Picture) ([]byte, error) {
	key := strconv.FormatInt(pic.ID, 10)

	v, err, _ := c.group.Do(key, func() (any, error) {
		fresh, err := c.isFresh(ctx, pic)
		if err != nil {
			return nil, err
		}
		if fresh {
			data, ok, err := c.Load(ctx, pic)
			if err != nil {
				return nil, err
			}
			if ok {
				metrics.ThumbnailCacheHits.Inc()
				return data, nil
			}
		}

		metrics.ThumbnailCacheMisses.Inc()
		if err := c.Generate(ctx, pic); err != nil {
			return nil, err
		}

		data, ok, err := c.Load(ctx, pic)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: thumbnail for picture %d vanished after generation", ErrIO, pic.ID)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
