package media

import (
	"errors"
	"fmt"
	"image"
	"io"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/biessek/golang-ico" // ICO format support
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
)

var (
	// ErrFormat marks a source file that is corrupt or in a format no
	// registered decoder understands.
	ErrFormat = errors.New("unsupported or corrupt image")
	// ErrIO marks a failure to read a source file or to write a thumbnail.
	ErrIO = errors.New("image I/O error")
	// ErrStore marks a failure to read or record thumbnail state.
	ErrStore = errors.New("thumbnail store error")
)

// DecodeConfig returns the pixel dimensions of an encoded image without
// decoding its pixels.
func DecodeConfig(r io.Reader) (width, height int, err error) {
	config, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	logging.Debug("Decoded %s header: %dx%d", format, config.Width, config.Height)
	return config.Width, config.Height, nil
}

// ReadDimensions opens path and returns its pixel dimensions.
func ReadDimensions(fsys filesystem.FS, path string) (width, height int, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	return DecodeConfig(f)
}

// decodeImage fully decodes an image, honoring EXIF orientation.
func decodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return img, nil
}

// LoadRaw returns the original bytes of a picture.
func LoadRaw(fsys filesystem.FS, pic *database.Picture) ([]byte, error) {
	data, err := fsys.ReadFile(pic.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: picture %d: %w", ErrIO, pic.ID, err)
	}
	return data, nil
}
