package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrIO marks failures to read or write the filesystem. Callers abort the
// current sub-operation and continue with siblings.
var ErrIO = errors.New("filesystem I/O error")

// FS is the filesystem contract consumed by the indexer, the sweeper and the
// thumbnail cache.
type FS interface {
	// ListDirectory returns the qualifying picture files and subdirectories
	// directly inside path.
	ListDirectory(path string) (Listing, error)
	// Open opens a file for streaming reads.
	Open(path string) (io.ReadCloser, error)
	// ReadFile returns the full contents of a file.
	ReadFile(path string) ([]byte, error)
	// Exists reports whether path exists. A non-nil error means existence
	// could not be determined.
	Exists(path string) (bool, error)
	// FileSize returns the size of a file in bytes.
	FileSize(path string) (int64, error)
	// WriteFile replaces the contents of path, creating parent directories.
	WriteFile(path string, data []byte) error
}

// OS implements FS on the local filesystem, retrying NFS stale handles.
type OS struct {
	Retry      RetryConfig
	SkipHidden bool
}

var _ FS = (*OS)(nil)

// NewOS returns an OS filesystem with default retry behavior. Hidden
// entries are listed like any other; set SkipHidden to drop them.
func NewOS() *OS {
	return &OS{Retry: DefaultRetryConfig()}
}

// Open opens path for reading.
func (o *OS) Open(path string) (io.ReadCloser, error) {
	f, err := OpenWithRetry(path, o.Retry)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	return f, nil
}

// ReadFile reads the whole file at path.
func (o *OS) ReadFile(path string) ([]byte, error) {
	f, err := OpenWithRetry(path, o.Retry)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return data, nil
}

// Exists stats path. Only a definite not-exist answer returns false with a
// nil error.
func (o *OS) Exists(path string) (bool, error) {
	_, err := StatWithRetry(path, o.Retry)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
}

// FileSize returns the size of the file at path.
func (o *OS) FileSize(path string) (int64, error) {
	info, err := StatWithRetry(path, o.Retry)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	return info.Size(), nil
}

// WriteFile atomically replaces path with data.
func (o *OS) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrIO, filepath.Dir(path), err)
	}
	if err := WriteFileWithRetry(path, data, 0o644, o.Retry); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	return nil
}
