package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"

	"photo-library/internal/logging"
)

// VolumeResolver maps file paths to known volume names for metric labeling.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// mounts is sorted by path length descending for longest-prefix matching
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute path with trailing slash (e.g., "/photos/")
	name string // volume label (e.g., "library")
}

// NewVolumeResolver creates a resolver from a map of volume name → absolute path.
// Example:
//
//	NewVolumeResolver(map[string]string{
//	    "library":  "/photos",
//	    "cache":    "/var/cache/photo-library",
//	    "database": "/var/lib/photo-library",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	vr := &VolumeResolver{mounts: make([]volumeMount, 0, len(volumes))}
	for name, path := range volumes {
		vr.Add(name, path)
	}
	return vr
}

// Add labels one more path, so several library roots can share a label.
func (vr *VolumeResolver) Add(name, path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if !strings.HasSuffix(absPath, "/") {
		absPath += "/"
	}
	vr.mounts = append(vr.mounts, volumeMount{path: absPath, name: name})

	sort.SliceStable(vr.mounts, func(i, j int) bool {
		return len(vr.mounts[i].path) > len(vr.mounts[j].path)
	})
}

// Resolve returns the volume name for a given file path.
// Returns "unknown" if the path doesn't match any configured volume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+"/", mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

// defaultResolver is the package-level resolver set at startup
var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	// If nil, the package-level default is used.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn, retrying only on ESTALE with capped exponential backoff.
// The returned error is the last error fn produced, unwrapped.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	attempts := 0

	result, err := retry.DoWithData(
		func() (T, error) {
			attempts++
			return fn()
		},
		retry.Context(context.Background()),
		retry.Attempts(uint(config.MaxRetries+1)),
		retry.Delay(config.InitialBackoff),
		retry.MaxDelay(config.MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isNFSStaleError),
		retry.OnRetry(func(n uint, err error) {
			if o := observe(); o != nil {
				o.ObserveStaleError(op, volume)
				o.ObserveRetryAttempt(op, volume)
			}
			logging.Debug("NFS %s stale file handle for %s, retrying (attempt %d/%d)",
				op, path, n+1, config.MaxRetries)
		}),
	)

	if o := observe(); o != nil {
		o.ObserveOperation(volume, operationLabel(op), time.Since(start).Seconds(), err)
	}

	switch {
	case err == nil && attempts > 1:
		logging.Info("NFS %s succeeded on retry %d for %s", op, attempts-1, path)
		if o := observe(); o != nil {
			o.ObserveRetrySuccess(op, volume)
		}
	case err != nil && isNFSStaleError(err):
		logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
		if o := observe(); o != nil {
			o.ObserveStaleError(op, volume)
			o.ObserveRetryFailure(op, volume)
		}
	}

	return result, err
}

// operationLabel folds retry operation names into the coarser operation
// labels used by the operation histograms.
func operationLabel(op string) string {
	if op == "open" {
		return "read"
	}
	return op
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// readDir reads every entry of a directory. On error it still returns the
// entries read before the failure.
var readDir = func(path string) ([]os.DirEntry, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	return dir.ReadDir(-1)
}

// ReadDirWithRetry reads all entries of a directory with retry logic for
// NFS stale file handle errors. When the last attempt fails part way, the
// entries it read are returned along with the error.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	var entries []os.DirEntry
	_, err := withRetry("readdir", path, config, func() (struct{}, error) {
		var err error
		entries, err = readDir(path)
		return struct{}{}, err
	})
	return entries, err
}

// WriteFileWithRetry writes data to path with retry logic for NFS stale file
// handle errors. The write goes to a temporary sibling that is renamed into
// place, so readers never observe a partially written file.
func WriteFileWithRetry(path string, data []byte, perm os.FileMode, config RetryConfig) error {
	_, err := withRetry("write", path, config, func() (struct{}, error) {
		return struct{}{}, writeFileAtomic(path, data, perm)
	})
	return err
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
