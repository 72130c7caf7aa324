package indexer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// ContentHash returns the SHA-1 of the file at path as 40 lower-case hex
// characters. The file is streamed, never held in memory.
func ContentHash(fsys filesystem.FS, path string) (string, error) {
	start := time.Now()

	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s after hashing: %v", path, err)
		}
	}()

	h := sha1.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", fmt.Errorf("%w: hash %s: %w", filesystem.ErrIO, path, err)
	}

	metrics.IndexerHashDuration.Observe(time.Since(start).Seconds())
	metrics.IndexerHashedBytes.Add(float64(n))

	return hex.EncodeToString(h.Sum(nil)), nil
}
