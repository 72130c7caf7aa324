// Package maintenance drives a complete library maintenance pass.
//
// A pass takes a non-blocking file lock, scans every configured root
// (recursively or flat), sweeps records whose files vanished and finally
// warms thumbnails. Concurrent passes against the same cache directory are
// refused with [ErrLocked].
package maintenance
