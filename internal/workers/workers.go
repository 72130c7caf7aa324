package workers

import (
	"os"
	"runtime"
	"strconv"

	"photo-library/internal/logging"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "THUMBNAIL_WORKERS"

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit caps the worker count. Use 0 for no limit.
// THUMBNAIL_WORKERS overrides the calculation.
func Count(multiplier float64, limit int) int {
	if count, ok := override(); ok {
		if limit > 0 && count > limit {
			return limit
		}
		return count
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// override reads THUMBNAIL_WORKERS. Invalid values are logged and ignored.
func override() (int, bool) {
	raw := os.Getenv(EnvOverride)
	if raw == "" {
		return 0, false
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 {
		logging.Warn("Ignoring invalid %s=%q, expected a positive integer", EnvOverride, raw)
		return 0, false
	}
	return count, true
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// Thumbnail decoding and resizing fall in this category.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}
