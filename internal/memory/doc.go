// Package memory keeps thumbnail generation inside the container's memory
// budget.
//
// Decoding a large photo allocates its full pixel buffer, so a few concurrent
// warmer tasks on big originals can push a small pod over its limit. Go does
// not derive GOMEMLIMIT from cgroups the way it derives GOMAXPROCS, so
// [ConfigureFromEnv] sets it from the environment:
//
//   - GOMEMLIMIT: standard Go variable, takes precedence when set.
//   - MEMORY_LIMIT: container limit, as bytes or a humanized size such as
//     "512MiB". Usually injected with the Kubernetes Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the heap, default 0.85.
//
// [Monitor] samples heap usage. Above the critical water mark it pauses the
// warmer: each task calls [Monitor.WaitIfPaused] before decoding, and work
// resumes once usage drops below the high water mark.
package memory
