// Command photo-library keeps a photo library's SQLite database and thumbnail
// cache in sync with the directories on disk.
//
// Each maintenance pass:
//
//  1. Scans every configured root, recursively or flat, creating galleries
//     for directories holding pictures and reconciling picture records.
//  2. Sweeps galleries and pictures whose directory or file has vanished.
//  3. Generates missing or stale 100 px thumbnails on a bounded worker pool.
//
// Usage:
//
//	photo-library [--config scanner.yaml] [--cache DIR] [--skip-scan]
//	              [--skip-thumbs] [--once] [--interval 30m]
//
// Without --interval (or with --once) a single pass runs and the exit status
// reflects its outcome. With an interval the process keeps running until
// SIGINT or SIGTERM; the row being written when the signal arrives is still
// committed.
//
// When METRICS_ENABLED is true (the default), /metrics, /healthz, /livez,
// /readyz and /version are served on METRICS_PORT.
//
// See package startup for the configuration file and environment variables.
package main
