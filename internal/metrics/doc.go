// Package metrics provides Prometheus instrumentation for the photo library.
//
// All metrics are prefixed with "photo_library_" and registered on the default
// registry through promauto, so importing the package is enough to export them.
//
// # Metric Categories
//
// ## Database Metrics
//   - DBQueryTotal / DBQueryDuration: store calls by operation and status
//   - DBConnectionsOpen: open SQLite connections
//   - DBLockRetries: writes retried because SQLite reported a lock
//
// ## Indexer Metrics
//   - IndexerRunsTotal: scans by mode (flat/recursive)
//   - IndexerFilesProcessed: reconciled files by outcome
//   - IndexerGalleriesCreated: galleries created by the resolver
//   - IndexerErrors: failures by kind (io/format/store)
//   - IndexerHashDuration / IndexerHashedBytes: content hashing cost
//
// ## Sweeper Metrics
//   - SweeperRunsTotal, SweeperDeletedTotal (by entity), SweeperLastRunDuration
//
// ## Thumbnail Metrics
//   - ThumbnailGenerationsTotal: generations by status
//   - ThumbnailGenerationDuration: per phase (decode/resize/encode/write/store)
//   - ThumbnailCacheHits / ThumbnailCacheMisses: LoadOrGenerate reads
//   - ThumbnailWarmerTasks: warmer task results
//
// ## Library Metrics
//
// Gauges refreshed by the Collector from a StatsProvider:
//   - LibraryGalleriesTotal, LibraryPicturesTotal, LibraryThumbnailsTotal, LibraryTagsTotal
//
// ## Maintenance and Memory Metrics
//   - MaintenanceRunsTotal: maintenance passes by result (success/error/locked)
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses from the memory monitor
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver:
//   - FilesystemOperationDuration / FilesystemOperationErrors by volume and operation
//   - FilesystemRetry* and FilesystemStaleErrors for NFS stale handle retries
package metrics
