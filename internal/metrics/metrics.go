package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBLockRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_db_lock_retries_total",
			Help: "Total number of writes retried because the database was locked",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_runs_total",
			Help: "Total number of library scans by mode (flat/recursive)",
		},
		[]string{"mode"},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_last_run_timestamp",
			Help: "Timestamp of the last library scan",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_last_run_duration_seconds",
			Help: "Duration of the last library scan in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_files_processed_total",
			Help: "Total number of picture files reconciled, by outcome",
		},
		[]string{"outcome"},
	)

	IndexerGalleriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_galleries_created_total",
			Help: "Total number of galleries created while resolving directories",
		},
	)

	IndexerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_errors_total",
			Help: "Total number of indexer errors by kind (io/format/store)",
		},
		[]string{"kind"},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_library_indexer_hash_duration_seconds",
			Help:    "Time spent computing content hashes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	IndexerHashedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_hashed_bytes_total",
			Help: "Total number of bytes read to compute content hashes",
		},
	)
)

// Sweeper metrics
var (
	SweeperRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_sweeper_runs_total",
			Help: "Total number of consistency sweeps",
		},
	)

	SweeperDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_sweeper_deleted_total",
			Help: "Total number of records deleted because their backing file or directory vanished",
		},
		[]string{"entity"},
	)

	SweeperLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_sweeper_last_run_duration_seconds",
			Help: "Duration of the last consistency sweep in seconds",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by status",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation phase duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail reads served from the cache",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail reads that required generation",
		},
	)

	ThumbnailGeneratorRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_thumbnail_generator_running",
			Help: "Whether the thumbnail warmer is active (1 = running, 0 = idle)",
		},
	)

	ThumbnailGenerationLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_thumbnail_generation_last_duration_seconds",
			Help: "Duration of the last thumbnail warming pass in seconds",
		},
	)

	ThumbnailWarmerTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_warmer_tasks_total",
			Help: "Total number of warmer tasks by result (generated/fresh/failed/panicked)",
		},
		[]string{"result"},
	)
)

// Library content metrics
var (
	LibraryGalleriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_galleries_total",
			Help: "Number of galleries in the store",
		},
	)

	LibraryPicturesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_pictures_total",
			Help: "Number of pictures in the store",
		},
	)

	LibraryThumbnailsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_thumbnails_total",
			Help: "Number of thumbnail rows in the store",
		},
	)

	LibraryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_tags_total",
			Help: "Number of tags in the store",
		},
	)
)

// Maintenance metrics
var (
	MaintenanceRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_maintenance_runs_total",
			Help: "Total number of maintenance passes by status (success/locked/error)",
		},
		[]string{"status"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_memory_paused",
			Help: "Whether thumbnail work is paused on memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_memory_gc_pauses_total",
			Help: "Total number of times thumbnail work paused for memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after stale file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_library_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
