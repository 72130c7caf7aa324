package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	volumes := []string{"library", "cache", "database", "unknown"}
	fsOps := []string{"read", "write", "stat", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
	}

	retryOps := []string{"stat", "open", "readdir", "write"}
	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	for _, mode := range []string{"flat", "recursive"} {
		IndexerRunsTotal.WithLabelValues(mode)
	}

	for _, outcome := range []string{"added", "updated", "unchanged", "skipped", "failed"} {
		IndexerFilesProcessed.WithLabelValues(outcome)
	}

	for _, kind := range []string{"io", "format", "store"} {
		IndexerErrors.WithLabelValues(kind)
	}

	for _, entity := range []string{"gallery", "picture"} {
		SweeperDeletedTotal.WithLabelValues(entity)
	}

	for _, status := range []string{"success", "error_decode", "error_io", "error_store"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, phase := range []string{"decode", "resize", "encode", "write", "store"} {
		ThumbnailGenerationDuration.WithLabelValues(phase)
	}

	for _, result := range []string{"generated", "fresh", "failed", "panicked"} {
		ThumbnailWarmerTasks.WithLabelValues(result)
	}

	for _, status := range []string{"success", "locked", "error"} {
		MaintenanceRunsTotal.WithLabelValues(status)
	}

	for _, op := range []string{
		"insert_gallery", "update_gallery", "delete_gallery", "gallery_by_id", "gallery_by_directory",
		"gallery_by_name_and_directory", "galleries_by_name", "galleries_by_parent", "top_level_galleries", "all_galleries",
		"insert_picture", "update_picture", "delete_picture", "picture_by_id", "picture_by_path",
		"pictures_by_gallery", "cover_picture", "all_pictures", "thumbnail_by_picture", "upsert_thumbnail",
		"delete_thumbnail", "all_thumbnails", "insert_tag", "tag_by_name", "all_tags",
		"tag_picture", "picture_tags", "stats", "vacuum",
	} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
