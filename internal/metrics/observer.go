package metrics

import "photo-library/internal/filesystem"

// libraryFSObserver feeds the photo_library_filesystem_* series from the
// walker, the content hasher and the thumbnail writer.
type libraryFSObserver struct{}

// NewFilesystemObserver returns the observer main passes to
// filesystem.SetObserver.
func NewFilesystemObserver() filesystem.Observer {
	return libraryFSObserver{}
}

func (libraryFSObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (libraryFSObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (libraryFSObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (libraryFSObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (libraryFSObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}
