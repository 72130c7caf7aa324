package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInitializeMetricsDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, InitializeMetrics)
	assert.NotPanics(t, InitializeMetrics)
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")
	assert.Equal(t, 1.0, testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")))
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	errorsBefore := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("library", "stat"))
	obs.ObserveOperation("library", "stat", 0.01, nil)
	obs.ObserveOperation("library", "stat", 0.01, errors.New("boom"))
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("library", "stat")))

	attemptsBefore := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("open", "cache"))
	obs.ObserveRetryAttempt("open", "cache")
	assert.Equal(t, attemptsBefore+1, testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("open", "cache")))

	successBefore := testutil.ToFloat64(FilesystemRetrySuccess.WithLabelValues("open", "cache"))
	obs.ObserveRetrySuccess("open", "cache")
	assert.Equal(t, successBefore+1, testutil.ToFloat64(FilesystemRetrySuccess.WithLabelValues("open", "cache")))

	failureBefore := testutil.ToFloat64(FilesystemRetryFailures.WithLabelValues("open", "cache"))
	obs.ObserveRetryFailure("open", "cache")
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(FilesystemRetryFailures.WithLabelValues("open", "cache")))

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "cache"))
	obs.ObserveStaleError("open", "cache")
	assert.Equal(t, staleBefore+1, testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "cache")))
}
