package filesystem

// Observer receives timings and ESTALE retry events from the OS
// implementation. The metrics package supplies the Prometheus-backed one;
// filesystem cannot import metrics directly.
type Observer interface {
	// ObserveOperation records one completed call. volume is the label from
	// the VolumeResolver ("library", "cache", "database" or "unknown") and
	// operation one of "stat", "read", "write", "readdir".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// The retry hooks take the retry operation name ("stat", "open",
	// "readdir", "write") before the volume.
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is nil until main installs one; tests run without it.
var defaultObserver Observer

// SetObserver installs the observer used by every OS filesystem.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
