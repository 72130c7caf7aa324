package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Indexing    bool   `json:"indexing"`
	LastIndexed string `json:"lastIndexed,omitempty"`
	StoreError  string `json:"storeError,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`

	Galleries  int `json:"galleries"`
	Pictures   int `json:"pictures"`
	Thumbnails int `json:"thumbnails"`
}

// HealthCheck returns the health status of the service. A store that cannot
// be queried reports degraded with 503.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.Load()

	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Indexing:     h.indexer.IsIndexing(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if last := h.indexer.LastIndexTime(); !last.IsZero() {
		response.LastIndexed = last.Format(time.RFC3339)
	}

	status := http.StatusOK
	stats, err := h.stats.GetStats()
	switch {
	case err != nil:
		logging.Warn("Health check: store stats unavailable: %v", err)
		response.Status = statusDegraded
		response.StoreError = err.Error()
		status = http.StatusServiceUnavailable
	case ready:
		response.Status = statusHealthy
	default:
		response.Status = statusStarting
	}
	if err == nil {
		response.Galleries = stats.TotalGalleries
		response.Pictures = stats.TotalPictures
		response.Thumbnails = stats.TotalThumbnails
	}

	writeJSON(w, r, status, response)
}

// LivenessCheck returns 200 while the process is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck returns 200 once the first maintenance pass has finished.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready.Load() {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
