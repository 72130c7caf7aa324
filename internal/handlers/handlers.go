package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"photo-library/internal/metrics"
)

// StatsProvider reports library totals.
type StatsProvider interface {
	GetStats() (metrics.Stats, error)
}

// IndexStatus reports scanner activity.
type IndexStatus interface {
	IsIndexing() bool
	LastIndexTime() time.Time
}

// Handlers serves the operational endpoints of the maintenance process.
type Handlers struct {
	stats     StatsProvider
	indexer   IndexStatus
	startTime time.Time
	ready     atomic.Bool
}

func New(stats StatsProvider, idx IndexStatus) *Handlers {
	return &Handlers{
		stats:     stats,
		indexer:   idx,
		startTime: time.Now(),
	}
}

// SetReady marks the first maintenance pass as finished.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Router returns the routes served on the metrics port.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)

	return r
}
