package handlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-library/internal/logging"
)

// MetricsHandler serves the photo_library_* series and the Go runtime
// collectors from the default registry. A collector that fails to gather is
// logged and the remaining series are still served.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      gatherLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// gatherLogger routes promhttp errors to the application log.
type gatherLogger struct{}

func (gatherLogger) Println(v ...any) {
	logging.Error("Metrics gather: %s", fmt.Sprint(v...))
}
