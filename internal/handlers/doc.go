// Package handlers serves the operational HTTP endpoints of the maintenance
// process on the metrics port:
//
//   - /healthz: health summary with library totals
//   - /livez: liveness probe
//   - /readyz: ready once the first maintenance pass has finished
//   - /version: build information
//   - /metrics: Prometheus metrics
package handlers
