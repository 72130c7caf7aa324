package handlers

import (
	"encoding/json"
	"net/http"

	"photo-library/internal/logging"
)

// writeJSON writes v as an uncached JSON response with the given status.
// HEAD requests get the headers only.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Ops endpoint %s: failed to encode response: %v", r.URL.Path, err)
	}
}
