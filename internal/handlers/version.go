package handlers

import (
	"net/http"

	"photo-library/internal/startup"
)

// GetVersion reports the photo-library build: version, commit, build time
// and Go version.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, startup.GetBuildInfo())
}
