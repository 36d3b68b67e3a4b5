package api

import (
	"bytes"
	"net/http"

	"github.com/erazemk/nexus/internal/tracker"
)

// DumpHandler moves whole state in and out in the browser's local-storage
// layout.
type DumpHandler struct {
	Tracker *tracker.Tracker
}

// Export handles GET /api/export.
func (h *DumpHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Tracker.Export(r.Context(), &buf); err != nil {
		trackerError(w, r, err, "failed to export state")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="nexus-export.json"`)
	w.Write(buf.Bytes())
}

// Import handles POST /api/import.
func (h *DumpHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	defer r.Body.Close()

	s, err := tracker.DecodeDump(r.Body)
	if err != nil {
		trackerError(w, r, err, "failed to read import")
		return
	}
	if err := h.Tracker.Import(r.Context(), s); err != nil {
		trackerError(w, r, err, "failed to import state")
		return
	}

	current, err := h.Tracker.State(r.Context())
	if err != nil {
		trackerError(w, r, err, "failed to load state")
		return
	}
	writeResult(w, r, tracker.Result{State: current, Changed: true}, false)
}
