package api

import (
	"net/http"

	"github.com/erazemk/nexus/internal/tracker"
)

// SettingsHandler handles the global default remark.
type SettingsHandler struct {
	Tracker *tracker.Tracker
}

type defaultRemarkBody struct {
	Remark string `json:"remark"`
}

// GetDefaultRemark handles GET /api/settings/default-remark.
func (h *SettingsHandler) GetDefaultRemark(w http.ResponseWriter, r *http.Request) {
	remark, err := h.Tracker.DefaultRemark(r.Context())
	if err != nil {
		trackerError(w, r, err, "failed to load default remark")
		return
	}
	jsonResponse(w, r, http.StatusOK, defaultRemarkBody{Remark: remark})
}

// SetDefaultRemark handles PUT /api/settings/default-remark.
func (h *SettingsHandler) SetDefaultRemark(w http.ResponseWriter, r *http.Request) {
	var req defaultRemarkBody
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Tracker.SetDefaultRemark(r.Context(), req.Remark); err != nil {
		trackerError(w, r, err, "failed to save default remark")
		return
	}
	jsonResponse(w, r, http.StatusOK, req)
}
