package api

import (
	"net/http"

	"github.com/erazemk/nexus/internal/tracker"
)

// GroupsHandler handles group endpoints and the full state read.
type GroupsHandler struct {
	Tracker *tracker.Tracker
}

type renameGroupRequest struct {
	Label string `json:"label"`
}

// State handles GET /api/state.
func (h *GroupsHandler) State(w http.ResponseWriter, r *http.Request) {
	s, err := h.Tracker.State(r.Context())
	if err != nil {
		trackerError(w, r, err, "failed to load state")
		return
	}
	jsonResponse(w, r, http.StatusOK, s)
}

// Create handles POST /api/groups.
func (h *GroupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	res, err := h.Tracker.AddGroup(r.Context())
	if err != nil {
		trackerError(w, r, err, "failed to create group")
		return
	}
	writeResult(w, r, res, true)
}

// Rename handles PUT /api/groups/{kind}/{id}.
func (h *GroupsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var req renameGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Tracker.RenameGroup(r.Context(), kind, r.PathValue("id"), req.Label)
	if err != nil {
		trackerError(w, r, err, "failed to rename group")
		return
	}
	writeResult(w, r, res, false)
}

// Toggle handles POST /api/groups/{kind}/{id}/toggle.
func (h *GroupsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	res, err := h.Tracker.ToggleExpand(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		trackerError(w, r, err, "failed to toggle group")
		return
	}
	writeResult(w, r, res, false)
}

// Delete handles DELETE /api/groups/{kind}/{id}.
func (h *GroupsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	res, err := h.Tracker.DeleteGroup(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		trackerError(w, r, err, "failed to delete group")
		return
	}
	writeResult(w, r, res, false)
}
