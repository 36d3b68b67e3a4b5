package api

import (
	"io"
	"net/http"

	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/tracker"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Tracker *tracker.Tracker
}

// Create handles POST /api/groups/inventory/{id}/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields model.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Tracker.AddItem(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		trackerError(w, r, err, "failed to add item")
		return
	}
	writeResult(w, r, res, true)
}

// Update handles PUT /api/items/{kind}/{itemID}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var fields model.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Tracker.EditItem(r.Context(), kind, r.PathValue("itemID"), fields)
	if err != nil {
		trackerError(w, r, err, "failed to update item")
		return
	}
	writeResult(w, r, res, false)
}

// Delete handles DELETE /api/groups/{kind}/{id}/items/{itemID}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	res, err := h.Tracker.DeleteItem(r.Context(), kind, r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		trackerError(w, r, err, "failed to delete item")
		return
	}
	writeResult(w, r, res, false)
}

// Ship handles POST /api/groups/inventory/{id}/items/{itemID}/ship.
func (h *ItemsHandler) Ship(w http.ResponseWriter, r *http.Request) {
	res, err := h.Tracker.Ship(r.Context(), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		trackerError(w, r, err, "failed to ship item")
		return
	}
	writeResult(w, r, res, false)
}

// Return handles POST /api/groups/shipped/{id}/items/{itemID}/return.
func (h *ItemsHandler) Return(w http.ResponseWriter, r *http.Request) {
	res, err := h.Tracker.Return(r.Context(), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		trackerError(w, r, err, "failed to return item")
		return
	}
	writeResult(w, r, res, false)
}

// Clipboard handles GET /api/items/{kind}/{itemID}/clipboard.
func (h *ItemsHandler) Clipboard(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	text, found, err := h.Tracker.Clipboard(r.Context(), kind, r.PathValue("itemID"))
	if err != nil {
		trackerError(w, r, err, "failed to read item")
		return
	}
	if !found {
		jsonError(w, r, http.StatusNotFound, "item not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}
