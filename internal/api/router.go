package api

import (
	"net/http"

	"github.com/erazemk/nexus/internal/tracker"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(t *tracker.Tracker) http.Handler {
	mux := http.NewServeMux()

	groups := &GroupsHandler{Tracker: t}
	items := &ItemsHandler{Tracker: t}
	settings := &SettingsHandler{Tracker: t}
	dump := &DumpHandler{Tracker: t}
	events := &EventsHandler{Broker: t.Broker}

	mux.HandleFunc("GET /api/state", groups.State)

	// Groups.
	mux.HandleFunc("POST /api/groups", groups.Create)
	mux.HandleFunc("PUT /api/groups/{kind}/{id}", groups.Rename)
	mux.HandleFunc("POST /api/groups/{kind}/{id}/toggle", groups.Toggle)
	mux.HandleFunc("DELETE /api/groups/{kind}/{id}", groups.Delete)

	// Items inside a group.
	mux.HandleFunc("POST /api/groups/inventory/{id}/items", items.Create)
	mux.HandleFunc("DELETE /api/groups/{kind}/{id}/items/{itemID}", items.Delete)
	mux.HandleFunc("POST /api/groups/inventory/{id}/items/{itemID}/ship", items.Ship)
	mux.HandleFunc("POST /api/groups/shipped/{id}/items/{itemID}/return", items.Return)

	// Items by id within a collection.
	mux.HandleFunc("PUT /api/items/{kind}/{itemID}", items.Update)
	mux.HandleFunc("GET /api/items/{kind}/{itemID}/clipboard", items.Clipboard)

	mux.HandleFunc("GET /api/settings/default-remark", settings.GetDefaultRemark)
	mux.HandleFunc("PUT /api/settings/default-remark", settings.SetDefaultRemark)

	mux.HandleFunc("GET /api/export", dump.Export)
	mux.HandleFunc("POST /api/import", dump.Import)

	mux.HandleFunc("GET /api/events", events.Stream)

	return mux
}
