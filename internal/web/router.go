package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/tracker"
	webembed "github.com/erazemk/nexus/web"
)

// OfflinePage is served to navigations that fail while offline.
const OfflinePage = "/offline.html"

// PrecacheURLs is the fixed set of shell resources cached on install.
func PrecacheURLs(iconSizes []int) []string {
	urls := []string{
		"/",
		"/shipped",
		OfflinePage,
		"/static/app.css",
		"/manifest.webmanifest",
	}
	for _, size := range iconSizes {
		urls = append(urls, fmt.Sprintf("/icons/icon-%d.png", size))
	}
	return urls
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(t *tracker.Tracker, icons map[int][]byte, log zerolog.Logger) (http.Handler, error) {
	templates, err := LoadTemplates(t.Location)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Tracker:   t,
		Templates: templates,
		Icons:     icons,
		Log:       log,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /offline.html", s.staticFile("offline.html", "text/html; charset=utf-8"))
	mux.HandleFunc("GET /manifest.webmanifest", s.staticFile("manifest.webmanifest", "application/manifest+json"))
	mux.HandleFunc("GET /icons/{name}", s.Icon)

	// Pages.
	mux.HandleFunc("GET /{$}", s.InventoryPage)
	mux.HandleFunc("GET /shipped", s.ShippedPage)

	// Form actions.
	mux.HandleFunc("POST /groups", s.GroupCreateSubmit)
	mux.HandleFunc("POST /groups/{kind}/{id}/rename", s.GroupRenameSubmit)
	mux.HandleFunc("POST /groups/{kind}/{id}/toggle", s.GroupToggleSubmit)
	mux.HandleFunc("POST /groups/{kind}/{id}/delete", s.GroupDeleteSubmit)
	mux.HandleFunc("POST /groups/inventory/{id}/items", s.ItemCreateSubmit)
	mux.HandleFunc("POST /items/{kind}/{itemID}", s.ItemUpdateSubmit)
	mux.HandleFunc("POST /groups/{kind}/{id}/items/{itemID}/delete", s.ItemDeleteSubmit)
	mux.HandleFunc("POST /groups/inventory/{id}/items/{itemID}/ship", s.ItemShipSubmit)
	mux.HandleFunc("POST /groups/shipped/{id}/items/{itemID}/return", s.ItemReturnSubmit)
	mux.HandleFunc("POST /settings/default-remark", s.DefaultRemarkSubmit)

	return mux, nil
}

// staticFile serves one embedded file with a fixed content type.
func (s *Server) staticFile(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := webembed.ReadStatic(name)
		if err != nil {
			s.Log.Error().Err(err).Str("file", name).Msg("failed to read static file")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	}
}

// Icon handles GET /icons/icon-{size}.png.
func (s *Server) Icon(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	sizeStr, ok := strings.CutPrefix(name, "icon-")
	if ok {
		sizeStr, ok = strings.CutSuffix(sizeStr, ".png")
	}
	size, err := strconv.Atoi(sizeStr)
	if !ok || err != nil {
		http.NotFound(w, r)
		return
	}

	data, ok := s.Icons[size]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
