package web

import (
	"net/http"

	"github.com/erazemk/nexus/internal/model"
)

type indexData struct {
	PageData
	Groups        model.Groups
	DefaultRemark string
	ItemCount     int
}

// InventoryPage handles GET /.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, model.KindInventory, "库存")
}

// ShippedPage handles GET /shipped.
func (s *Server) ShippedPage(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, model.KindShipped, "已发货")
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, kind model.Kind, title string) {
	state, err := s.Tracker.State(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("failed to load state")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	groups := state.Inventory
	if kind == model.KindShipped {
		groups = state.Shipped
	}

	s.Templates.Render(w, r, "index.html", &indexData{
		PageData: PageData{
			Title:   title,
			Tab:     kind,
			Error:   r.URL.Query().Get("error"),
			Success: r.URL.Query().Get("ok"),
		},
		Groups:        groups,
		DefaultRemark: state.DefaultRemark,
		ItemCount:     groups.ItemCount(),
	})
}
