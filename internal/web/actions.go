package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/tracker"
)

// back redirects to the tab of kind, carrying an optional message.
func back(w http.ResponseWriter, r *http.Request, kind model.Kind, key, message string) {
	target := "/"
	if kind == model.KindShipped {
		target = "/shipped"
	}
	if message != "" {
		target += "?" + url.Values{key: {message}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail reports err on the page. Validation messages are shown as-is.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, kind model.Kind, err error, action string) {
	if errors.Is(err, tracker.ErrValidation) {
		back(w, r, kind, "error", err.Error())
		return
	}
	s.Log.Error().Err(err).Str("action", action).Msg("web action failed")
	back(w, r, kind, "error", "操作失败")
}

func formKind(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return kind, true
}

func formFields(r *http.Request) model.Fields {
	return model.Fields{
		Account:    r.FormValue("account"),
		Password:   r.FormValue("password"),
		InviteCode: r.FormValue("inviteCode"),
		UsageCount: r.FormValue("usageCount"),
		Remarks:    r.FormValue("remarks"),
	}
}

// GroupCreateSubmit handles POST /groups.
func (s *Server) GroupCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Tracker.AddGroup(r.Context()); err != nil {
		s.fail(w, r, model.KindInventory, err, "create group")
		return
	}
	back(w, r, model.KindInventory, "", "")
}

// GroupRenameSubmit handles POST /groups/{kind}/{id}/rename.
func (s *Server) GroupRenameSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := formKind(w, r)
	if !ok {
		return
	}
	if _, err := s.Tracker.RenameGroup(r.Context(), kind, r.PathValue("id"), r.FormValue("label")); err != nil {
		s.fail(w, r, kind, err, "rename group")
		return
	}
	back(w, r, kind, "", "")
}

// GroupToggleSubmit handles POST /groups/{kind}/{id}/toggle.
func (s *Server) GroupToggleSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := formKind(w, r)
	if !ok {
		return
	}
	if _, err := s.Tracker.ToggleExpand(r.Context(), kind, r.PathValue("id")); err != nil {
		s.fail(w, r, kind, err, "toggle group")
		return
	}
	back(w, r, kind, "", "")
}

// GroupDeleteSubmit handles POST /groups/{kind}/{id}/delete.
func (s *Server) GroupDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := formKind(w, r)
	if !ok {
		return
	}
	if _, err := s.Tracker.DeleteGroup(r.Context(), kind, r.PathValue("id")); err != nil {
		s.fail(w, r, kind, err, "delete group")
		return
	}
	back(w, r, kind, "", "")
}

// ItemCreateSubmit handles POST /groups/inventory/{id}/items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Tracker.AddItem(r.Context(), r.PathValue("id"), formFields(r)); err != nil {
		s.fail(w, r, model.KindInventory, err, "add item")
		return
	}
	back(w, r, model.KindInventory, "", "")
}

// ItemUpdateSubmit handles POST /items/{kind}/{itemID}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := formKind(w, r)
	if !ok {
		return
	}
	if _, err := s.Tracker.EditItem(r.Context(), kind, r.PathValue("itemID"), formFields(r)); err != nil {
		s.fail(w, r, kind, err, "edit item")
		return
	}
	back(w, r, kind, "", "")
}

// ItemDeleteSubmit handles POST /groups/{kind}/{id}/items/{itemID}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := formKind(w, r)
	if !ok {
		return
	}
	if _, err := s.Tracker.DeleteItem(r.Context(), kind, r.PathValue("id"), r.PathValue("itemID")); err != nil {
		s.fail(w, r, kind, err, "delete item")
		return
	}
	back(w, r, kind, "", "")
}

// ItemShipSubmit handles POST /groups/inventory/{id}/items/{itemID}/ship.
func (s *Server) ItemShipSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Tracker.Ship(r.Context(), r.PathValue("id"), r.PathValue("itemID")); err != nil {
		s.fail(w, r, model.KindInventory, err, "ship item")
		return
	}
	back(w, r, model.KindInventory, "", "")
}

// ItemReturnSubmit handles POST /groups/shipped/{id}/items/{itemID}/return.
func (s *Server) ItemReturnSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Tracker.Return(r.Context(), r.PathValue("id"), r.PathValue("itemID")); err != nil {
		s.fail(w, r, model.KindShipped, err, "return item")
		return
	}
	back(w, r, model.KindShipped, "", "")
}

// DefaultRemarkSubmit handles POST /settings/default-remark.
func (s *Server) DefaultRemarkSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.Tracker.SetDefaultRemark(r.Context(), r.FormValue("remark")); err != nil {
		s.fail(w, r, model.KindInventory, err, "set default remark")
		return
	}
	back(w, r, model.KindInventory, "ok", "默认备注已保存")
}
