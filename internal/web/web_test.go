package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/db"
	"github.com/erazemk/nexus/internal/imaging"
	"github.com/erazemk/nexus/internal/offline"
	"github.com/erazemk/nexus/internal/store"
	"github.com/erazemk/nexus/internal/tracker"
)

func setupWeb(t *testing.T) (http.Handler, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New(db.NewTestDB(t), store.NewBroker(), zerolog.Nop(), time.UTC)
	tr.Now = func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) }

	icons, err := imaging.Set(imaging.Default())
	if err != nil {
		t.Fatalf("rendering icons: %v", err)
	}
	h, err := NewRouter(tr, icons, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return h, tr
}

func serve(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInventoryPageFlow(t *testing.T) {
	h, tr := setupWeb(t)
	ctx := context.Background()

	rec := serve(h, "GET", "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "还没有库存分组") {
		t.Error("expected empty inventory message")
	}

	rec = serve(h, "POST", "/groups", url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	s, _ := tr.State(ctx)
	if len(s.Inventory) != 1 {
		t.Fatalf("expected 1 group, got %d", len(s.Inventory))
	}
	gid := s.Inventory[0].ID

	rec = serve(h, "POST", "/groups/inventory/"+gid+"/items", url.Values{
		"account": {"10000001"},
		"remarks": {"备注"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	rec = serve(h, "GET", "/", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "1月5日") || !strings.Contains(body, "10000001") {
		t.Errorf("page missing group or item:\n%s", body)
	}
	if !strings.Contains(body, "10000001@qq.com") {
		t.Error("page missing clipboard block")
	}

	s, _ = tr.State(ctx)
	itemID := s.Inventory[0].Items[0].ID

	rec = serve(h, "POST", "/groups/inventory/"+gid+"/items/"+itemID+"/ship", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	rec = serve(h, "GET", "/shipped", nil)
	if !strings.Contains(rec.Body.String(), "10000001") {
		t.Error("shipped page missing item")
	}
}

func TestItemValidationError(t *testing.T) {
	h, tr := setupWeb(t)
	serve(h, "POST", "/groups", url.Values{})
	s, _ := tr.State(context.Background())

	rec := serve(h, "POST", "/groups/inventory/"+s.Inventory[0].ID+"/items", url.Values{"account": {""}})
	loc := rec.Header().Get("Location")
	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(loc, "/?error=") {
		t.Fatalf("expected redirect with error, got %d %q", rec.Code, loc)
	}

	rec = serve(h, "GET", loc, nil)
	if !strings.Contains(rec.Body.String(), "account is required") {
		t.Error("expected validation message on page")
	}
}

func TestUnknownKindRejected(t *testing.T) {
	h, _ := setupWeb(t)
	rec := serve(h, "POST", "/groups/archive/x/toggle", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestShellAssets(t *testing.T) {
	h, _ := setupWeb(t)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/manifest.webmanifest", http.StatusOK, "application/manifest+json"},
		{"/offline.html", http.StatusOK, "text/html; charset=utf-8"},
		{"/icons/icon-192.png", http.StatusOK, "image/png"},
		{"/icons/icon-512.png", http.StatusOK, "image/png"},
		{"/icons/icon-64.png", http.StatusNotFound, ""},
		{"/icons/favicon.ico", http.StatusNotFound, ""},
		{"/static/app.css", http.StatusOK, "text/css; charset=utf-8"},
	}

	for _, tt := range tests {
		rec := serve(h, "GET", tt.path, nil)
		if rec.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.status, rec.Code)
			continue
		}
		if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.contentType, rec.Header().Get("Content-Type"))
		}
	}
}

func TestPrecacheListIsServable(t *testing.T) {
	h, tr := setupWeb(t)

	c := offline.New(tr.DB, "test", offline.HandlerFetcher{Handler: h}, zerolog.Nop())
	c.Precache = PrecacheURLs(imaging.Sizes)

	n, err := c.Install(context.Background())
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if n != len(c.Precache) {
		t.Errorf("cached %d of %d shell resources", n, len(c.Precache))
	}
}
