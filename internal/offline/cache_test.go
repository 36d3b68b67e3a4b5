package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/nexus/internal/db"
	"github.com/erazemk/nexus/internal/store"
)

// origin is a stand-in web shell whose responses can change between requests.
type origin struct {
	mu    sync.Mutex
	pages map[string]string
	hits  atomic.Int64
	posts atomic.Int64
}

func newOrigin() *origin {
	return &origin{pages: map[string]string{
		"/":             "<html>home v1</html>",
		"/offline.html": "<html>offline</html>",
		"/static/a.css": "body{color:red}",
	}}
}

func (o *origin) set(path, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages[path] = body
}

func (o *origin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.hits.Add(1)
	if r.Method == http.MethodPost {
		o.posts.Add(1)
		w.WriteHeader(http.StatusCreated)
		return
	}

	o.mu.Lock()
	body, ok := o.pages[r.URL.Path]
	o.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/static/a.css" {
		w.Header().Set("Content-Type", "text/css")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	io.WriteString(w, body)
}

// switchable fails every fetch while down is set.
type switchable struct {
	inner Fetcher
	down  atomic.Bool
}

func (s *switchable) Fetch(ctx context.Context, url string, h http.Header) (*Response, error) {
	if s.down.Load() {
		return nil, errors.New("network unreachable")
	}
	return s.inner.Fetch(ctx, url, h)
}

func newTestCache(t *testing.T, o *origin) (*Cache, *switchable, http.Handler) {
	t.Helper()
	net := &switchable{inner: HandlerFetcher{Handler: o}}
	c := New(db.NewTestDB(t), "v2", net, zerolog.Nop())
	c.OfflinePage = "/offline.html"
	c.Precache = []string{"/", "/offline.html", "/static/a.css", "/missing"}
	t.Cleanup(c.Wait)
	return c, net, c.Handler(o)
}

func get(h http.Handler, path string, navigate bool, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if navigate {
		req.Header.Set("Sec-Fetch-Mode", "navigate")
	} else {
		req.Header.Set("Sec-Fetch-Mode", "no-cors")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInstallAndActivate(t *testing.T) {
	o := newOrigin()
	c, _, _ := newTestCache(t, o)
	ctx := context.Background()

	stale := New(c.DB, "v1", c.Fetcher, zerolog.Nop())
	stale.Precache = []string{"/"}
	_, err := stale.Install(ctx)
	require.NoError(t, err)

	n, err := c.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "404 is skipped")

	urls, err := store.ListAssetURLs(ctx, c.DB, "v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/offline.html", "/static/a.css"}, urls)

	require.NoError(t, c.Activate(ctx))

	old, err := store.ListAssetURLs(ctx, c.DB, "v1")
	require.NoError(t, err)
	assert.Empty(t, old, "other versions are purged")

	version, ok, err := store.GetSetting(ctx, c.DB, store.SettingCacheVersion)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", version)
}

func TestInstallSkipsNetworkFailures(t *testing.T) {
	c, net, _ := newTestCache(t, newOrigin())
	net.down.Store(true)

	n, err := c.Install(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAssetStaleWhileRevalidate(t *testing.T) {
	o := newOrigin()
	c, _, h := newTestCache(t, o)

	rec := get(h, "/static/a.css", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get(CacheHeader))
	assert.Equal(t, "body{color:red}", rec.Body.String())
	assert.Equal(t, ETag([]byte("body{color:red}")), rec.Header().Get("ETag"))

	o.set("/static/a.css", "body{color:blue}")

	rec = get(h, "/static/a.css", false)
	assert.Equal(t, "hit", rec.Header().Get(CacheHeader))
	assert.Equal(t, "body{color:red}", rec.Body.String(), "stale copy served first")
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))

	c.Wait()

	rec = get(h, "/static/a.css", false)
	assert.Equal(t, "body{color:blue}", rec.Body.String(), "background refresh updated the cache")
}

func TestAssetOnlyCaches200(t *testing.T) {
	o := newOrigin()
	c, _, h := newTestCache(t, o)

	rec := get(h, "/nope.js", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a, err := store.GetAsset(context.Background(), c.DB, "v2", "/nope.js")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAssetMissWhileOffline(t *testing.T) {
	_, net, h := newTestCache(t, newOrigin())
	net.down.Store(true)

	rec := get(h, "/static/a.css", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestConditionalHit(t *testing.T) {
	_, _, h := newTestCache(t, newOrigin())

	first := get(h, "/static/a.css", false)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec := get(h, "/static/a.css", false, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = get(h, "/static/a.css", false, "If-None-Match", `"other"`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNavigationNetworkFirst(t *testing.T) {
	o := newOrigin()
	c, net, h := newTestCache(t, o)
	ctx := context.Background()

	rec := get(h, "/", true)
	assert.Equal(t, "network", rec.Header().Get(CacheHeader))
	assert.Equal(t, "<html>home v1</html>", rec.Body.String())

	o.set("/", "<html>home v2</html>")
	rec = get(h, "/", true)
	assert.Equal(t, "<html>home v2</html>", rec.Body.String(), "navigations never serve stale while online")

	net.down.Store(true)

	rec = get(h, "/", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get(CacheHeader))
	assert.Equal(t, "<html>home v2</html>", rec.Body.String())

	// An uncached page falls back to the root until the offline page is cached.
	rec = get(h, "/groups", true)
	assert.Equal(t, "fallback", rec.Header().Get(CacheHeader))
	assert.Equal(t, "<html>home v2</html>", rec.Body.String())

	net.down.Store(false)
	_, err := c.Install(ctx)
	require.NoError(t, err)
	net.down.Store(true)

	rec = get(h, "/groups", true)
	assert.Equal(t, "fallback", rec.Header().Get(CacheHeader))
	assert.Equal(t, "<html>offline</html>", rec.Body.String())
}

func TestNavigationOfflineEmptyCache(t *testing.T) {
	_, net, h := newTestCache(t, newOrigin())
	net.down.Store(true)

	rec := get(h, "/", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNavigationDetectedFromAccept(t *testing.T) {
	_, _, h := newTestCache(t, newOrigin())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "network", rec.Header().Get(CacheHeader))
}

func TestNonGetPassesThrough(t *testing.T) {
	o := newOrigin()
	c, _, h := newTestCache(t, o)

	req := httptest.NewRequest(http.MethodPost, "/api/groups", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), o.posts.Load())

	urls, err := store.ListAssetURLs(context.Background(), c.DB, "v2")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(newOrigin())
	defer srv.Close()

	f := HTTPFetcher{Client: srv.Client(), Origin: srv.URL + "/"}

	resp, err := f.Fetch(context.Background(), "/static/a.css", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "body{color:red}", string(resp.Body))

	resp, err = f.Fetch(context.Background(), srv.URL+"/offline.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<html>offline</html>", string(resp.Body))

	srv.Close()
	_, err = f.Fetch(context.Background(), "/", nil)
	assert.Error(t, err)
}

func TestOversizedBodiesAreNotCached(t *testing.T) {
	o := newOrigin()
	o.set("/static/big.js", strings.Repeat("x", 64))
	o.set("/static/edge.js", strings.Repeat("y", 32))

	c := New(db.NewTestDB(t), "v2", HandlerFetcher{Handler: o, MaxBody: 32}, zerolog.Nop())
	c.Precache = []string{"/static/a.css", "/static/big.js", "/static/edge.js"}
	t.Cleanup(c.Wait)
	ctx := context.Background()

	n, err := c.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "body over the limit is skipped")

	urls, err := store.ListAssetURLs(ctx, c.DB, "v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"/static/a.css", "/static/edge.js"}, urls)

	h := c.Handler(o)
	rec := get(h, "/static/big.js", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bypass", rec.Header().Get(CacheHeader))
	assert.Len(t, rec.Body.String(), 64, "served whole, not truncated")

	a, err := store.GetAsset(ctx, c.DB, "v2", "/static/big.js")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestHTTPFetcherRejectsOversizedBody(t *testing.T) {
	o := newOrigin()
	o.set("/static/big.js", strings.Repeat("x", 33))
	o.set("/static/edge.js", strings.Repeat("y", 32))
	srv := httptest.NewServer(o)
	defer srv.Close()

	f := HTTPFetcher{Client: srv.Client(), Origin: srv.URL, MaxBody: 32}

	_, err := f.Fetch(context.Background(), "/static/big.js", nil)
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	resp, err := f.Fetch(context.Background(), "/static/edge.js", nil)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 32)
}

func TestNavigationWithQueryIsNotStored(t *testing.T) {
	c, net, h := newTestCache(t, newOrigin())
	ctx := context.Background()

	get(h, "/", true)
	rec := get(h, "/?ok=saved", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "network", rec.Header().Get(CacheHeader))

	urls, err := store.ListAssetURLs(ctx, c.DB, "v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, urls)

	net.down.Store(true)
	rec = get(h, "/?error=x", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Header().Get(CacheHeader))
	assert.Equal(t, "<html>home v1</html>", rec.Body.String())
}
