// Package offline is a versioned cache of the web shell's static resources.
// It precaches a fixed list on install, drops other versions on activate,
// serves navigations network-first with an offline fallback and serves
// everything else stale-while-revalidate.
package offline

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/store"
)

// CacheHeader reports how a response was produced: hit, miss, network,
// fallback, or bypass for responses too large to cache.
const CacheHeader = "X-Nexus-Cache"

// Cache serves GET requests from the asset_cache table.
type Cache struct {
	DB      *sql.DB
	Version string
	Fetcher Fetcher
	Log     zerolog.Logger

	// Precache is fetched by Install.
	Precache []string
	// OfflinePage is served to failed navigations with no cached copy.
	OfflinePage string

	// RefreshTimeout bounds background revalidation.
	RefreshTimeout time.Duration
	// InstallConcurrency bounds parallel fetches during Install.
	InstallConcurrency int

	Now func() time.Time

	wg       sync.WaitGroup
	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a cache for version backed by db.
func New(db *sql.DB, version string, fetcher Fetcher, log zerolog.Logger) *Cache {
	return &Cache{
		DB:                 db,
		Version:            version,
		Fetcher:            fetcher,
		Log:                log.With().Str("cache", version).Logger(),
		RefreshTimeout:     30 * time.Second,
		InstallConcurrency: 4,
		Now:                time.Now,
		inflight:           make(map[string]bool),
	}
}

// Install fetches every precache url and stores the 200 responses. Fetch
// failures are logged and skipped; storage failures abort. It returns the
// number of entries cached.
func (c *Cache) Install(ctx context.Context) (int, error) {
	var cached atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	if c.InstallConcurrency > 0 {
		g.SetLimit(c.InstallConcurrency)
	}

	for _, url := range c.Precache {
		g.Go(func() error {
			resp, err := c.Fetcher.Fetch(ctx, url, nil)
			if err != nil {
				c.Log.Warn().Err(err).Str("url", url).Msg("failed to precache")
				return nil
			}
			if resp.Status != http.StatusOK {
				c.Log.Warn().Int("status", resp.Status).Str("url", url).Msg("failed to precache")
				return nil
			}
			if _, err := c.put(ctx, url, resp); err != nil {
				return err
			}
			cached.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(cached.Load()), fmt.Errorf("installing %s: %w", c.Version, err)
	}
	c.Log.Info().Int64("cached", cached.Load()).Int("requested", len(c.Precache)).Msg("offline cache installed")
	return int(cached.Load()), nil
}

// Activate deletes entries of every other version and records this one as
// active.
func (c *Cache) Activate(ctx context.Context) error {
	previous, _, err := store.GetSetting(ctx, c.DB, store.SettingCacheVersion)
	if err != nil {
		return err
	}

	purged, err := store.PurgeAssetsExcept(ctx, c.DB, c.Version)
	if err != nil {
		return err
	}
	if err := store.SetSetting(ctx, c.DB, store.SettingCacheVersion, c.Version); err != nil {
		return err
	}

	c.Log.Info().Str("previous", previous).Int64("purged", purged).Msg("offline cache activated")
	return nil
}

// Wait blocks until background refreshes finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Handler wraps next. GET requests go through the cache with next's
// response as the network; everything else goes straight to next.
func (c *Cache) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()
		if isNavigation(r) {
			c.serveNavigation(w, r, next, key)
			return
		}
		c.serveAsset(w, r, next, key)
	})
}

func isNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// serveNavigation tries the network first and falls back to the cached page,
// the offline page and finally the cached root. Pages with a query string
// (flash messages) are served but not stored; offline they fall back to the
// cached copy of their path.
func (c *Cache) serveNavigation(w http.ResponseWriter, r *http.Request, next http.Handler, key string) {
	resp, err := c.Fetcher.Fetch(r.Context(), key, upstreamHeader(r))
	if errors.Is(err, ErrBodyTooLarge) {
		bypass(w, r, next)
		return
	}
	if err == nil && resp.Status < http.StatusInternalServerError {
		etag := ""
		if resp.Status == http.StatusOK && r.URL.RawQuery == "" {
			etag, err = c.put(r.Context(), key, resp)
			if err != nil {
				c.Log.Error().Err(err).Str("url", key).Msg("failed to cache page")
			}
		}
		writeFresh(w, r, resp, etag)
		return
	}

	if err != nil {
		c.Log.Warn().Err(err).Str("url", key).Msg("navigation failed, trying cache")
	} else {
		c.Log.Warn().Int("status", resp.Status).Str("url", key).Msg("navigation failed, trying cache")
	}

	seen := make(map[string]bool)
	for i, candidate := range []string{key, r.URL.Path, c.OfflinePage, "/"} {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		a, err := store.GetAsset(r.Context(), c.DB, c.Version, candidate)
		if err != nil {
			c.Log.Error().Err(err).Str("url", candidate).Msg("failed to read cache")
			continue
		}
		if a != nil {
			state := "hit"
			if i > 0 {
				state = "fallback"
			}
			writeCached(w, r, a, state)
			return
		}
	}

	http.Error(w, "offline and not cached", http.StatusServiceUnavailable)
}

// serveAsset answers from the cache and refreshes in the background, or
// waits for the network on a miss.
func (c *Cache) serveAsset(w http.ResponseWriter, r *http.Request, next http.Handler, key string) {
	a, err := store.GetAsset(r.Context(), c.DB, c.Version, key)
	if err != nil {
		c.Log.Error().Err(err).Str("url", key).Msg("failed to read cache")
	}
	if a != nil {
		writeCached(w, r, a, "hit")
		c.refresh(key, upstreamHeader(r))
		return
	}

	resp, err := c.Fetcher.Fetch(r.Context(), key, upstreamHeader(r))
	if errors.Is(err, ErrBodyTooLarge) {
		bypass(w, r, next)
		return
	}
	if err != nil {
		c.Log.Warn().Err(err).Str("url", key).Msg("asset fetch failed")
		http.Error(w, "offline and not cached", http.StatusServiceUnavailable)
		return
	}

	etag := ""
	if resp.Status == http.StatusOK {
		etag, err = c.put(r.Context(), key, resp)
		if err != nil {
			c.Log.Error().Err(err).Str("url", key).Msg("failed to cache asset")
		}
	}
	w.Header().Set(CacheHeader, "miss")
	writeFresh(w, r, resp, etag)
}

// refresh re-fetches key in the background unless a refresh for it is
// already running.
func (c *Cache) refresh(key string, header http.Header) {
	c.mu.Lock()
	if c.inflight == nil {
		c.inflight = make(map[string]bool)
	}
	if c.inflight[key] {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.RefreshTimeout)
		defer cancel()

		resp, err := c.Fetcher.Fetch(ctx, key, header)
		if err != nil {
			c.Log.Debug().Err(err).Str("url", key).Msg("background refresh failed")
			return
		}
		if resp.Status != http.StatusOK {
			return
		}
		if _, err := c.put(ctx, key, resp); err != nil {
			c.Log.Error().Err(err).Str("url", key).Msg("failed to refresh cached asset")
		}
	}()
}

// bypass hands a response that cannot be cached straight to next.
func bypass(w http.ResponseWriter, r *http.Request, next http.Handler) {
	w.Header().Set(CacheHeader, "bypass")
	next.ServeHTTP(w, r)
}

// put stores resp under key and returns its ETag.
func (c *Cache) put(ctx context.Context, key string, resp *Response) (string, error) {
	etag := ETag(resp.Body)
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	err := store.PutAsset(ctx, c.DB, &model.CachedAsset{
		Version:     c.Version,
		URL:         key,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        etag,
		Body:        resp.Body,
		FetchedAt:   now().UTC(),
	})
	return etag, err
}

// ETag returns the quoted BLAKE2b-256 digest of body.
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// upstreamHeader copies the request headers minus the conditional ones, so
// the network always returns a full body for the cache.
func upstreamHeader(r *http.Request) http.Header {
	h := r.Header.Clone()
	h.Del("If-None-Match")
	h.Del("If-Modified-Since")
	return h
}

func notModified(r *http.Request, etag string) bool {
	if etag == "" {
		return false
	}
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == etag || candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func writeCached(w http.ResponseWriter, r *http.Request, a *model.CachedAsset, state string) {
	h := w.Header()
	h.Set(CacheHeader, state)
	h.Set("ETag", a.ETag)
	if a.ContentType != "" {
		h.Set("Content-Type", a.ContentType)
	}
	if notModified(r, a.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(a.Status)
	w.Write(a.Body)
}

func writeFresh(w http.ResponseWriter, r *http.Request, resp *Response, etag string) {
	h := w.Header()
	for k, vs := range resp.Header {
		if k == "Content-Length" {
			continue
		}
		h[k] = vs
	}
	if h.Get(CacheHeader) == "" {
		h.Set(CacheHeader, "network")
	}
	if etag != "" {
		h.Set("ETag", etag)
		if notModified(r, etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}
