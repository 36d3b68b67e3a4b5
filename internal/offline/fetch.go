package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxBody caps how much of a response is read into the cache.
const DefaultMaxBody = 16 << 20

// ErrBodyTooLarge is returned for responses over the fetcher's limit. Such
// responses are never cached.
var ErrBodyTooLarge = errors.New("response body too large")

func bodyLimit(n int64) int64 {
	if n <= 0 {
		return DefaultMaxBody
	}
	return n
}

// Response is a fully read upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher is the "network" behind the cache.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (*Response, error)
}

// HandlerFetcher fetches from an in-process handler, typically the web shell.
type HandlerFetcher struct {
	Handler http.Handler
	// MaxBody defaults to DefaultMaxBody.
	MaxBody int64
}

// Fetch runs a GET for url against the handler.
func (f HandlerFetcher) Fetch(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	if header != nil {
		req.Header = header.Clone()
	}
	req.RequestURI = url

	rec := &bufferWriter{header: make(http.Header)}
	f.Handler.ServeHTTP(rec, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit := bodyLimit(f.MaxBody); int64(rec.body.Len()) > limit {
		return nil, fmt.Errorf("fetching %s: %w (over %d bytes)", url, ErrBodyTooLarge, limit)
	}
	return rec.response(), nil
}

// HTTPFetcher fetches from a remote origin. Relative urls are resolved
// against Origin; absolute urls are fetched as-is.
type HTTPFetcher struct {
	Client *http.Client
	Origin string
	// MaxBody defaults to DefaultMaxBody.
	MaxBody int64
}

// Fetch performs a GET over the network.
func (f HTTPFetcher) Fetch(ctx context.Context, url string, header http.Header) (*Response, error) {
	target := url
	if !strings.Contains(url, "://") {
		target = strings.TrimRight(f.Origin, "/") + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}
	for k, vs := range header {
		req.Header[k] = append([]string(nil), vs...)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	limit := bodyLimit(f.MaxBody)
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("reading %s: %w (over %d bytes)", target, ErrBodyTooLarge, limit)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}

// bufferWriter collects a handler's response in memory.
type bufferWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferWriter) Header() http.Header { return b.header }

func (b *bufferWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferWriter) response() *Response {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{Status: status, Header: b.header, Body: b.body.Bytes()}
}
