package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// networkFirstPrefixes are the paths whose freshness matters more than
// offline availability.
var networkFirstPrefixes = []string{"/api/", "/orders", "/reviews"}

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// maxEntryBytes bounds a response body read from the origin.
const maxEntryBytes = 8 << 20

// Doer sends HTTP requests. *httpclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Worker precaches the shell and answers requests with the cache-vs-network
// policy: network-first for API and data paths, cache-first for the rest.
type Worker struct {
	storage  *CacheStorage
	manifest Manifest
	origin   *url.URL
	client   Doer
	logger   *slog.Logger
}

// NewWorker creates a worker that fetches from origin.
func NewWorker(origin string, manifest Manifest, storage *CacheStorage, client Doer, logger *slog.Logger) (*Worker, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("origin url %q must be absolute", origin)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	return &Worker{
		storage:  storage,
		manifest: manifest,
		origin:   u,
		client:   client,
		logger:   logger,
	}, nil
}

// CacheName returns the cache version this worker installs into.
func (w *Worker) CacheName() string {
	return w.manifest.CacheName
}

// Install fetches every manifest asset and stores them in the current cache.
// If any asset cannot be fetched nothing is stored.
func (w *Worker) Install(ctx context.Context) error {
	staged := make(map[string]Entry, len(w.manifest.Assets))
	for _, asset := range w.manifest.Assets {
		req, err := w.originRequest(ctx, http.MethodGet, asset, nil, nil)
		if err != nil {
			return fmt.Errorf("install %s: %w", asset, err)
		}
		entry, err := w.fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("install %s: %w", asset, err)
		}
		if entry.Status < 200 || entry.Status > 299 {
			return fmt.Errorf("install %s: origin answered %d", asset, entry.Status)
		}
		staged[asset] = entry
	}

	cache := w.storage.Open(w.manifest.CacheName)
	for key, entry := range staged {
		cache.Put(key, entry)
	}
	cachedAssets.WithLabelValues(w.manifest.CacheName).Set(float64(cache.Len()))

	w.logger.InfoContext(ctx, "shell installed",
		slog.String("cache", w.manifest.CacheName),
		slog.Int("assets", len(staged)),
	)
	return nil
}

// Activate deletes every cache other than the current version and returns
// the names it removed.
func (w *Worker) Activate(ctx context.Context) []string {
	var deleted []string
	for _, name := range w.storage.Keys() {
		if name == w.manifest.CacheName {
			continue
		}
		if w.storage.Delete(name) {
			cachedAssets.DeleteLabelValues(name)
			deleted = append(deleted, name)
		}
	}
	if len(deleted) > 0 {
		w.logger.InfoContext(ctx, "old shell caches deleted", slog.Any("caches", deleted))
	}
	return deleted
}

// ServeHTTP answers a request from the cache, the origin, or both.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method != http.MethodGet:
		w.passthrough(rw, r)
	case isNetworkFirst(r.URL.Path):
		w.networkFirst(rw, r)
	default:
		w.cacheFirst(rw, r)
	}
}

func isNetworkFirst(path string) bool {
	for _, p := range networkFirstPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func cacheKey(r *http.Request) string {
	return r.URL.RequestURI()
}

// networkFirst serves the origin's answer, replaying a cached copy of the
// exact request only when the origin is unreachable. Responses are never
// written to the cache.
func (w *Worker) networkFirst(rw http.ResponseWriter, r *http.Request) {
	entry, err := w.forward(r)
	if err == nil {
		requestsTotal.WithLabelValues(strategyNetworkFirst, outcomeNetwork).Inc()
		writeEntry(rw, entry)
		return
	}

	if cached, ok := w.storage.Match(cacheKey(r)); ok {
		requestsTotal.WithLabelValues(strategyNetworkFirst, outcomeCachedReplay).Inc()
		writeEntry(rw, cached)
		return
	}

	w.logger.WarnContext(r.Context(), "origin unreachable", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	requestsTotal.WithLabelValues(strategyNetworkFirst, outcomeUnavailable).Inc()
	http.Error(rw, "origin unreachable", http.StatusGatewayTimeout)
}

// cacheFirst serves a cached entry when present, otherwise fetches from the
// origin and stores successful answers. When both fail the cached shell page
// is served.
func (w *Worker) cacheFirst(rw http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if cached, ok := w.storage.Match(key); ok {
		requestsTotal.WithLabelValues(strategyCacheFirst, outcomeHit).Inc()
		writeEntry(rw, cached)
		return
	}

	entry, err := w.forward(r)
	if err == nil {
		if entry.Status >= 200 && entry.Status <= 299 {
			cache := w.storage.Open(w.manifest.CacheName)
			cache.Put(key, entry)
			cachedAssets.WithLabelValues(w.manifest.CacheName).Set(float64(cache.Len()))
		}
		requestsTotal.WithLabelValues(strategyCacheFirst, outcomeMiss).Inc()
		writeEntry(rw, entry)
		return
	}

	if shell, ok := w.storage.Match("/"); ok {
		requestsTotal.WithLabelValues(strategyCacheFirst, outcomeShellFallback).Inc()
		writeEntry(rw, shell)
		return
	}

	w.logger.WarnContext(r.Context(), "origin unreachable and no shell cached", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	requestsTotal.WithLabelValues(strategyCacheFirst, outcomeUnavailable).Inc()
	http.Error(rw, "origin unreachable", http.StatusGatewayTimeout)
}

func (w *Worker) passthrough(rw http.ResponseWriter, r *http.Request) {
	entry, err := w.forward(r)
	if err != nil {
		w.logger.WarnContext(r.Context(), "origin unreachable", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		requestsTotal.WithLabelValues(strategyPassthrough, outcomeUnavailable).Inc()
		http.Error(rw, "origin unreachable", http.StatusGatewayTimeout)
		return
	}
	requestsTotal.WithLabelValues(strategyPassthrough, outcomeNetwork).Inc()
	writeEntry(rw, entry)
}

// forward replays r against the origin.
func (w *Worker) forward(r *http.Request) (Entry, error) {
	req, err := w.originRequest(r.Context(), r.Method, r.URL.RequestURI(), r.Body, r.Header)
	if err != nil {
		return Entry{}, err
	}
	return w.fetch(r.Context(), req)
}

func (w *Worker) originRequest(ctx context.Context, method, requestURI string, body io.Reader, header http.Header) (*http.Request, error) {
	ref, err := url.Parse(requestURI)
	if err != nil {
		return nil, fmt.Errorf("parse request uri: %w", err)
	}
	target := *w.origin
	target.Path = w.origin.Path + ref.Path
	target.RawQuery = ref.RawQuery

	if body == http.NoBody {
		body = nil
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	stripHopHeaders(req.Header)
	// Let the transport negotiate compression so cached bodies stay plain.
	req.Header.Del("Accept-Encoding")
	return req, nil
}

func (w *Worker) fetch(ctx context.Context, req *http.Request) (Entry, error) {
	resp, err := w.client.Do(ctx, req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEntryBytes+1))
	if err != nil {
		return Entry{}, fmt.Errorf("read origin body: %w", err)
	}
	if len(body) > maxEntryBytes {
		return Entry{}, errors.New("origin body too large")
	}

	header := resp.Header.Clone()
	stripHopHeaders(header)
	header.Del("Content-Length")
	return Entry{Status: resp.StatusCode, Header: header, Body: body}, nil
}

func stripHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func writeEntry(rw http.ResponseWriter, e Entry) {
	for k, vs := range e.Header {
		for _, v := range vs {
			rw.Header().Add(k, v)
		}
	}
	rw.WriteHeader(e.Status)
	_, _ = io.Copy(rw, bytes.NewReader(e.Body))
}
