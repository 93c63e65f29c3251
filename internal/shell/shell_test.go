package shell

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleejeyly/storefront/pkg/httpclient"
)

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type origin struct {
	*httptest.Server
	apiHits  atomic.Int32
	lastBody atomic.Value
}

// newOrigin serves every default asset as "page:<path>", a JSON review list
// under /api/reviews and 404 elsewhere.
func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{}
	assets := make(map[string]bool, len(DefaultAssets))
	for _, a := range DefaultAssets {
		assets[a] = true
	}

	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/reviews" && r.Method == http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			o.lastBody.Store(string(body))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{}}`))
		case r.URL.Path == "/api/reviews":
			o.apiHits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/extra.css":
			_, _ = w.Write([]byte("extra?" + r.URL.RawQuery))
		case assets[r.URL.Path]:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("page:" + r.URL.Path))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(o.Close)
	return o
}

func newTestWorker(t *testing.T, originURL string, storage *CacheStorage) *Worker {
	t.Helper()
	w, err := NewWorker(originURL, DefaultManifest(), storage, httpclient.New(httpclient.DefaultConfig()), testLogger())
	require.NoError(t, err)
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func counterValue(t *testing.T, strategy, outcome string) float64 {
	t.Helper()
	c, err := requestsTotal.GetMetricWithLabelValues(strategy, outcome)
	require.NoError(t, err)
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

// ============================================================================
// CacheStorage
// ============================================================================

func TestCacheStorage(t *testing.T) {
	s := NewCacheStorage()
	s.Open("b").Put("/x", Entry{Status: 200, Body: []byte("b")})
	s.Open("a")

	assert.Equal(t, []string{"a", "b"}, s.Keys())

	e, ok := s.Match("/x")
	require.True(t, ok)
	assert.Equal(t, "b", string(e.Body))

	assert.True(t, s.Delete("b"))
	assert.False(t, s.Delete("b"))
	_, ok = s.Match("/x")
	assert.False(t, ok)
}

// ============================================================================
// Manifest
// ============================================================================

func TestLoadManifest_DefaultWhenNoPath(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	assert.Equal(t, "gle-shell-v1", m.CacheName)
	assert.Len(t, m.Assets, 10)
	assert.Equal(t, "/", m.Assets[0])
}

func TestLoadManifest_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_name: gle-shell-v2\nassets:\n  - /\n  - /index.html\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "gle-shell-v2", m.CacheName)
	assert.Equal(t, []string{"/", "/index.html"}, m.Assets)
}

func TestLoadManifest_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_name: gle-shell-v3\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "gle-shell-v3", m.CacheName)
	assert.Len(t, m.Assets, len(DefaultAssets))
}

func TestLoadManifest_Errors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("assets: [index.html]\n"), 0o644))
	_, err = LoadManifest(bad)
	assert.ErrorContains(t, err, "must be an absolute path")

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("assets: [\n"), 0o644))
	_, err = LoadManifest(broken)
	assert.ErrorContains(t, err, "parse manifest")
}

// ============================================================================
// Install / Activate
// ============================================================================

func TestNewWorker_RejectsRelativeOrigin(t *testing.T) {
	_, err := NewWorker("localhost:3000", DefaultManifest(), NewCacheStorage(), httpclient.New(httpclient.DefaultConfig()), testLogger())
	assert.Error(t, err)
}

func TestInstall_CachesEveryAsset(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	w := newTestWorker(t, o.URL, storage)

	require.NoError(t, w.Install(context.Background()))

	cache := storage.Open(DefaultCacheName)
	assert.Equal(t, len(DefaultAssets), cache.Len())
	e, ok := cache.Match("/styles/style.css")
	require.True(t, ok)
	assert.Equal(t, "page:/styles/style.css", string(e.Body))
}

func TestInstall_AllOrNothing(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	m := DefaultManifest()
	m.Assets = append(m.Assets, "/missing.png")
	w, err := NewWorker(o.URL, m, storage, httpclient.New(httpclient.DefaultConfig()), testLogger())
	require.NoError(t, err)

	err = w.Install(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing.png")
	assert.Empty(t, storage.Keys())
}

func TestInstall_OriginDown(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	w := newTestWorker(t, o.URL, storage)
	o.Close()

	require.Error(t, w.Install(context.Background()))
	assert.Empty(t, storage.Keys())
}

func TestActivate_DeletesOldVersions(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	storage.Open("gle-shell-v0").Put("/", Entry{Status: 200, Body: []byte("old")})
	w := newTestWorker(t, o.URL, storage)

	require.NoError(t, w.Install(context.Background()))
	deleted := w.Activate(context.Background())

	assert.Equal(t, []string{"gle-shell-v0"}, deleted)
	assert.Equal(t, []string{DefaultCacheName}, storage.Keys())
	assert.Empty(t, w.Activate(context.Background()))
}

// ============================================================================
// Fetch policy
// ============================================================================

func TestOffline_NavigationServesCachedShell(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o.URL, NewCacheStorage())
	require.NoError(t, w.Install(context.Background()))
	o.Close()

	before := counterValue(t, strategyCacheFirst, outcomeShellFallback)

	rec := get(w, "/about-us")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page:/", rec.Body.String())
	assert.Equal(t, before+1, counterValue(t, strategyCacheFirst, outcomeShellFallback))

	rec = get(w, "/product.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page:/product.html", rec.Body.String())
}

func TestOffline_APIWithNothingCachedIs504(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o.URL, NewCacheStorage())
	require.NoError(t, w.Install(context.Background()))
	o.Close()

	rec := get(w, "/api/reviews")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestOffline_NothingCachedAtAllIs504(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o.URL, NewCacheStorage())
	o.Close()

	assert.Equal(t, http.StatusGatewayTimeout, get(w, "/index.html").Code)
}

func TestNetworkFirst_NeverWritesCache(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	w := newTestWorker(t, o.URL, storage)
	require.NoError(t, w.Install(context.Background()))

	rec := get(w, "/api/reviews")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = get(w, "/api/reviews")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(2), o.apiHits.Load())

	_, ok := storage.Match("/api/reviews")
	assert.False(t, ok)
	assert.Equal(t, len(DefaultAssets), storage.Open(DefaultCacheName).Len())
}

func TestNetworkFirst_OfflineReplaysExactCachedRequest(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o.URL, NewCacheStorage())
	require.NoError(t, w.Install(context.Background()))

	// Online, the network answer wins even though the page is cached.
	assert.Equal(t, "page:/reviews.html", get(w, "/reviews.html").Body.String())

	o.Close()
	rec := get(w, "/reviews.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page:/reviews.html", rec.Body.String())
}

func TestCacheFirst_MissStoresSuccessOnly(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	w := newTestWorker(t, o.URL, storage)

	rec := get(w, "/extra.css?v=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "extra?v=2", rec.Body.String())

	_, ok := storage.Match("/extra.css?v=2")
	assert.True(t, ok)

	rec = get(w, "/nope.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, ok = storage.Match("/nope.js")
	assert.False(t, ok)

	// Served from cache once the origin is gone.
	o.Close()
	assert.Equal(t, "extra?v=2", get(w, "/extra.css?v=2").Body.String())
}

func TestPassthrough_NonGET(t *testing.T) {
	o := newOrigin(t)
	storage := NewCacheStorage()
	w := newTestWorker(t, o.URL, storage)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"name":"Jo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"name":"Jo"}`, o.lastBody.Load())
	assert.Empty(t, storage.Keys())

	o.Close()
	rec = httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestIsNetworkFirst(t *testing.T) {
	assert.True(t, isNetworkFirst("/api/health"))
	assert.True(t, isNetworkFirst("/orders"))
	assert.True(t, isNetworkFirst("/reviews.html"))
	assert.False(t, isNetworkFirst("/api"))
	assert.False(t, isNetworkFirst("/index.html"))
}
