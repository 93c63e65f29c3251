package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleejeyly/storefront/internal/config"
	"github.com/gleejeyly/storefront/internal/shell"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServerConfig(dataDir string) *config.Server {
	return &config.Server{
		Environment:        "test",
		HTTPPort:           3000,
		DataDir:            dataDir,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       100,
		RateLimitBurst:     100,
		OTELSampleRate:     1,
	}
}

func TestServer_WiresRoutes(t *testing.T) {
	dir := t.TempDir()
	srv, err := NewServer(testServerConfig(dir), testLogger())
	require.NoError(t, err)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data_dir")

	req := httptest.NewRequest(http.MethodPost, "/api/reviews",
		strings.NewReader(`{"name":"Jo","email":"jo@example.com","productRating":5,"serviceRating":5,"comment":"Lovely texture, will order again"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, err = os.Stat(filepath.Join(dir, "reviews.json"))
	assert.NoError(t, err)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ReadinessDownWhenDataDirUnusable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	srv, err := NewServer(testServerConfig(filepath.Join(blocker, "data")), testLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := testServerConfig(t.TempDir())
	cfg.HTTPPort = 0
	srv, err := NewServer(cfg, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShell_ServesOfflineAfterPrepare(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("asset " + r.URL.Path))
	}))
	defer origin.Close()

	cfg := &config.Shell{
		HTTPPort:      8080,
		OriginURL:     origin.URL,
		CacheName:     shell.DefaultCacheName,
		OriginTimeout: 2 * time.Second,
	}
	sh, err := NewShell(cfg, testLogger())
	require.NoError(t, err)

	sh.Prepare(context.Background())
	origin.Close()

	rec := httptest.NewRecorder()
	sh.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/faq.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asset /faq.html", rec.Body.String())

	rec = httptest.NewRecorder()
	sh.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_shell/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShell_InvalidOrigin(t *testing.T) {
	_, err := NewShell(&config.Shell{OriginURL: "::bad", CacheName: "x"}, testLogger())
	assert.Error(t, err)
}
