package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fedutinova/mcqgen/internal/config"
	"github.com/fedutinova/mcqgen/internal/extract"
	"github.com/fedutinova/mcqgen/internal/gpt"
	"github.com/fedutinova/mcqgen/internal/mcqgen"
	"github.com/fedutinova/mcqgen/internal/storage"
	httpapi "github.com/fedutinova/mcqgen/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, origins []string, rateLimit int) http.Handler {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		AllowedOrigins:    origins,
		UploadDir:         filepath.Join(root, "uploads"),
		ResultsDir:        filepath.Join(root, "results"),
		ResultsURL:        "/results",
		MaxUploadSize:     1 << 20,
		UpstreamTimeout:   time.Second,
		GenerateRateLimit: rateLimit,
	}

	staging, err := storage.NewStaging(cfg.UploadDir, cfg.MaxUploadSize)
	require.NoError(t, err)
	results, err := storage.NewLocalStorage(cfg.ResultsDir, cfg.ResultsURL)
	require.NoError(t, err)
	client := gpt.NewClient(gpt.Options{})

	return NewRouter(&httpapi.Handlers{
		Service:  mcqgen.NewService(extract.New(), client, results, staging),
		Results:  results,
		Upstream: client,
		Config:   cfg,
	})
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, []string{"http://app.example"}, 0)

	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_CORSOnlyServedMethods(t *testing.T) {
	r := newTestRouter(t, []string{"http://app.example"}, 0)

	for method, allowed := range map[string]bool{
		http.MethodGet:    true,
		http.MethodPost:   true,
		http.MethodPut:    false,
		http.MethodDelete: false,
	} {
		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "http://app.example")
		req.Header.Set("Access-Control-Request-Method", method)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if allowed {
			assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"), method)
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), method)
		}
	}
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	r := newTestRouter(t, []string{"http://app.example"}, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_GenerateRateLimit(t *testing.T) {
	r := newTestRouter(t, []string{"*"}, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)

	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code, "rate limit applies to /generate only")
}
