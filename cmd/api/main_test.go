package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/bootstrap"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/middleware"
	"github.com/sitekit/sitekit/internal/store"
	"github.com/sitekit/sitekit/internal/subscriber"
	"github.com/sitekit/sitekit/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "development",
		AdminEmail:         "admin@example.com",
		Site:               config.Site{WebsiteURL: "https://example.com", PrivatePath: "/thoughts.html"},
		CORSAllowedOrigins: "*",
		MaxRequestBodySize: 1024,
		RateLimitBurst:     5,
		RateLimitRPS:       1,
	}
}

func memoryBackends() *bootstrap.Backends {
	s := store.NewMemory()
	return &bootstrap.Backends{Store: s, Subscribers: subscriber.NewListRepository(s)}
}

func newTestServer(t *testing.T, cfg *config.Config, backends *bootstrap.Backends) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := newApp(cfg, backends, &testutil.RecordingSender{}, metrics.NewInMemory(), logger)
	srv := httptest.NewServer(a.router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_SubscribeOnBothPrefixes(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryBackends())

	for i, path := range []string{"/subscribe", "/api/subscribe"} {
		resp := postJSON(t, srv.URL+path, `{"email":"reader`+string(rune('a'+i))+`@example.com"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["total"] != float64(i+1) {
			t.Errorf("%s: expected total %d, got %v", path, i+1, body["total"])
		}
	}
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryBackends())

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/subscribe", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id")
	}
}

func TestRouter_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryBackends())

	resp := postJSON(t, srv.URL+"/subscribe", `{"email":"`+strings.Repeat("a", 2048)+`@example.com"}`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", resp.StatusCode)
	}
}

func TestRouter_WithoutStorage(t *testing.T) {
	srv := newTestServer(t, testConfig(), &bootstrap.Backends{})

	resp := postJSON(t, srv.URL+"/api/subscribe", `{"email":"a@example.com"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}

	ready, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz failed: %v", err)
	}
	defer ready.Body.Close()
	if ready.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected readyz 503 without storage, got %d", ready.StatusCode)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitBurst = 2
	cfg.RateLimitRPS = 0.01
	srv := newTestServer(t, cfg, memoryBackends())

	var last int
	for i := 0; i < 3; i++ {
		last = postJSON(t, srv.URL+"/subscribe", `{"email":"a@example.com"}`).StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after the burst, got %d", last)
	}

	// Health checks are not rate limited.
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from healthz, got %d", resp.StatusCode)
	}
}

func TestRouter_ExportSecret(t *testing.T) {
	hash, err := auth.HashSecret("s3cret")
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	cfg := testConfig()
	cfg.ExportSecretHash = hash
	srv := newTestServer(t, cfg, memoryBackends())

	get := func(secret string) int {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/export-subscribers", nil)
		if secret != "" {
			req.Header.Set(middleware.ExportSecretHeader, secret)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET export failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := get(""); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without secret, got %d", code)
	}
	if code := get("wrong"); code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong secret, got %d", code)
	}
	if code := get("s3cret"); code != http.StatusOK {
		t.Errorf("expected 200 with secret, got %d", code)
	}
}
