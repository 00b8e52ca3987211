package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend-pedalhub/internal/auth"
	"backend-pedalhub/internal/config"
	"backend-pedalhub/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "secret",
		ServerPort:     ":0",
		RoutingURL:     "http://127.0.0.1:1",
		RoutingTimeout: time.Second,
		RoutingProfile: "bicycle",
		WindowSize:     10,
	}
}

func TestHealthRoute(t *testing.T) {
	s := NewServer(testConfig(), nil, nil, storage.NewLocal(t.TempDir()))

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestMetricsRoute(t *testing.T) {
	s := NewServer(testConfig(), nil, nil, storage.NewLocal(t.TempDir()))

	resp, err := s.App.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status: %v", err)
	}
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "pedal_live_sessions_active") {
		t.Fatalf("expected pedal collectors in exposition")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := NewServer(testConfig(), nil, nil, storage.NewLocal(t.TempDir()))

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/routes/route-1"},
		{http.MethodGet, "/reports/summary?period=day"},
		{http.MethodGet, "/tracking/start-session"},
		{http.MethodPost, "/storage/upload"},
		{http.MethodPost, "/navigation/guide-route"},
	} {
		resp, err := s.App.Test(httptest.NewRequest(tc.method, tc.path, nil))
		if err != nil {
			t.Fatalf("request %s: %v", tc.path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestVerifyRoute(t *testing.T) {
	cfg := testConfig()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewServer(cfg, nil, rdb, storage.NewLocal(t.TempDir()))

	token, _ := auth.NewService(cfg.JWTSecret).IssueToken("user-1", time.Minute)
	req := httptest.NewRequest("GET", "/auth/jwt/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status: %v", err)
	}
}

func TestLocalUploadsServed(t *testing.T) {
	dir := t.TempDir()
	backend := storage.NewLocal(dir)
	url, err := backend.Save(context.Background(), "ride.txt", "text/plain", strings.NewReader("saved"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	s := NewServer(testConfig(), nil, nil, backend)
	resp, err := s.App.Test(httptest.NewRequest("GET", url, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("uploads status: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "saved" {
		t.Fatalf("unexpected body %q", body)
	}
}
