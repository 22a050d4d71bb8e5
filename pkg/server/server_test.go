package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soundprediction/chronograph/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
			Mode: "test",
		},
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()

	// A server is constructible without a history client
	server := New(cfg, nil)
	if server == nil {
		t.Fatal("expected non-nil server")
	}

	if server.config != cfg {
		t.Error("expected config to be set")
	}
}

func TestSetup(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	if server.router == nil {
		t.Error("expected router to be initialized")
	}

	if server.server == nil {
		t.Error("expected http.Server to be initialized")
	}

	expectedAddr := "localhost:8080"
	if server.server.Addr != expectedAddr {
		t.Errorf("expected addr %s, got %s", expectedAddr, server.server.Addr)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestLiveEndpoint(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	// Without a history client, readiness returns 503 Service Unavailable
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 (no history client), got %d", w.Code)
	}
}

func TestDetailedHealthEndpoint(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	// Without a history client, detailed health returns 503 Service Unavailable
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 (no history client), got %d", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	// CORS preflight
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for OPTIONS, got %d", w.Code)
	}

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected Access-Control-Allow-Origin header")
	}

	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Access-Control-Allow-Methods header")
	}
}

func TestRouteExists(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	// Routes must be registered (anything but 404)
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/ready"},
		{http.MethodGet, "/live"},
		{http.MethodGet, "/health/detailed"},
		{http.MethodPost, "/api/v1/versions"},
		{http.MethodGet, "/api/v1/versions/v-1"},
		{http.MethodPost, "/api/v1/edges/open"},
		{http.MethodPost, "/api/v1/edges/close"},
		{http.MethodGet, "/api/v1/edges/timeline"},
		{http.MethodPost, "/api/v1/traverse"},
		{http.MethodPost, "/api/v1/checkpoints"},
		{http.MethodGet, "/api/v1/checkpoints"},
		{http.MethodPost, "/api/v1/checkpoints/import"},
		{http.MethodGet, "/api/v1/checkpoints/cp-1"},
		{http.MethodGet, "/api/v1/checkpoints/cp-1/members"},
		{http.MethodGet, "/api/v1/checkpoints/cp-1/summary"},
		{http.MethodGet, "/api/v1/checkpoints/cp-1/export"},
		{http.MethodDelete, "/api/v1/checkpoints/cp-1"},
		{http.MethodGet, "/api/v1/entities/e-1/versions"},
		{http.MethodGet, "/api/v1/entities/e-1/timeline"},
		{http.MethodGet, "/api/v1/entities/e-1/sessions"},
		{http.MethodGet, "/api/v1/sessions/s-1/timeline"},
		{http.MethodGet, "/api/v1/sessions/s-1/impacts"},
		{http.MethodGet, "/api/v1/sessions/s-1/changes"},
		{http.MethodPost, "/api/v1/prune"},
		{http.MethodGet, "/api/v1/metrics"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			server.router.ServeHTTP(w, req)

			if w.Code == http.StatusNotFound {
				t.Errorf("route %s %s returned 404, route not registered", route.method, route.path)
			}
		})
	}
}

func TestServerConfig(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		port         int
		expectedAddr string
	}{
		{"localhost:8080", "localhost", 8080, "localhost:8080"},
		{"0.0.0.0:3000", "0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1:9090", "127.0.0.1", 9090, "127.0.0.1:9090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Server.Host = tt.host
			cfg.Server.Port = tt.port

			server := New(cfg, nil)
			server.Setup()

			if server.server.Addr != tt.expectedAddr {
				t.Errorf("expected addr %s, got %s", tt.expectedAddr, server.server.Addr)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	server := New(testConfig(), nil)
	server.Setup()

	// Regular GET requests carry CORS headers too
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	expectedHeaders := []string{
		"Access-Control-Allow-Origin",
		"Access-Control-Allow-Credentials",
		"Access-Control-Allow-Headers",
		"Access-Control-Allow-Methods",
	}

	for _, header := range expectedHeaders {
		if w.Header().Get(header) == "" {
			t.Errorf("expected %s header to be set", header)
		}
	}
}
