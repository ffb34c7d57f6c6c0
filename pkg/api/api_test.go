package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MadalinaDev/PR-labs/pkg/counter"
)

func TestHealthz_ReturnsOK(t *testing.T) {
	router := NewRouter(counter.NewLocked())
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["service"] != "fileserver" {
		t.Errorf("Expected service 'fileserver', got '%s'", data["service"])
	}
}

func TestCounters_SnapshotsCounter(t *testing.T) {
	hits := counter.NewLocked()
	hits.Increment("/a.txt")
	hits.Increment("/a.txt")
	hits.Increment("/b.txt")

	router := NewRouter(hits)
	req := httptest.NewRequest("GET", "/counters", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", resp.Status)
	}

	counts, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if counts["/a.txt"] != float64(2) {
		t.Errorf("Expected 2 requests for /a.txt, got %v", counts["/a.txt"])
	}
	if counts["/b.txt"] != float64(1) {
		t.Errorf("Expected 1 request for /b.txt, got %v", counts["/b.txt"])
	}
}

func TestMetrics_DisabledReturns404(t *testing.T) {
	// The registry is not initialized in this test binary, so the
	// metrics route is not mounted.
	router := NewRouter(counter.NewLocked())
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRootRedirectsToHealthz(t *testing.T) {
	router := NewRouter(counter.NewLocked())
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("Expected status %d, got %d", http.StatusTemporaryRedirect, w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/healthz" {
		t.Errorf("Expected redirect to /healthz, got %q", loc)
	}
}

func TestConfig_IsEnabledDefaultsFalse(t *testing.T) {
	var cfg Config
	if cfg.IsEnabled() {
		t.Error("Expected control plane disabled by default")
	}

	enabled := true
	cfg.Enabled = &enabled
	if !cfg.IsEnabled() {
		t.Error("Expected control plane enabled when set")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Port != 9090 {
		t.Errorf("Expected default port 9090, got %d", cfg.Port)
	}
	if cfg.ReadTimeout == 0 || cfg.WriteTimeout == 0 || cfg.IdleTimeout == 0 {
		t.Error("Expected timeouts to receive defaults")
	}
}
