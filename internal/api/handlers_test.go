package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sdgtrack/internal/config"
)

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthHandler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if !contains(w.Body.String(), "ok") {
		t.Errorf("unexpected health body: %s", w.Body.String())
	}
}

func TestConfigHandler_HidesSecrets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080
	cfg.Server.Subpath = "/sdgtrack"
	cfg.Server.JWTSecret = "supersecret"
	cfg.Engine.MaxConcurrency = 8

	r := gin.New()
	r.GET("/config", configHandler(cfg))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/config", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if contains(w.Body.String(), "supersecret") {
		t.Error("config response must not leak the JWT secret")
	}
	if !contains(w.Body.String(), "max_concurrency") {
		t.Errorf("config response missing engine section: %s", w.Body.String())
	}
}
