package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry/mock"
	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
)

type nilEmbedder struct{}

func (nilEmbedder) ExtractFace(ctx context.Context, image []byte) ([]float32, error) {
	return nil, nil
}

func testServer() *Server {
	cfg := &config.Config{
		Match: config.MatchConfig{Threshold: 0.60, DuplicateThreshold: 0.75, DuplicateNeighbors: 5},
		Web:   config.WebConfig{Host: "127.0.0.1", Port: 0},
	}
	store := mock.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := resolve.NewEngine(store, facematch.NewMatcher(cfg.Match.Threshold), resolve.Options{Logger: logger})
	return NewServer(cfg, engine, store, nilEmbedder{}, logger)
}

func TestRoutes(t *testing.T) {
	server := testServer()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/visitors", http.StatusOK},
		{http.MethodGet, "/api/v1/visitors/present/count", http.StatusOK},
		{http.MethodGet, "/api/v1/visitors/host/john", http.StatusOK},
		{http.MethodGet, "/api/v1/duplicates", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/scan", http.StatusBadRequest},   // empty body
		{http.MethodPost, "/api/v1/exit", http.StatusBadRequest},   // empty body
		{http.MethodPost, "/api/v1/checkin", http.StatusBadRequest}, // empty body
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			recorder := httptest.NewRecorder()
			server.Router().ServeHTTP(recorder, req)

			if recorder.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, recorder.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/scan", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 for preflight, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected localhost origin allowed, got %q", got)
	}
}
