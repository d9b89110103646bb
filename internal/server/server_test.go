package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestHealthCheck(t *testing.T) {
	srv := New(Config{Port: 0, Log: zerolog.Nop()})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Port: 0, AllowAll: true, Log: zerolog.Nop()})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestRoutersShareHandler(t *testing.T) {
	srv := New(Config{Port: 0, Log: zerolog.Nop()})
	srv.Router().Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	srv.StreamRouter().Get("/ws/ping", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("stream route carries a request deadline")
		}
		w.Write([]byte("pong"))
	})

	for _, path := range []string{"/api/ping", "/ws/ping"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Body.String() != "pong" {
			t.Errorf("%s: body = %q", path, w.Body.String())
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	srv := New(Config{Port: 0, Log: zerolog.New(&buf).Level(zerolog.DebugLevel)})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	line := buf.String()
	for _, want := range []string{`"path":"/healthz"`, `"status":200`, `"request_id"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}
