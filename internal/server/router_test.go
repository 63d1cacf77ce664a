package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/matching"
	"github.com/spigell/toolmatch/internal/metrics"
	"github.com/spigell/toolmatch/internal/recommender"
)

type fakeMatcher struct {
	resp      *recommender.Response
	err       error
	lastQuery string
}

func (f *fakeMatcher) Match(_ context.Context, query string) (*recommender.Response, error) {
	f.lastQuery = query
	return f.resp, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMatchEndpoint(t *testing.T) {
	matcher := &fakeMatcher{resp: &recommender.Response{
		RequestID: "req-1",
		Mode:      recommender.ModeFallback,
		Results: []*matching.ToolMatch{{
			Tool:       &catalog.Tool{Name: "SiteBuilder"},
			Score:      97,
			Reasons:    []string{"Free tier available"},
			Confidence: 70,
		}},
	}}
	router := NewRouter(Config{}, matcher, nil, nil)

	w := doRequest(t, router, http.MethodPost, "/api/match", `{"query": "  build a website  "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if matcher.lastQuery != "build a website" {
		t.Fatalf("unexpected query passed to matcher: %q", matcher.lastQuery)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["mode"] != "fallback" || body["requestId"] != "req-1" {
		t.Fatalf("unexpected body: %v", body)
	}
	results, ok := body["results"].([]any)
	if !ok || len(results) != 1 {
		t.Fatalf("unexpected results: %v", body["results"])
	}
	first := results[0].(map[string]any)
	if first["matchScore"] != 97.0 {
		t.Fatalf("unexpected match score: %v", first["matchScore"])
	}
}

func TestMatchEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{name: "invalid json", body: `{`, status: http.StatusBadRequest, msg: "query is required"},
		{name: "missing query", body: `{}`, status: http.StatusBadRequest, msg: "query is required"},
		{name: "blank query", body: `{"query": "   "}`, status: http.StatusBadRequest, msg: "query is required"},
		{
			name:   "data unavailable",
			body:   `{"query": "build a website"}`,
			err:    fmt.Errorf("%w: timeout", catalog.ErrDataUnavailable),
			status: http.StatusServiceUnavailable,
			msg:    "no recommendations available",
		},
		{
			name:   "unexpected",
			body:   `{"query": "build a website"}`,
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			msg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Config{}, &fakeMatcher{err: tt.err}, nil, nil)
			w := doRequest(t, router, http.MethodPost, "/api/match", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.msg {
				t.Fatalf("expected error %q, got %q", tt.msg, body["error"])
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(registry)
	m.ObserveMatch("fallback", 3, 0)

	router := NewRouter(Config{}, &fakeMatcher{}, registry, nil)

	if w := doRequest(t, router, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", w.Code)
	}

	w := doRequest(t, router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "toolmatch_matches_total") {
		t.Fatalf("expected matches counter in metrics output")
	}

	withoutMetrics := NewRouter(Config{}, &fakeMatcher{}, nil, nil)
	if w := doRequest(t, withoutMetrics, http.MethodGet, "/metrics", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without gatherer, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(Config{AllowOrigins: []string{"https://example.com"}}, &fakeMatcher{}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/match", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("unexpected allow origin header %q", got)
	}
}

func TestServerStopsOnContextCancel(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, NewRouter(Config{}, &fakeMatcher{}, nil, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Run(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
