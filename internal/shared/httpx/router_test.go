package httpx_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/k1networth/techdesk/internal/shared/httpx"
)

func testLogger(w io.Writer) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With(
		slog.String("app", "test"),
		slog.String("env", "test"),
	)
}

type echoRoutes struct{}

func (echoRoutes) Mount(mux *http.ServeMux) {
	httpx.Handle(mux, "GET /api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
	})
	httpx.Handle(mux, "POST /api/items", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, body)
	})
}

func newServer(t *testing.T, opts httpx.RouterOptions, logs io.Writer) *httptest.Server {
	t.Helper()
	if logs == nil {
		logs = io.Discard
	}
	srv := httptest.NewServer(httpx.NewRouter(testLogger(logs), opts, echoRoutes{}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestHealthzReturns200AndBodyOK(t *testing.T) {
	srv := newServer(t, httpx.RouterOptions{}, nil)

	resp, body := get(t, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestReadyzFollowsProbe(t *testing.T) {
	var readyErr error
	srv := newServer(t, httpx.RouterOptions{Ready: func(context.Context) error { return readyErr }}, nil)

	if resp, _ := get(t, srv.URL+"/readyz", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	readyErr = errors.New("db down")
	if resp, _ := get(t, srv.URL+"/readyz", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestRequestIDGeneratedIfMissing(t *testing.T) {
	srv := newServer(t, httpx.RouterOptions{}, nil)

	resp, _ := get(t, srv.URL+"/healthz", nil)
	got := resp.Header.Get("X-Request-Id")
	if got == "" {
		t.Fatalf("expected X-Request-Id header to be set")
	}

	re := regexp.MustCompile(`^[0-9a-f]{32}$`)
	if !re.MatchString(got) {
		t.Fatalf("expected 32-char hex request id, got %q", got)
	}
}

func TestRequestIDPreservedAndLogged(t *testing.T) {
	var logs bytes.Buffer
	srv := newServer(t, httpx.RouterOptions{}, &logs)

	resp, _ := get(t, srv.URL+"/healthz", map[string]string{"X-Request-Id": "test123"})
	if got := resp.Header.Get("X-Request-Id"); got != "test123" {
		t.Fatalf("expected X-Request-Id %q, got %q", "test123", got)
	}
	if !strings.Contains(logs.String(), `"request_id":"test123"`) {
		t.Fatalf("expected access log to carry the request id, got %s", logs.String())
	}
}

func TestRequestIDReplacedWhenInvalid(t *testing.T) {
	srv := newServer(t, httpx.RouterOptions{}, nil)

	resp, _ := get(t, srv.URL+"/healthz", map[string]string{"X-Request-Id": strings.Repeat("x", 200)})
	if got := resp.Header.Get("X-Request-Id"); len(got) != 32 {
		t.Fatalf("expected a fresh 32 char id, got %q", got)
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	srv := newServer(t, httpx.RouterOptions{}, nil)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/items", strings.NewReader(`{"name":"x","extra":true}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-Id", "rid-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	want := `{"error":{"code":"validation_error","message":"invalid json","request_id":"rid-1"}}`
	if strings.TrimSpace(string(b)) != want {
		t.Fatalf("expected %s, got %s", want, b)
	}
}

func TestDecodeJSONLimits(t *testing.T) {
	srv := newServer(t, httpx.RouterOptions{}, nil)

	cases := []struct {
		body string
		msg  string
	}{
		{"", "empty body"},
		{`{"name":"a"}{"name":"b"}`, "invalid json"},
		{`{"name":"` + strings.Repeat("a", 1<<20) + `"}`, "body too large"},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+"/api/items", "application/json", strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(b), tc.msg) {
			t.Fatalf("expected 400 %q, got %d %s", tc.msg, resp.StatusCode, b)
		}
	}
}

func TestMetricsLabelledByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newServer(t, httpx.RouterOptions{Gatherer: reg, Metrics: httpx.NewMetrics(reg)}, nil)

	get(t, srv.URL+"/api/items/1", nil)
	get(t, srv.URL+"/api/items/2", nil)
	get(t, srv.URL+"/nope", nil)

	const want = `
# HELP http_requests_total Total number of HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="GET /api/items/{id}",status="200"} 2
http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "http_requests_total"); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if n := gaugeValue(t, reg, "http_requests_in_flight"); n != 0 {
		t.Fatalf("expected no requests in flight, got %v", n)
	}

	resp, body := get(t, srv.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "http_request_duration_seconds") {
		t.Fatalf("expected /metrics to expose the registry, got %d", resp.StatusCode)
	}
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.GetMetric()) == 1 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
