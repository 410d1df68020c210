package workflow_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/k1networth/techdesk/internal/shared/httpx"
	"github.com/k1networth/techdesk/internal/workflow"
)

func post(t *testing.T, url, body string) (*http.Response, workflow.Project) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var p workflow.Project
	_ = json.NewDecoder(resp.Body).Decode(&p)
	return resp, p
}

func TestWorkflowHTTP(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	h := &workflow.Handler{Log: log, Store: workflow.NewStore(), Metrics: workflow.NewMetrics(reg)}
	srv := httptest.NewServer(httpx.NewRouter(log, httpx.RouterOptions{}, h))
	defer srv.Close()

	resp, p := post(t, srv.URL+"/api/workflows", `{"name":"Projeto Alpho","client":"TechCorp","priority":"Alta","assignee":"João Silva"}`)
	if resp.StatusCode != http.StatusCreated || p.ID == "" {
		t.Fatalf("expected 201 with id, got %d %+v", resp.StatusCode, p)
	}

	for i := 0; i < 3; i++ {
		resp, p = post(t, srv.URL+"/api/workflows/"+p.ID+"/approve", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("approve %d: expected %d, got %d", i, http.StatusOK, resp.StatusCode)
		}
	}
	if p.Status != "Concluído" {
		t.Fatalf("expected Concluído, got %q", p.Status)
	}

	resp, _ = post(t, srv.URL+"/api/workflows/"+p.ID+"/approve", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	const want = `
# HELP workflow_advances_total Workflow step advances by trigger (approve, auto).
# TYPE workflow_advances_total counter
workflow_advances_total{trigger="approve"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "workflow_advances_total"); err != nil {
		t.Fatalf("metrics: %v", err)
	}

	resp, _ = post(t, srv.URL+"/api/workflows", `{"name":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	r, err := http.Get(srv.URL + "/api/workflows/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = r.Body.Close()
	if r.StatusCode != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, r.StatusCode)
	}
}
