package profile_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/k1networth/techdesk/internal/profile"
	"github.com/k1networth/techdesk/internal/shared/httpx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := httptest.NewServer(httpx.NewRouter(log, httpx.RouterOptions{}, &profile.Handler{Log: log, Store: seeded()}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestGetProfile(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, http.MethodGet, srv.URL+"/api/user/1", "")
	if code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, code)
	}
	if body["success"] != true || body["name"] != "Cauã Sousa" || body["email"] != "sousa@gmail.com" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["phone"]; !ok {
		t.Fatalf("expected phone key in %v", body)
	}

	for _, path := range []string{"/api/user/2", "/api/user/abc", "/api/user/0"} {
		code, body = do(t, http.MethodGet, srv.URL+path, "")
		if code != http.StatusNotFound || body["success"] != false {
			t.Fatalf("%s: expected 404 failure, got %d %v", path, code, body)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, http.MethodPut, srv.URL+"/api/user/1",
		`{"name":"  Cauã  ","email":"novo@gmail.com","phone":"11 98888-0000","address":"Rua B, 10"}`)
	if code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %v", http.StatusOK, code, body)
	}
	if body["name"] != "Cauã" || body["phone"] != "11 98888-0000" {
		t.Fatalf("unexpected body: %v", body)
	}

	_, body = do(t, http.MethodGet, srv.URL+"/api/user/1", "")
	if body["email"] != "novo@gmail.com" || body["address"] != "Rua B, 10" {
		t.Fatalf("update not persisted: %v", body)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := map[string]string{
		`{"name":"A","email":"a@b.co"}`:  "Nome deve ter pelo menos 2 caracteres",
		`{"name":"Ana","email":"nope"}`: "E-mail inválido",
		`{"name":"Ana"}`:                "E-mail é obrigatório",
	}
	for payload, msg := range cases {
		code, body := do(t, http.MethodPut, srv.URL+"/api/user/1", payload)
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected %d, got %d", payload, http.StatusBadRequest, code)
		}
		if body["success"] != false || body["error"] != msg {
			t.Fatalf("%s: unexpected body %v", payload, body)
		}
	}

	code, _ := do(t, http.MethodPut, srv.URL+"/api/user/1", `{"name":`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, code)
	}

	code, _ = do(t, http.MethodPut, srv.URL+"/api/user/3", `{"name":"Ana","email":"a@b.co"}`)
	if code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, http.MethodGet, srv.URL+"/api/user/1/settings", "")
	if code != http.StatusOK || body["notificationsEnabled"] != true || body["darkModeEnabled"] != false {
		t.Fatalf("unexpected defaults: %d %v", code, body)
	}

	code, body = do(t, http.MethodPut, srv.URL+"/api/user/1/settings", `{"darkModeEnabled":true}`)
	if code != http.StatusOK || body["darkModeEnabled"] != true || body["notificationsEnabled"] != true {
		t.Fatalf("unexpected update: %d %v", code, body)
	}

	code, _ = do(t, http.MethodGet, srv.URL+"/api/user/4/settings", "")
	if code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, code)
	}
}
