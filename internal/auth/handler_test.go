package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/k1networth/techdesk/internal/auth"
	"github.com/k1networth/techdesk/internal/shared/httpx"
)

type loginBody struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newServer(t *testing.T, limiter *httpx.IPRateLimiter) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	h := &auth.Handler{Log: log, Auth: newAuthenticator(t), Metrics: auth.NewMetrics(reg), Limiter: limiter}
	srv := httptest.NewServer(httpx.NewRouter(log, httpx.RouterOptions{}, h))
	t.Cleanup(srv.Close)
	return srv, reg
}

func postLogin(t *testing.T, srv *httptest.Server, body string) (int, loginBody) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/login", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out loginBody
	if resp.StatusCode != http.StatusTooManyRequests {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, out
}

func TestLoginSuccess(t *testing.T) {
	srv, reg := newServer(t, nil)

	code, body := postLogin(t, srv, `{"email":"sousa@gmail.com","password":"123456"}`)
	if code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, code)
	}
	want := loginBody{Success: true, ID: 1, Name: "Cauã Sousa", Email: "sousa@gmail.com", Message: "Login realizado com sucesso!"}
	if body != want {
		t.Fatalf("expected %+v, got %+v", want, body)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 1 || mfs[0].GetName() != "login_attempts_total" {
		t.Fatalf("expected login_attempts_total to be registered")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv, _ := newServer(t, nil)

	for _, payload := range []string{
		`{"email":"sousa@gmail.com","password":"wrong"}`,
		`{"email":"someone@gmail.com","password":"123456"}`,
		`{"email":"","password":""}`,
		`{"email":"sousa@gmail.com","password":"123456\u0000123456"}`,
	} {
		code, body := postLogin(t, srv, payload)
		if code != http.StatusUnauthorized {
			t.Fatalf("%s: expected %d, got %d", payload, http.StatusUnauthorized, code)
		}
		if body.Success || body.Error != "E-mail ou senha incorretos" {
			t.Fatalf("%s: unexpected body %+v", payload, body)
		}
	}
}

func TestLoginMalformedJSON(t *testing.T) {
	srv, _ := newServer(t, nil)

	for _, payload := range []string{`{`, ``, `{"email":"a","password":"b","extra":1}`} {
		code, body := postLogin(t, srv, payload)
		if code != http.StatusBadRequest {
			t.Fatalf("%q: expected %d, got %d", payload, http.StatusBadRequest, code)
		}
		if body.Success || body.Error == "" {
			t.Fatalf("%q: unexpected body %+v", payload, body)
		}
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv, _ := newServer(t, httpx.NewIPRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		if code, _ := postLogin(t, srv, `{"email":"x","password":"y"}`); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected %d, got %d", i, http.StatusUnauthorized, code)
		}
	}
	if code, _ := postLogin(t, srv, `{"email":"x","password":"y"}`); code != http.StatusTooManyRequests {
		t.Fatalf("expected %d, got %d", http.StatusTooManyRequests, code)
	}
}

func TestLoginMetricsByResult(t *testing.T) {
	srv, reg := newServer(t, nil)

	postLogin(t, srv, `{"email":"sousa@gmail.com","password":"123456"}`)
	postLogin(t, srv, `{"email":"sousa@gmail.com","password":"nope"}`)
	postLogin(t, srv, `{"email":"sousa@gmail.com","password":"nope"}`)

	if n, err := testutil.GatherAndCount(reg, "login_attempts_total"); err != nil || n != 2 {
		t.Fatalf("expected 2 result series, got %d (err %v)", n, err)
	}
}
