// Package client talks to the techdesk HTTP API and keeps the signed-in user
// in device storage.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/k1networth/techdesk/internal/auth"
	"github.com/k1networth/techdesk/internal/profile"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is any non-2xx answer the client has no sentinel for.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. A nil hc gets a traced client with a 10s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// flatReply covers the {success, error, ...} bodies of the login and user routes.
type flatReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Identity, error) {
	var out struct {
		flatReply
		auth.Identity
	}
	err := c.do(ctx, http.MethodPost, "/api/login", auth.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return auth.Identity{}, err
	}
	return out.Identity, nil
}

func (c *Client) GetProfile(ctx context.Context, id int64) (profile.Profile, error) {
	var out struct {
		flatReply
		profile.Profile
	}
	if err := c.do(ctx, http.MethodGet, userPath(id), nil, &out); err != nil {
		return profile.Profile{}, err
	}
	return out.Profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id int64, req profile.UpdateRequest) (profile.Profile, error) {
	var out struct {
		flatReply
		profile.Profile
	}
	if err := c.do(ctx, http.MethodPut, userPath(id), req, &out); err != nil {
		return profile.Profile{}, err
	}
	return out.Profile, nil
}

func (c *Client) GetSettings(ctx context.Context, id int64) (profile.Settings, error) {
	var out struct {
		flatReply
		profile.Settings
	}
	if err := c.do(ctx, http.MethodGet, userPath(id)+"/settings", nil, &out); err != nil {
		return profile.Settings{}, err
	}
	return out.Settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, id int64, patch profile.SettingsPatch) (profile.Settings, error) {
	var out struct {
		flatReply
		profile.Settings
	}
	if err := c.do(ctx, http.MethodPut, userPath(id)+"/settings", patch, &out); err != nil {
		return profile.Settings{}, err
	}
	return out.Settings, nil
}

func userPath(id int64) string { return "/api/user/" + strconv.FormatInt(id, 10) }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		msg := errorMessage(raw)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		default:
			return &APIError{Status: resp.StatusCode, Message: msg}
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// errorMessage understands both the flat {"error":"..."} body and the
// {"error":{"message":"..."}} envelope.
func errorMessage(raw []byte) string {
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
