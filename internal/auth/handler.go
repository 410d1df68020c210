package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/k1networth/techdesk/internal/shared/httpx"
)

const (
	msgLoginOK      = "Login realizado com sucesso!"
	msgInvalidCreds = "E-mail ou senha incorretos"
	msgBadRequest   = "Requisição inválida"
	msgInternal     = "Erro interno do servidor"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	Log     *slog.Logger
	Auth    Authenticator
	Metrics *Metrics
	// Limiter throttles POST /api/login per client IP when set.
	Limiter *httpx.IPRateLimiter
}

func (h *Handler) Mount(mux *http.ServeMux) {
	var login http.Handler = http.HandlerFunc(h.Login)
	if h.Limiter != nil {
		login = h.Limiter.Middleware(login)
	}
	httpx.Handle(mux, "POST /api/login", login.ServeHTTP)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.Metrics.observe("bad_request")
		httpx.WriteJSON(w, http.StatusBadRequest, loginResponse{Error: msgBadRequest})
		return
	}

	id, err := h.Auth.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.Metrics.observe("invalid")
		h.Log.Info("login_rejected")
		httpx.WriteJSON(w, http.StatusUnauthorized, loginResponse{Error: msgInvalidCreds})
		return
	case err != nil:
		h.Metrics.observe("error")
		h.Log.Error("login_failed", slog.String("err", err.Error()))
		httpx.WriteJSON(w, http.StatusInternalServerError, loginResponse{Error: msgInternal})
		return
	}

	h.Metrics.observe("success")
	h.Log.Info("login_succeeded", slog.Int64("user_id", id.ID))
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		ID:      id.ID,
		Name:    id.Name,
		Email:   id.Email,
		Message: msgLoginOK,
	})
}
