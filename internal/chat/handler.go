package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/k1networth/techdesk/internal/shared/httpx"
)

type sendRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type Handler struct {
	Log  *slog.Logger
	Chat *Service
}

func (h *Handler) Mount(mux *http.ServeMux) {
	httpx.Handle(mux, "POST /api/chat/sessions", h.OpenSession)
	httpx.Handle(mux, "GET /api/chat/sessions/{id}/messages", h.ListMessages)
	httpx.Handle(mux, "POST /api/chat/sessions/{id}/messages", h.SendMessage)
	httpx.Handle(mux, "DELETE /api/chat/sessions/{id}/messages", h.ClearMessages)
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.Chat.Open(r.Context())
	if err != nil {
		h.writeError(w, r, "chat_open_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Chat.History(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, "chat_list_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	msgs, err := h.Chat.Send(r.Context(), r.PathValue("id"), req.Text, req.Category)
	if err != nil {
		h.writeError(w, r, "chat_send_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"messages": msgs})
}

func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.Chat.Clear(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, "chat_clear_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, event string, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, ErrSessionNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "not found")
	default:
		h.Log.Error(event, slog.String("err", err.Error()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
