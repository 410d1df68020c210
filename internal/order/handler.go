package order

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/k1networth/techdesk/internal/shared/httpx"
)

type Handler struct {
	Log     *slog.Logger
	Store   Store
	Metrics *Metrics
}

func (h *Handler) Mount(mux *http.ServeMux) {
	httpx.Handle(mux, "POST /api/orders", h.CreateOrder)
	httpx.Handle(mux, "GET /api/orders", h.ListOrders)
	httpx.Handle(mux, "GET /api/orders/{id}", h.GetOrder)
	httpx.Handle(mux, "POST /api/orders/{id}/advance", h.AdvanceOrder)
	httpx.Handle(mux, "POST /api/orders/{id}/cancel", h.CancelOrder)
	httpx.Handle(mux, "DELETE /api/orders/{id}", h.DeleteOrder)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	created, err := h.Store.Create(r.Context(), NewOrder(req, time.Now()))
	if err != nil {
		h.Log.Error("order_create_failed", slog.String("err", err.Error()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	h.Log.Info("order_created", slog.String("order_id", created.ID))
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.List(r.Context())
	if err != nil {
		h.Log.Error("order_list_failed", slog.String("err", err.Error()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	o, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "order_get_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, AdvanceTransition)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, CancelTransition)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, next Transition) {
	id := strings.TrimSpace(r.PathValue("id"))

	o, prev, err := h.Store.UpdateStatus(r.Context(), id, next)
	if err != nil {
		h.writeStoreError(w, r, "order_status_update_failed", err)
		return
	}

	h.Metrics.observe(prev, o.Status)
	if prev != o.Status {
		h.Log.Info("order_status_changed",
			slog.String("order_id", o.ID),
			slog.String("from", string(prev)),
			slog.String("to", string(o.Status)),
		)
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "order_delete_failed", err)
		return
	}

	h.Log.Info("order_deleted", slog.String("order_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, event string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, ErrCanceled):
		httpx.WriteError(w, r, http.StatusConflict, "order_canceled", "canceled orders cannot change status")
	default:
		h.Log.Error(event, slog.String("err", err.Error()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
