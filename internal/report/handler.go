package report

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/k1networth/techdesk/internal/order"
	"github.com/k1networth/techdesk/internal/shared/httpx"
)

// Lister is the read side of order.Store.
type Lister interface {
	List(ctx context.Context) ([]order.Order, error)
}

type Handler struct {
	Log    *slog.Logger
	Orders Lister
}

func (h *Handler) Mount(mux *http.ServeMux) {
	httpx.Handle(mux, "GET /api/reports/orders", h.OrdersReport)
}

func (h *Handler) OrdersReport(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List(r.Context())
	if err != nil {
		h.Log.Error("report_orders_failed", slog.String("err", err.Error()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Build(orders))
}
