package workflow

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/k1networth/techdesk/internal/shared/httpx"
)

type Handler struct {
	Log     *slog.Logger
	Store   *Store
	Metrics *Metrics
}

func (h *Handler) Mount(mux *http.ServeMux) {
	httpx.Handle(mux, "POST /api/workflows", h.CreateWorkflow)
	httpx.Handle(mux, "GET /api/workflows/{id}", h.GetWorkflow)
	httpx.Handle(mux, "POST /api/workflows/{id}/approve", h.ApproveWorkflow)
}

func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	p, err := h.Store.Create(r.Context(), NewProject(req, time.Now()))
	if err != nil {
		h.writeStoreError(w, r, "workflow_create_failed", err)
		return
	}
	h.Log.Info("workflow_created", slog.String("workflow_id", p.ID))
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, r, "workflow_get_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ApproveWorkflow(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, r, "workflow_approve_failed", err)
		return
	}
	h.Metrics.observe("approve", 1)
	h.Log.Info("workflow_approved", slog.String("workflow_id", p.ID), slog.String("status", p.Status))
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, event string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, ErrCompleted):
		httpx.WriteError(w, r, http.StatusConflict, "workflow_completed", "workflow is already completed")
	default:
		h.Log.Error(event, slog.String("err", err.Error()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
