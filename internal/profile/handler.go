package profile

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/k1networth/techdesk/internal/shared/httpx"
)

const (
	msgNotFound   = "Usuário não encontrado"
	msgBadRequest = "Requisição inválida"
	msgInternal   = "Erro interno do servidor"
)

type profileResponse struct {
	Success bool `json:"success"`
	Profile
}

type settingsResponse struct {
	Success bool `json:"success"`
	Settings
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Handler struct {
	Log   *slog.Logger
	Store Store
}

func (h *Handler) Mount(mux *http.ServeMux) {
	httpx.Handle(mux, "GET /api/user/{id}", h.GetProfile)
	httpx.Handle(mux, "PUT /api/user/{id}", h.UpdateProfile)
	httpx.Handle(mux, "GET /api/user/{id}/settings", h.GetSettings)
	httpx.Handle(mux, "PUT /api/user/{id}/settings", h.UpdateSettings)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "profile_get_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse{Success: true, Profile: p})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, failure{Error: msgBadRequest})
		return
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, failure{Error: err.Error()})
		return
	}

	p, err := h.Store.Update(r.Context(), id, req)
	if err != nil {
		h.writeStoreError(w, "profile_update_failed", err)
		return
	}
	h.Log.Info("profile_updated", slog.Int64("user_id", id))
	httpx.WriteJSON(w, http.StatusOK, profileResponse{Success: true, Profile: p})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	s, err := h.Store.GetSettings(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "settings_get_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingsResponse{Success: true, Settings: s})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var patch SettingsPatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, failure{Error: msgBadRequest})
		return
	}

	s, err := h.Store.UpdateSettings(r.Context(), id, patch)
	if err != nil {
		h.writeStoreError(w, "settings_update_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingsResponse{Success: true, Settings: s})
}

// userID parses the {id} path value. Ids that cannot exist are reported as not found.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteJSON(w, http.StatusNotFound, failure{Error: msgNotFound})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.WriteJSON(w, http.StatusNotFound, failure{Error: msgNotFound})
		return
	}
	h.Log.Error(event, slog.String("err", err.Error()))
	httpx.WriteJSON(w, http.StatusInternalServerError, failure{Error: msgInternal})
}
