package task

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/auth"
	"github.com/mkravets/tasktracker/internal/httpx"
	"github.com/mkravets/tasktracker/internal/validate"
)

// Handler holds the task HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/tasks with filter/sort/page query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	q, err := validate.TaskQuery(r.URL.Query())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	res, err := h.svc.List(r.Context(), id.UserID, q)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Get handles GET /api/tasks/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	resp, err := h.svc.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	var req validate.TaskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	draft, err := validate.TaskCreate(req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := h.svc.Create(r.Context(), id.UserID, draft)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// Update handles PATCH /api/tasks/{id}. The body is decoded as raw JSON
// members so absent fields and explicit nulls stay distinguishable.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	patch, err := validate.TaskPatch(raw)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := h.svc.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
