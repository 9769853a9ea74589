package category

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/auth"
	"github.com/mkravets/tasktracker/internal/httpx"
	"github.com/mkravets/tasktracker/internal/models"
)

// Handler holds the category HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/categories.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	cats, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cats)
}

// Create handles POST /api/categories.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	resp, err := h.svc.Create(r.Context(), id.UserID, req.Name)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// Rename handles PUT /api/categories/{id}.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	resp, err := h.svc.Rename(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/categories/{id}.
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
