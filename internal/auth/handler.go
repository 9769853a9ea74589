package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/httpx"
	"github.com/mkravets/tasktracker/internal/models"
	"github.com/mkravets/tasktracker/internal/store"
)

// FileStore defines the interface for avatar object storage. The store owns
// the content-type allow-list, the size cap, and key generation; Put returns
// the key the image landed under.
type FileStore interface {
	Put(ctx context.Context, userID string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc      *Service
	users    UserStore
	sessions *SessionStore
	avatars  FileStore
}

func NewHandler(svc *Service, users UserStore, sessions *SessionStore, avatars FileStore) *Handler {
	return &Handler{svc: svc, users: users, sessions: sessions, avatars: avatars}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	sid, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		httpx.WriteError(w, apperr.Persistence("session create", err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL() / time.Second),
	})
	httpx.WriteJSON(w, http.StatusOK, user)
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Delete(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	user, err := h.users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the caller's display name.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"body": "invalid JSON"}))
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), id.UserID, req.Name)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// UploadAvatar accepts a multipart "avatar" file, stores it, and replaces
// any previous object.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	if err := r.ParseMultipartForm(store.MaxAvatarBytes); err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"avatar": "multipart body required, at most 2 MiB"}))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		httpx.WriteError(w, apperr.Validation(map[string]string{"avatar": "file field is required"}))
		return
	}
	defer file.Close()

	// Read one byte past the cap so the store can tell oversize from exact.
	data, err := io.ReadAll(io.LimitReader(file, store.MaxAvatarBytes+1))
	if err != nil {
		httpx.WriteError(w, apperr.Persistence("avatar read", err))
		return
	}

	prior, err := h.users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	key, err := h.avatars.Put(r.Context(), id.UserID, data, header.Header.Get("Content-Type"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	user, err := h.users.UpdateUserAvatar(r.Context(), id.UserID, key)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if prior.AvatarKey != "" {
		h.avatars.Remove(r.Context(), prior.AvatarKey)
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// GetAvatar streams the caller's avatar image.
func (h *Handler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated())
		return
	}
	user, err := h.users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if user.AvatarKey == "" {
		httpx.WriteError(w, apperr.NotFound("avatar"))
		return
	}
	data, contentType, err := h.avatars.Get(r.Context(), user.AvatarKey)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
