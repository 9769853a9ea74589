package middleware

import (
	"context"
	"net/http"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/auth"
	"github.com/mkravets/tasktracker/internal/httpx"
	"github.com/mkravets/tasktracker/internal/models"
)

// SessionResolver maps a session id to a user id ("" when absent/expired).
type SessionResolver interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// UserLoader fetches the user record behind a resolved session.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the session cookie, loads the user, and injects the
// resolved identity into the request context. A missing or dead session is
// answered uniformly with UNAUTHENTICATED; a store failure while loading the
// user propagates as-is so it surfaces as PERSISTENCE_FAILURE, not a 401.
func RequireAuth(sessions SessionResolver, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				httpx.WriteError(w, apperr.Unauthenticated())
				return
			}
			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				httpx.WriteError(w, apperr.Persistence("session lookup", err))
				return
			}
			if userID == "" {
				httpx.WriteError(w, apperr.Unauthenticated())
				return
			}
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				// A session pointing at a deleted user is just a dead
				// session; anything else is a real failure.
				if apperr.KindOf(err) == apperr.KindNotFound {
					err = apperr.Unauthenticated()
				}
				httpx.WriteError(w, err)
				return
			}
			ctx := auth.WithIdentity(r.Context(), auth.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
				Role:   user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
