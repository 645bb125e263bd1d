package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/bookcirc/pkg/httpx"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
)

const sessionName = "bookcirc_session"

const (
	sessionUserIDKey     = "user_id"
	sessionRoleKey       = "role"
	sessionHomeTenantKey = "home_tenant_id"
)

// RequireAuth is a chi middleware that enforces authentication via session cookies.
// It reads the session cookie, rebuilds the Caller and injects it into the request context.
// Returns 401 Unauthorized if the session is missing, invalid, or lacks a user_id.
// A session without home_tenant_id yields a caller limited to shared records.
//
// After this middleware, handlers can safely call auth.CallerFromCtx(r.Context()).
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				log.WarnContext(r.Context(), "invalid session cookie", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, ok := session.Values[sessionUserIDKey].(string)
			if !ok || userID == "" {
				log.WarnContext(r.Context(), "session missing user_id")
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			caller := tenancy.Caller{UserID: userID}
			role, _ := session.Values[sessionRoleKey].(string)
			caller.Role = tenancy.ParseRole(role)

			if raw, _ := session.Values[sessionHomeTenantKey].(string); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					log.WarnContext(r.Context(), "invalid home_tenant_id in session", "home_tenant_id", raw, "error", err)
					httpx.JSONError(w, http.StatusUnauthorized, "invalid session data")
					return
				}
				caller.HomeTenant = uuid.NullUUID{UUID: id, Valid: true}
			}

			ctx := logger.WithContextAttrs(WithCaller(r.Context(), caller),
				"user_id", caller.UserID,
				"role", string(caller.Role),
				"home_tenant_id", homeTenantLabel(caller.HomeTenant),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func homeTenantLabel(t uuid.NullUUID) string {
	if !t.Valid {
		return "none"
	}
	return t.UUID.String()
}

// SaveCaller writes caller into the request's session and sets the cookie.
func SaveCaller(store sessions.Store, w http.ResponseWriter, r *http.Request, caller tenancy.Caller) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return err
	}
	session.Values[sessionUserIDKey] = caller.UserID
	session.Values[sessionRoleKey] = string(caller.Role)
	if caller.HomeTenant.Valid {
		session.Values[sessionHomeTenantKey] = caller.HomeTenant.UUID.String()
	} else {
		delete(session.Values, sessionHomeTenantKey)
	}
	return session.Save(r, w)
}
