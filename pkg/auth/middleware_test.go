package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
)

// newTestStore returns a gorilla CookieStore (no Redis required) for unit tests.
// In production the RedisStore is used; the sessions.Store interface is identical.
func newTestStore() sessions.Store {
	return sessions.NewCookieStore(
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
	)
}

// newTestLogger creates a logger that discards output.
func newTestLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

// requestWithValues builds an *http.Request carrying a session cookie with values.
func requestWithValues(t *testing.T, store sessions.Store, values map[string]string) *http.Request {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/circulation/loans", nil)

	session, err := store.Get(r, sessionName)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	for k, v := range values {
		session.Values[k] = v
	}
	if err := session.Save(r, w); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/circulation/loans", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequireAuth_ValidSession(t *testing.T) {
	store := newTestStore()
	home := uuid.New()

	var captured tenancy.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = CallerFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := requestWithValues(t, store, map[string]string{
		sessionUserIDKey:     "librarian-7",
		sessionRoleKey:       "staff",
		sessionHomeTenantKey: home.String(),
	})
	w := httptest.NewRecorder()
	RequireAuth(store, newTestLogger())(next).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured.UserID != "librarian-7" || captured.Role != tenancy.RoleStaff {
		t.Fatalf("unexpected caller %+v", captured)
	}
	if !captured.HomeTenant.Valid || captured.HomeTenant.UUID != home {
		t.Fatalf("expected home tenant %v, got %+v", home, captured.HomeTenant)
	}
}

func TestRequireAuth_AdminWithoutHome(t *testing.T) {
	store := newTestStore()

	var captured tenancy.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = CallerFromCtx(r.Context())
	})

	r := requestWithValues(t, store, map[string]string{sessionUserIDKey: "root", sessionRoleKey: "ADMIN"})
	w := httptest.NewRecorder()
	RequireAuth(store, newTestLogger())(next).ServeHTTP(w, r)

	if !captured.Privileged() {
		t.Fatalf("expected privileged caller, got %+v", captured)
	}
	if captured.HomeTenant.Valid {
		t.Fatalf("expected no home tenant, got %+v", captured.HomeTenant)
	}
}

func TestRequireAuth_UnknownRoleIsStaff(t *testing.T) {
	store := newTestStore()

	var captured tenancy.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = CallerFromCtx(r.Context())
	})

	r := requestWithValues(t, store, map[string]string{sessionUserIDKey: "x", sessionRoleKey: "superuser"})
	RequireAuth(store, newTestLogger())(next).ServeHTTP(httptest.NewRecorder(), r)

	if captured.Privileged() {
		t.Fatal("unknown role must not be privileged")
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"missing cookie", nil},
		{"session missing user_id", map[string]string{sessionRoleKey: "admin"}},
		{"invalid home tenant", map[string]string{sessionUserIDKey: "u", sessionHomeTenantKey: "not-a-valid-uuid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not be called")
			})

			r := httptest.NewRequest(http.MethodGet, "/api/circulation/loans", nil)
			if tt.values != nil {
				r = requestWithValues(t, store, tt.values)
			}
			w := httptest.NewRecorder()
			RequireAuth(store, newTestLogger())(next).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestDevSessionHandler_RoundTrip(t *testing.T) {
	store := newTestStore()
	log := newTestLogger()
	home := uuid.New()

	body := `{"user_id":"dev","role":"staff","home_tenant_id":"` + home.String() + `"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/dev/session", strings.NewReader(body))
	NewDevSessionHandler(store, log).Execute(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp DevSessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.HomeTenantID != home.String() {
		t.Fatalf("unexpected response %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/circulation/loans", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	var captured tenancy.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = CallerFromCtx(r.Context())
	})
	RequireAuth(store, log)(next).ServeHTTP(httptest.NewRecorder(), req)

	if captured.UserID != "dev" || captured.HomeTenant.UUID != home {
		t.Fatalf("session did not round-trip: %+v", captured)
	}
}

func TestDevSessionHandler_Validation(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/dev/session", strings.NewReader(`{"user_id":"dev","role":"owner"}`))
	NewDevSessionHandler(newTestStore(), newTestLogger()).Execute(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
