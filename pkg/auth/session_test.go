package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/bookcirc/pkg/tenancy"
)

const (
	testAuthKey = "test-auth-key-must-be-32-bytes!!"
	testEncKey  = "test-enc-key-must-be-32-bytes!!!"
)

func TestNewSessionStore_Options(t *testing.T) {
	s := NewSessionStore(nil, []byte(testAuthKey), []byte(testEncKey), true, 0)
	if s.options.MaxAge != int(DefaultSessionMaxAge/time.Second) {
		t.Errorf("MaxAge = %d, want default", s.options.MaxAge)
	}
	if !s.options.Secure || !s.options.HttpOnly || s.options.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie options: %+v", s.options)
	}

	s = NewSessionStore(nil, []byte(testAuthKey), []byte(testEncKey), false, 30*time.Minute)
	if s.options.MaxAge != 1800 {
		t.Errorf("MaxAge = %d, want 1800", s.options.MaxAge)
	}
}

func TestNew_WithoutCookieIsFresh(t *testing.T) {
	s := NewSessionStore(nil, []byte(testAuthKey), []byte(testEncKey), false, time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	r.AddCookie(&http.Cookie{Name: sessionName, Value: "forged"})

	session, err := s.New(r, sessionName)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !session.IsNew || session.ID != "" {
		t.Errorf("forged cookie should give a fresh session, got id=%q new=%v", session.ID, session.IsNew)
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := newSessionID(), newSessionID()
	if a == b || len(a) < 50 {
		t.Errorf("weak session ids: %q %q", a, b)
	}
	if key(a) != "bookcirc:session:"+a {
		t.Errorf("key = %q", key(a))
	}
}

// Requires REDIS_URL.
func TestRedisStore_CallerRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStore(client, []byte(testAuthKey), []byte(testEncKey), false, time.Minute)
	caller := tenancy.Caller{
		UserID:     "desk-" + uuid.NewString()[:8],
		Role:       tenancy.RoleStaff,
		HomeTenant: uuid.NullUUID{UUID: uuid.New(), Valid: true},
	}

	w := httptest.NewRecorder()
	if err := SaveCaller(store, w, httptest.NewRequest(http.MethodPost, "/", http.NoBody), caller); err != nil {
		t.Fatalf("SaveCaller: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("want one cookie, got %d", len(cookies))
	}

	var got tenancy.Caller
	h := RequireAuth(store, newTestLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = CallerFromCtx(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/circulation/loans", http.NoBody)
	r.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got != caller {
		t.Errorf("caller = %+v, want %+v", got, caller)
	}

	ttl, err := client.TTL(context.Background(), sessionKeyPrefix+mustID(t, store, cookies[0])).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, err = %v", ttl, err)
	}
}

func mustID(t *testing.T, s *RedisStore, c *http.Cookie) string {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	r.AddCookie(c)
	id, ok := s.cookieID(r, sessionName)
	if !ok {
		t.Fatal("cookie did not decode")
	}
	return id
}
