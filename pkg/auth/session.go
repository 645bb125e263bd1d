// Package auth resolves the caller of every circulation request from a
// server-side session: user id, role and home branch.
//
// Session keys: 32 or 64 bytes for HMAC, 16, 24 or 32 bytes for AES.
// Generate production keys with:
//
//	openssl rand -base64 32
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "bookcirc:session:"

	// DefaultSessionMaxAge applies when NewSessionStore gets a non-positive maxAge.
	DefaultSessionMaxAge = 12 * time.Hour
)

// RedisStore is a sessions.Store keeping session values in Redis under
// "bookcirc:session:<id>". The cookie only carries the signed, encrypted id.
// Values are gob-encoded; the Redis TTL matches the cookie MaxAge.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	options *sessions.Options
}

// NewSessionStore returns a Redis-backed store. secureCookie restricts the
// cookie to HTTPS and should be set in production. maxAge is the session
// lifetime, by default one desk shift.
//
//	store := auth.NewSessionStore(
//	    app.Redis.Client(),
//	    []byte(cfg.SessionAuthKey),
//	    []byte(cfg.SessionEncryptionKey),
//	    cfg.Environment == config.EnvProduction,
//	    cfg.SessionMaxAge,
//	)
func NewSessionStore(client *redis.Client, authKey, encryptionKey []byte, secureCookie bool, maxAge time.Duration) *RedisStore {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(authKey, encryptionKey),
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(maxAge / time.Second),
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the request's session, cached per request by gorilla's registry.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie, or an id Redis no longer holds, yields a fresh session and
// no error so RequireAuth can answer 401 itself.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	id, ok := s.cookieID(r, name)
	if !ok {
		return session, nil
	}
	values, err := s.load(r.Context(), id)
	if err != nil {
		return session, nil
	}
	session.ID = id
	session.Values = values
	session.IsNew = false
	return session, nil
}

func (s *RedisStore) cookieID(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return "", false
	}
	return id, true
}

// Save stores the session in Redis and sets the cookie. A negative MaxAge
// logs the caller out: the Redis key is removed and the cookie expired.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		var err error
		if session.ID != "" {
			err = s.client.Del(r.Context(), key(session.ID)).Err()
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.store(r.Context(), session.ID, session.Values, ttl); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func key(id string) string { return sessionKeyPrefix + id }

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

func (s *RedisStore) store(ctx context.Context, id string, values map[any]any, ttl time.Duration) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	if err := s.client.Set(ctx, key(id), buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string) (map[any]any, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	values := make(map[any]any)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode session values: %w", err)
	}
	return values, nil
}
