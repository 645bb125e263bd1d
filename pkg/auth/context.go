package auth

import (
	"context"
	"errors"

	"github.com/ghuser/bookcirc/pkg/tenancy"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const callerKey contextKey = "caller"

// ErrCallerNotFound is returned when no Caller exists in the request context.
// Handlers should return 401 when this error occurs.
var ErrCallerNotFound = errors.New("caller not found in context")

// CallerFromCtx extracts the authenticated caller from the request context.
func CallerFromCtx(ctx context.Context) (tenancy.Caller, error) {
	c, ok := ctx.Value(callerKey).(tenancy.Caller)
	if !ok || c.UserID == "" {
		return tenancy.Caller{}, ErrCallerNotFound
	}
	return c, nil
}

// WithCaller returns a new context with the given caller attached.
// Used by authentication middleware after validating the session.
func WithCaller(ctx context.Context, c tenancy.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}
