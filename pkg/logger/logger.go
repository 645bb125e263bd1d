// Package logger is the structured JSON logger shared by the api, the worker
// and circctl. Records written with a context carry trace_id, span_id and
// request_id plus any attributes bound to the request with WithContextAttrs.
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/bookcirc/pkg/config"
)

// Logger is the logging surface every package depends on.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	// With returns a child Logger with args bound to every record.
	With(args ...any) Logger
	// ToSlog exposes the *slog.Logger for libraries that want one (goose, watermill).
	ToSlog() *slog.Logger
}

// New returns a JSON Logger on stdout at cfg.LogLevel.
func New(cfg *config.Config) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	return &slogLogger{Logger: slog.New(&traceHandler{slog.NewJSONHandler(os.Stdout, opts)})}
}

type slogLogger struct {
	*slog.Logger
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{Logger: l.Logger.With(args...)}
}

func (l *slogLogger) ToSlog() *slog.Logger {
	return l.Logger
}

// ctxAttrs holds attributes bound to one request. Middleware installs it
// before the handler chain runs so attributes added by inner middleware
// (the authenticated caller, for instance) reach the request log line too.
type ctxAttrs struct {
	mu   sync.Mutex
	args []any
}

type ctxAttrsKey struct{}

// WithContextAttrs binds key-value pairs to ctx. Every record logged with a
// context derived from the same request carries them. Outside Middleware the
// returned context starts a fresh set.
func WithContextAttrs(ctx context.Context, args ...any) context.Context {
	if bag, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs); ok {
		bag.mu.Lock()
		bag.args = append(bag.args, args...)
		bag.mu.Unlock()
		return ctx
	}
	return context.WithValue(ctx, ctxAttrsKey{}, &ctxAttrs{args: append([]any(nil), args...)})
}

func contextAttrs(ctx context.Context) []any {
	bag, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return nil
	}
	bag.mu.Lock()
	defer bag.mu.Unlock()
	return append([]any(nil), bag.args...)
}

type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if args := contextAttrs(ctx); len(args) > 0 {
		r.Add(args...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{h.Handler.WithGroup(name)}
}

// Middleware logs one line per request once the handler chain returns.
func Middleware(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := context.WithValue(r.Context(), ctxAttrsKey{}, &ctxAttrs{})
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			log.InfoContext(ctx, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"latency_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
