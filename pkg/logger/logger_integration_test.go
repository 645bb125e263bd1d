package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newBufferLogger(buf *bytes.Buffer) Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &slogLogger{Logger: slog.New(&traceHandler{h})}
}

func installTracer(t *testing.T) {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
}

// lines decodes every JSON record in buf.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func last(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	all := lines(t, buf)
	if len(all) == 0 {
		t.Fatal("no log lines written")
	}
	return all[len(all)-1]
}

func TestTraceFields(t *testing.T) {
	installTracer(t)
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.InfoContext(context.Background(), "no span")
	entry := last(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id without an active span")
	}

	ctx, span := otel.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()
	log.ErrorContext(ctx, "checkout failed", "error", errors.New("out of stock"), "loan_id", "L-1")

	entry = last(t, &buf)
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entry["trace_id"], span.SpanContext().TraceID())
	}
	if entry["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("span_id = %v", entry["span_id"])
	}
	if entry["error"] != "out of stock" || entry["loan_id"] != "L-1" {
		t.Errorf("missing caller attributes: %v", entry)
	}
}

func TestChildSpanSharesTrace(t *testing.T) {
	installTracer(t)
	var buf bytes.Buffer
	log := newBufferLogger(&buf)
	tracer := otel.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "return")
	log.InfoContext(ctx, "parent")
	child, span := tracer.Start(ctx, "fulfil-reservation")
	log.InfoContext(child, "child")
	span.End()
	parent.End()

	got := lines(t, &buf)
	if len(got) != 2 {
		t.Fatalf("want 2 lines, got %d", len(got))
	}
	if got[0]["trace_id"] != got[1]["trace_id"] {
		t.Error("parent and child should share trace_id")
	}
	if got[0]["span_id"] == got[1]["span_id"] {
		t.Error("parent and child should have distinct span_id")
	}
}

func TestWithContextAttrs_OutsideRequest(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	ctx := WithContextAttrs(context.Background(), "job", "overdue_report")
	log.InfoContext(ctx, "started")
	if last(t, &buf)["job"] != "overdue_report" {
		t.Errorf("context attribute missing: %v", last(t, &buf))
	}

	log.InfoContext(context.Background(), "unrelated")
	if _, ok := last(t, &buf)["job"]; ok {
		t.Error("attribute leaked into an unrelated context")
	}
}

func TestMiddleware_RequestLine(t *testing.T) {
	installTracer(t)
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(log))
	// Stands in for auth: binds the caller after the request logger runs.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := WithContextAttrs(req.Context(), "user_id", "staff-7", "role", "staff")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/loans", func(w http.ResponseWriter, req *http.Request) {
		log.InfoContext(req.Context(), "checkout recorded")
		w.WriteHeader(http.StatusCreated)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/loans", http.NoBody))

	got := lines(t, &buf)
	if len(got) != 2 {
		t.Fatalf("want handler line and request line, got %d", len(got))
	}
	handler, request := got[0], got[1]
	if handler["user_id"] != "staff-7" {
		t.Errorf("handler line missing user_id: %v", handler)
	}
	if request["msg"] != "request" || request["method"] != "POST" || request["path"] != "/loans" {
		t.Errorf("unexpected request line: %v", request)
	}
	if request["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", request["status"])
	}
	if request["user_id"] != "staff-7" || request["role"] != "staff" {
		t.Errorf("request line missing caller attributes: %v", request)
	}
	if _, ok := request["request_id"]; !ok {
		t.Error("request line missing request_id")
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	h := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("ledger corrupted")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	entry := last(t, &buf)
	if entry["msg"] != "panic recovered" || entry["error"] != "ledger corrupted" {
		t.Errorf("unexpected panic log: %v", entry)
	}
	if s, _ := entry["stack"].(string); !strings.Contains(s, "goroutine") {
		t.Error("expected a stack trace")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
