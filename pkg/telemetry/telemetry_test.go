package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/bookcirc/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ServiceName:    "bookcirc",
		ServiceVersion: "test",
		Environment:    config.EnvTesting,
		OtelEndpoint:   "", // exporters disabled
	}
}

func TestSetup_NoOtelEndpoint(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil || handler == nil {
		t.Fatal("expected shutdown and metrics handler")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

// setup shuts the providers down after the test so a stale Prometheus
// collector never joins a later scrape.
func setup(t *testing.T) http.Handler {
	t.Helper()
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return handler
}

func TestSetup_InstallsTraceContextPropagator(t *testing.T) {
	setup(t)

	fields := otel.GetTextMapPropagator().Fields()
	joined := strings.Join(fields, ",")
	if !strings.Contains(joined, "traceparent") || !strings.Contains(joined, "baggage") {
		t.Fatalf("expected traceparent and baggage fields, got %v", fields)
	}

	// Audit messages carry this carrier in their metadata.
	ctx, span := otel.Tracer("test").Start(context.Background(), "circulation.Checkout")
	defer span.End()
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Fatalf("expected traceparent in carrier, got %v", carrier)
	}
}

func TestSetup_CirculationCountersExported(t *testing.T) {
	handler := setup(t)

	counter, err := otel.Meter("github.com/ghuser/bookcirc/services/circulation").Int64Counter("circulation.checkouts")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(context.Background(), 1)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text/plain content-type, got %q", ct)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "circulation_checkouts") {
		t.Errorf("expected circulation_checkouts in scrape output")
	}
}

func TestCaptureWarning_NoClient(t *testing.T) {
	// Without SetupSentry the current hub has no client; this must not panic.
	CaptureWarning(context.Background(), errors.New("available 3 exceeds copies 2"), map[string]string{"item_id": "x"})
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{1.5, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.ratio).Description(); !strings.Contains(got, tt.want) {
			t.Errorf("sampler(%v) = %s, want it to contain %s", tt.ratio, got, tt.want)
		}
	}
}
