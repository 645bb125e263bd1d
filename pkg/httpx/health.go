package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any dependency exposing Ping: the database,
// RedisClient, EventBus and migrator.SchemaCheck all qualify.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the dependencies checked by the health endpoint.
// Schema is optional; when set, a database missing migrations reports
// "behind" and the endpoint answers 503 so the instance is kept out of rotation.
type HealthChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
	Schema   HealthChecker
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	EventBus string `json:"event_bus"`
	Schema   string `json:"schema,omitempty"`
}

// HealthHandler pings every configured checker within 2s and reports
// "degraded" with 503 when any of them fails.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		ping := func(c HealthChecker, failed string) string {
			if err := c.Ping(ctx); err != nil {
				resp.Status = "degraded"
				return failed
			}
			return "ok"
		}

		resp.Database = ping(checks.Database, "unreachable")
		resp.Redis = ping(checks.Redis, "unreachable")
		resp.EventBus = ping(checks.EventBus, "unreachable")
		if checks.Schema != nil {
			resp.Schema = ping(checks.Schema, "behind")
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
