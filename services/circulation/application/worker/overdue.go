package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghuser/bookcirc/pkg/logger"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

const instrumentationName = "github.com/ghuser/bookcirc/services/circulation/worker"

// OverdueSource produces the overdue report. *services.LoanService satisfies it.
type OverdueSource interface {
	Overdue(ctx context.Context) (*appsvcs.OverdueReport, error)
}

// OverdueReporter logs the overdue loans of every branch and records them
// in the circulation.overdue_loans gauge.
type OverdueReporter struct {
	source OverdueSource
	log    logger.Logger
	gauge  metric.Int64Gauge

	mu       sync.Mutex
	reported map[string]bool // branches with a non-zero gauge after the last run
}

// NewOverdueReporter returns a reporter reading from source.
func NewOverdueReporter(source OverdueSource, log logger.Logger) *OverdueReporter {
	g, _ := otel.Meter(instrumentationName).Int64Gauge("circulation.overdue_loans",
		metric.WithDescription("Open loans past their due date, by branch"))
	return &OverdueReporter{source: source, log: log.With("component", "overdue_report"), gauge: g}
}

// Run builds one report and returns it.
func (r *OverdueReporter) Run(ctx context.Context) (*appsvcs.OverdueReport, error) {
	report, err := r.source.Overdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("overdue report: %w", err)
	}

	r.log.InfoContext(ctx, "overdue report",
		"as_of", models.FormatDate(report.AsOf),
		"overdue_loans", len(report.Loans),
		"branches", len(report.ByTenant),
	)
	current := make(map[string]bool, len(report.ByTenant))
	for _, t := range report.ByTenant {
		tenant := "shared"
		if t.TenantID.Valid {
			tenant = t.TenantID.UUID.String()
		}
		r.log.InfoContext(ctx, "overdue loans by branch",
			"tenant_id", tenant,
			"loans", t.Loans,
			"max_days_overdue", t.MaxDaysOverdue,
		)
		r.record(ctx, tenant, t.Loans)
		current[tenant] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A branch missing from this report has no overdue loans left.
	for tenant := range r.reported {
		if !current[tenant] {
			r.record(ctx, tenant, 0)
		}
	}
	r.reported = current
	return report, nil
}

func (r *OverdueReporter) record(ctx context.Context, tenant string, loans int) {
	if r.gauge != nil {
		r.gauge.Record(ctx, int64(loans), metric.WithAttributes(attribute.String("tenant_id", tenant)))
	}
}

// Schedule registers the report on c under spec, e.g. "@hourly" or "0 7 * * *".
func (r *OverdueReporter) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		runCtx := logger.WithContextAttrs(ctx, "job", "overdue_report", "schedule", spec)
		if _, err := r.Run(runCtx); err != nil {
			r.log.ErrorContext(runCtx, "scheduled overdue report failed", "error", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule overdue report %q: %w", spec, err)
	}
	return id, nil
}
