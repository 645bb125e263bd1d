package services

import (
	"context"
	"fmt"

	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/telemetry"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
)

// Ledger keeps an item's available count consistent with its open loans.
// Callers run it inside the unit of work that writes the loan, holding the
// item row lock, so the read-check-write never interleaves with another request.
type Ledger struct {
	log     logger.Logger
	metrics *metrics
}

// NewLedger returns a Ledger that logs invariant violations to log and
// reports them to Sentry.
func NewLedger(log logger.Logger) *Ledger {
	return &Ledger{log: log, metrics: newMetrics()}
}

// Current returns the item's loanable count, healing an invalid stored value.
func (l *Ledger) Current(ctx context.Context, repos repositories.Repositories, item *models.Item) (int, error) {
	open := 0
	if _, ok := item.StoredAvailable(); !ok {
		n, err := repos.Loans.CountOpenByItem(ctx, item.ID)
		if err != nil {
			return 0, fmt.Errorf("count open loans: %w", err)
		}
		open = n
	}

	a := domainsvcs.ResolveAvailable(item, open)
	if a.Violation != nil {
		add(ctx, l.metrics.violations)
		telemetry.CaptureWarning(ctx, a.Violation, map[string]string{"item_id": item.ID.String(), "ledger": "current"})
		l.log.WarnContext(ctx, "stored availability invalid, recomputed from open loans",
			"item_id", item.ID,
			"copies", item.Copies,
			"open_loans", open,
			"available", a.Value,
			"error", a.Violation,
		)
	}
	return a.Value, nil
}

// Adjust applies delta to the item's available count, clamped to
// [0, copies], persists it and returns the new value.
func (l *Ledger) Adjust(ctx context.Context, repos repositories.Repositories, item *models.Item, delta int) (int, error) {
	current, err := l.Current(ctx, repos, item)
	if err != nil {
		return 0, err
	}

	next, violation := domainsvcs.ApplyDelta(current, delta, item.Copies)
	if violation != nil {
		add(ctx, l.metrics.violations)
		telemetry.CaptureWarning(ctx, violation, map[string]string{"item_id": item.ID.String(), "ledger": "adjust"})
		l.log.WarnContext(ctx, "availability adjustment clamped",
			"item_id", item.ID,
			"current", current,
			"delta", delta,
			"copies", item.Copies,
			"error", violation,
		)
	}

	if err := repos.Items.UpdateAvailable(ctx, item.ID, next); err != nil {
		return 0, fmt.Errorf("update available: %w", err)
	}
	item.SetAvailable(next)
	return next, nil
}
