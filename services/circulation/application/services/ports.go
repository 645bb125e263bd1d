package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/logger"
)

// AuditPublisher delivers audit events. The event bus implementation lives
// in infrastructure/messaging.
type AuditPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// PolicyCache holds the raw circulation settings between requests.
// Get returns redis.Nil on a miss.
type PolicyCache interface {
	Get(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, settings map[string]string) error
	Delete(ctx context.Context) error
}

// Ref points at an item or member either by id or by natural key.
// ID wins when both are set.
type Ref struct {
	ID  uuid.UUID
	Key string
}

// IsZero reports whether the reference names nothing.
func (r Ref) IsZero() bool {
	return r.ID == uuid.Nil && r.Key == ""
}

// auditor emits audit events after commit. Emission is best-effort: a
// failure is logged and never undoes the committed change.
type auditor struct {
	pub AuditPublisher
	log logger.Logger
}

func (a auditor) emit(ctx context.Context, topic string, event any) {
	if a.pub == nil {
		return
	}
	if err := a.pub.Publish(ctx, topic, event); err != nil {
		a.log.ErrorContext(ctx, "audit event emission failed", "topic", topic, "error", err)
	}
}

func systemClock() time.Time { return time.Now().UTC() }
