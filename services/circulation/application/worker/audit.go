// Package worker holds the background jobs of the circulation service: the
// audit sink fed by the event bus and the scheduled overdue report.
package worker

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/services/circulation/domain/events"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/messaging"
)

// AuditSink writes every circulation event as one structured audit record.
// A policy.updated event also drops the cached policy so other instances
// pick up the change before the cache TTL runs out.
type AuditSink struct {
	log        logger.Logger
	invalidate func(context.Context)
}

// NewAuditSink returns an AuditSink. invalidate may be nil.
func NewAuditSink(log logger.Logger, invalidate func(context.Context)) *AuditSink {
	return &AuditSink{log: log.With("component", "audit_sink"), invalidate: invalidate}
}

// Handle processes one message from topic. Undecodable payloads are logged
// and acknowledged; retrying them cannot succeed.
func (s *AuditSink) Handle(ctx context.Context, topic string, msg *message.Message) error {
	var env events.Envelope
	if err := messaging.Decode(msg, &env); err != nil {
		s.log.ErrorContext(ctx, "dropping malformed audit event",
			"topic", topic,
			"message_uuid", msg.UUID,
			"error", err,
		)
		return nil
	}

	tenant := "shared"
	if env.TenantID.Valid {
		tenant = env.TenantID.UUID.String()
	}
	s.log.InfoContext(ctx, "circulation audit",
		"topic", topic,
		"event_id", env.EventID,
		"event_version", env.Version,
		"actor_id", env.ActorID,
		"tenant_id", tenant,
		"occurred_at", env.OccurredAt,
		"payload", string(msg.Payload),
	)

	if topic == events.TopicPolicyUpdated && s.invalidate != nil {
		s.invalidate(ctx)
	}
	return nil
}
