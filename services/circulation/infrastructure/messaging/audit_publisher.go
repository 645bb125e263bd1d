// Package messaging publishes circulation audit events on the event bus.
package messaging

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	jsoniter "github.com/json-iterator/go"

	"github.com/ghuser/bookcirc/services/circulation/domain/events"
)

// Metadata keys set on every audit message.
const (
	MetaEventID      = "event_id"
	MetaEventVersion = "event_version"
	MetaTenantID     = "tenant_id"
	MetaActorID      = "actor_id"
)

// Bus is the part of events.EventBus the publisher needs.
type Bus interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// AuditPublisher encodes audit events as JSON watermill messages.
type AuditPublisher struct {
	bus Bus
}

// NewAuditPublisher returns an AuditPublisher sending through bus.
func NewAuditPublisher(bus Bus) *AuditPublisher {
	return &AuditPublisher{bus: bus}
}

// Publish sends event to topic. Envelope fields are copied into message
// metadata so subscribers can deduplicate without decoding the payload.
func (p *AuditPublisher) Publish(ctx context.Context, topic string, event any) error {
	msg, err := NewMessage(event)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, topic, msg)
}

// NewMessage encodes event into a watermill message.
func NewMessage(event any) (*message.Message, error) {
	payload, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if h, ok := event.(events.Headed); ok {
		env := h.Header()
		msg.Metadata.Set(MetaEventID, env.EventID.String())
		msg.Metadata.Set(MetaEventVersion, strconv.Itoa(env.Version))
		if env.TenantID.Valid {
			msg.Metadata.Set(MetaTenantID, env.TenantID.UUID.String())
		}
		if env.ActorID != "" {
			msg.Metadata.Set(MetaActorID, env.ActorID)
		}
	}
	return msg, nil
}

// Decode unmarshals a message payload into dst.
func Decode(msg *message.Message, dst any) error {
	if err := jsoniter.ConfigFastest.Unmarshal(msg.Payload, dst); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	return nil
}
