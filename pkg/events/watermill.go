// Package events carries circulation audit events over PostgreSQL using
// Watermill's SQL transport. The api publishes after each committed
// transaction; the worker subscribes and writes the audit log.
//
// All worker replicas share one consumer group, so each event is handled by a
// single replica. A handler error is retried with exponential backoff and the
// message is nacked once the retries run out, so handlers must be idempotent.
//
// Publish copies the caller's trace context into message metadata and
// Subscribe restores it, so a checkout span and its audit span share a trace.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second
	errBuffer       = 100

	// outboxTopic holds enveloped messages until the forwarder relays them.
	outboxTopic         = "circulation_outbox"
	outboxConsumerGroup = "circulation-outbox-relay"
)

var (
	errNotForwarder     = errors.New("events: bus was not created with a forwarder")
	errForwarderStarted = errors.New("events: forwarder already started")
)

// EventBus publishes and consumes circulation events stored in PostgreSQL.
type EventBus struct {
	db         *sql.DB
	log        logger.Logger
	wlog       watermill.LoggerAdapter
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber

	outbox bool
	fwd    *forwarder.Forwarder
	wg     sync.WaitGroup
}

// NewEventBus publishes straight to the target topic. The worker uses it.
func NewEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return open(cfg, log, false)
}

// NewEventBusWithForwarder routes Publish through an outbox topic. A message
// accepted by Publish survives a crash of the api; StartForwarder relays it
// to the audit topic it was addressed to.
func NewEventBusWithForwarder(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return open(cfg, log, true)
}

func open(cfg *config.Config, log logger.Logger, outbox bool) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}
	b := &EventBus{db: db, log: log, wlog: &slogAdapter{log: log}, outbox: outbox}

	pub, err := b.newPublisher()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	b.publisher = pub
	if outbox {
		b.publisher = forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic})
	}

	b.subscriber, err = b.newSubscriber(cfg.ServiceName + "-audit")
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *EventBus) newPublisher() (*watermillsql.Publisher, error) {
	pub, err := watermillsql.NewPublisher(b.db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: true,
	}, b.wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	return pub, nil
}

func (b *EventBus) newSubscriber(group string) (*watermillsql.Subscriber, error) {
	sub, err := watermillsql.NewSubscriber(b.db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, b.wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber %s: %w", group, err)
	}
	return sub, nil
}

// StartForwarder runs the outbox relay until ctx is cancelled or Close is
// called. It returns once the relay is consuming. Call it at most once.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if !b.outbox {
		return errNotForwarder
	}
	if b.fwd != nil {
		return errForwarderStarted
	}

	outboxSub, err := b.newSubscriber(outboxConsumerGroup)
	if err != nil {
		return err
	}
	target, err := b.newPublisher()
	if err != nil {
		_ = outboxSub.Close()
		return err
	}
	fwd, err := forwarder.NewForwarder(outboxSub, target, b.wlog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		_ = target.Close()
		_ = outboxSub.Close()
		return fmt.Errorf("events: new forwarder: %w", err)
	}
	b.fwd = fwd

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.log.InfoContext(ctx, "events: outbox relay started", "topic", outboxTopic)
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: outbox relay stopped", "error", err)
			return
		}
		b.log.InfoContext(ctx, "events: outbox relay stopped")
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for outbox relay: %w", ctx.Err())
	}
}

// Publish writes msgs to topic with the trace context of ctx in their metadata.
func (b *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
	if err := b.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes topic in the background. A nil handler result acks the
// message. An error is retried maxRetries times (1s, 2s, 4s); after that the
// message is nacked and the error is sent on the returned channel, which the
// caller must drain. Close waits for in-flight handlers.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, errBuffer)
	propagator := otel.GetTextMapPropagator()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := propagator.Extract(ctx, propagation.MapCarrier(msg.Metadata))

			err := retryWithBackoff(msgCtx, msg, handler, maxRetries, retryBaseDelay, b.log)
			if err == nil {
				msg.Ack()
				continue
			}
			msg.Nack()
			select {
			case errCh <- err:
			default:
				b.log.ErrorContext(msgCtx, "events: error channel full, dropping error", "error", err, "topic", topic)
			}
		}
	}()

	return errCh, nil
}

// SubscribeTopics subscribes one handler to several topics and merges their
// error channels. The handler receives the topic of each message. A failed
// subscription aborts the call.
func (b *EventBus) SubscribeTopics(ctx context.Context, topics []string, handler func(ctx context.Context, topic string, msg *message.Message) error) (<-chan error, error) {
	merged := make(chan error, errBuffer)
	var fan sync.WaitGroup
	for _, topic := range topics {
		errCh, err := b.Subscribe(ctx, topic, func(ctx context.Context, msg *message.Message) error {
			return handler(ctx, topic, msg)
		})
		if err != nil {
			return nil, err
		}
		fan.Add(1)
		go func(topic string, errCh <-chan error) {
			defer fan.Done()
			for err := range errCh {
				select {
				case merged <- fmt.Errorf("%s: %w", topic, err):
				default:
					b.log.ErrorContext(ctx, "events: merged error channel full, dropping error", "error", err, "topic", topic)
				}
			}
		}(topic, errCh)
	}
	go func() {
		fan.Wait()
		close(merged)
	}()
	return merged, nil
}

func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler func(context.Context, *message.Message) error,
	attempts int,
	delay time.Duration,
	log logger.Logger,
) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"message_uuid", msg.UUID,
			"attempt", attempt,
			"max_retries", attempts,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("events: handler failed after %d retries: %w", attempts, err)
}

// Ping reports whether the event store is reachable.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops consuming, stops the outbox relay, waits up to 30s for
// in-flight handlers, then closes the publisher and the database handle.
func (b *EventBus) Close() error {
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		b.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	return b.db.Close()
}

// slogAdapter lets Watermill log through logger.Logger.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
