package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const streamName = "TRACK_EVENTS"

// NATSPublisher publishes track events to NATS JetStream.
type NATSPublisher struct {
	js      nats.JetStreamContext
	log     *zap.Logger
	retries int
	backoff time.Duration
}

// NewNATSPublisher ensures the TRACK_EVENTS stream exists on an
// existing connection. If nc is nil, returns a no-op stub so services
// without NATS keep working in development.
func NewNATSPublisher(nc *nats.Conn, log *zap.Logger) (*NATSPublisher, error) {
	if nc == nil {
		log.Warn("NATS not configured, track events will not be published (stub mode)")
		return &NATSPublisher{log: log, retries: 3, backoff: 100 * time.Millisecond}, nil
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Create stream if it doesn't exist.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"tracks.>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		log.Warn("failed to create NATS stream (may already exist)", zap.Error(err))
	}

	log.Info("NATS publisher initialised", zap.String("stream", streamName))
	return &NATSPublisher{js: js, log: log, retries: 3, backoff: 100 * time.Millisecond}, nil
}

// Publish sends one event, retrying transient failures with backoff.
// After the retry budget it returns the last error; the caller logs and
// drops, it never rolls back the committed mutation.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if p.js == nil {
		p.log.Debug("NATS stub: skipping publish", zap.String("kind", string(ev.Kind)), zap.String("event_id", ev.EventID))
		return nil
	}

	subject := SubjectFor(ev.Kind)
	if subject == "" {
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.EventID, err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff * time.Duration(attempt)):
			}
		}
		ack, err := p.js.Publish(subject, data)
		if err == nil {
			p.log.Debug("track event published",
				zap.String("subject", subject),
				zap.String("event_id", ev.EventID),
				zap.Uint64("seq", ack.Sequence),
			)
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("publish %s after %d attempts: %w", subject, p.retries+1, lastErr)
}
