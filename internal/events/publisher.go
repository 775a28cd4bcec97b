// Package events announces completed ingestions on NATS.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/errors"
	"github.com/justsurfingit/job-market-sync/internal/telemetry"
)

var tracer = telemetry.GetTracer("job-market-sync/events")

// IngestionEvent summarizes one committed save.
type IngestionEvent struct {
	BatchID   string    `json:"batch_id"`
	Source    string    `json:"source"`
	Table     string    `json:"table"`
	Count     int       `json:"count"`
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

type Publisher interface {
	PublishIngested(ctx context.Context, event IngestionEvent) error
	Close()
}

// Noop drops every event; used when NATS is not configured.
type Noop struct{}

func (Noop) PublishIngested(context.Context, IngestionEvent) error { return nil }
func (Noop) Close()                                                {}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string, timeout time.Duration, logger *zap.Logger) (Publisher, error) {
	opts := []nats.Option{
		nats.Name("job-market-sync"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}

	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.Named("events"),
	}, nil
}

func (p *natsPublisher) PublishIngested(ctx context.Context, event IngestionEvent) error {
	_, span := tracer.Start(ctx, "PublishIngested")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling ingestion event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", p.subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(p.subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish ingestion event",
			zap.String("batch_id", event.BatchID),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published ingestion event",
		zap.String("batch_id", event.BatchID),
		zap.String("subject", p.subject),
		zap.Int("count", event.Count))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
