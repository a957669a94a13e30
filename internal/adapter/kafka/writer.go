package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-track-playback/internal/config"
	"github.com/couchcryptid/storm-track-playback/internal/observability"
	"github.com/couchcryptid/storm-track-playback/internal/playback"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher forwards storm lifecycle events to a Kafka topic.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates an asynchronous producer for the configured topic.
// Delivery results are reported through metrics and the log, so engine
// listeners never wait on the broker.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	p := &Publisher{logger: logger, metrics: metrics}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.complete,
	}
	return p
}

// Listener returns an engine listener that publishes storm_started and
// storm_completed events and ignores the rest.
func (p *Publisher) Listener() playback.Listener {
	return func(ev playback.Event) {
		if !Publishes(ev.Type) {
			return
		}
		if err := p.Publish(context.Background(), ev); err != nil {
			p.metrics.EventsPublished.WithLabelValues("error").Inc()
			p.logger.Error("publish playback event", "type", ev.Type, "storm_id", ev.StormID, "error", err)
		}
	}
}

// Publishes reports whether events of type t are sent to Kafka.
func Publishes(t playback.EventType) bool {
	return t == playback.EventStormStarted || t == playback.EventStormCompleted
}

// Publish serializes ev and hands it to the writer.
func (p *Publisher) Publish(ctx context.Context, ev playback.Event) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// complete is the async delivery callback.
func (p *Publisher) complete(msgs []kafkago.Message, err error) {
	if err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Add(float64(len(msgs)))
		p.logger.Error("kafka delivery failed", "messages", len(msgs), "error", err)
		return
	}
	p.metrics.EventsPublished.WithLabelValues("success").Add(float64(len(msgs)))
}

// serializeToMessage marshals a playback event into a Kafka message keyed
// by storm ID, so one storm's events stay on one partition.
func serializeToMessage(ev playback.Event) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize playback event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.StormID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "emitted_at", Value: []byte(ev.At.Format(time.RFC3339))},
		},
	}, nil
}
