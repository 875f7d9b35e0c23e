// Package events publishes generated signals to the message bus for
// downstream consumers. Publishing is best effort and never blocks the
// polling cycle on broker failures.
package events

import (
	"context"
	"time"

	"optiflow/internal/adapters/kafka"
	"optiflow/internal/domain/signal"
	"optiflow/internal/metrics"
	"optiflow/pkg/logger"
)

// TopicSignals carries every generated signal
const TopicSignals = "optiflow.signals"

// Publisher emits signal events
type Publisher interface {
	PublishSignals(ctx context.Context, symbol string, signals []signal.Signal)
}

// SignalEvent is the wire shape of one published signal
type SignalEvent struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Strategy    string    `json:"strategy"`
	Description string    `json:"description"`
}

// KafkaPublisher publishes signal events to Kafka
type KafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      logger.Get().With("component", "events"),
	}
}

// PublishSignals emits one event per signal, keyed by symbol so consumers
// see a symbol's signals in order. Broker errors are logged and dropped.
func (p *KafkaPublisher) PublishSignals(ctx context.Context, symbol string, signals []signal.Signal) {
	for _, sig := range signals {
		event := SignalEvent{
			ID:          sig.ID.String(),
			Symbol:      sig.Symbol,
			Timestamp:   sig.Timestamp,
			Type:        string(sig.Type),
			Strategy:    sig.Strategy,
			Description: sig.Description,
		}
		if err := p.producer.Publish(ctx, TopicSignals, symbol, event); err != nil {
			metrics.KafkaMessages.WithLabelValues(TopicSignals, "error").Inc()
			p.log.Warnw("signal event publish failed", "symbol", symbol, "strategy", sig.Strategy, "error", err)
			continue
		}
		metrics.KafkaMessages.WithLabelValues(TopicSignals, "success").Inc()
	}
}

// NoopPublisher discards events. Used when Kafka is not configured.
type NoopPublisher struct{}

// PublishSignals drops all events
func (NoopPublisher) PublishSignals(context.Context, string, []signal.Signal) {}
