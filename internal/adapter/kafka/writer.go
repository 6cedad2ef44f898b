package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/config"
	"github.com/couchcryptid/synop-ingest/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces reconciled observations to a Kafka topic.
// It implements pipeline.ObservationPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes observations in a single WriteMessages call.
// Messages are keyed by station and time so that a slot always lands on the
// same partition.
func (w *Writer) Publish(ctx context.Context, observations []domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(observations))
	for i := range observations {
		msg, err := serializeToMessage(observations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d observations: %w", len(msgs), err)
	}
	w.logger.Debug("observations published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Observation into a Kafka message.
func serializeToMessage(obs domain.Observation) (kafkago.Message, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(obs.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "wigos_id", Value: []byte(obs.WIGOSID)},
			{Key: "observed_at", Value: []byte(obs.Time.UTC().Format(time.RFC3339))},
		},
	}, nil
}
