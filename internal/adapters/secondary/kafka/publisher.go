package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"dropout-risk-service/internal/config"
	ports "dropout-risk-service/internal/core/ports/output"
)

const eventTypePredictionScored = "prediction.scored"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type publisher struct {
	writer messageWriter
	topic  string
}

func NewPublisher(cfg *config.KafkaConfig) ports.EventPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
	}
	return &publisher{writer: w, topic: cfg.Topic}
}

// PublishPredictionScored writes the event keyed by student id, so a
// student's events stay ordered within one partition.
func (p *publisher) PublishPredictionScored(ctx context.Context, event ports.PredictionScoredEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.StudentID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventTypePredictionScored)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *publisher) Close() error {
	return p.writer.Close()
}
