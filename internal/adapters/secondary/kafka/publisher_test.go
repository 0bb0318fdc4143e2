package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropout-risk-service/internal/config"
	ports "dropout-risk-service/internal/core/ports/output"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_PublishPredictionScored(t *testing.T) {
	w := &fakeWriter{}
	p := &publisher{writer: w, topic: "dropout.predictions"}

	event := ports.PredictionScoredEvent{
		EventID:            "evt-1",
		StudentID:          "S42",
		RiskLevel:          "high",
		DropoutProbability: 0.91,
		ModelVersion:       "v1",
		Source:             "model",
		Factors:            []string{"Low CGPA"},
		OccurredAt:         time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishPredictionScored(context.Background(), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "S42", string(msg.Key))
	assert.Equal(t, "prediction.scored", string(msg.Headers[0].Value))

	var decoded ports.PredictionScoredEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_WriteError(t *testing.T) {
	p := &publisher{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "t"}

	err := p.PublishPredictionScored(context.Background(), ports.PredictionScoredEvent{StudentID: "S1"})
	assert.ErrorContains(t, err, "kafka publish to t")
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(&config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	assert.NotNil(t, p)
	assert.NoError(t, p.Close())
}
