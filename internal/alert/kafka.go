// Package alert forwards critical failure logs to Kafka so that on-call
// tooling can react without polling the failure-log store.
package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON value written for each alert.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Origin      string         `json:"origin"`
	Path        string         `json:"path"`
	Message     string         `json:"message"`
	Environment string         `json:"environment,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// KafkaPublisher publishes failure logs to one topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher writing synchronously to topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w}
}

// Publish writes fl keyed by its path so alerts for one location stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, fl *domain.FailureLog) error {
	msg, err := toMessage(fl)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(fl *domain.FailureLog) (kafka.Message, error) {
	ev := Event{
		ID:        fl.ID,
		Type:      string(fl.Type),
		Origin:    string(fl.Origin),
		Path:      fl.Path,
		Message:   fl.Message,
		CreatedAt: fl.CreatedAt,
		Metadata:  fl.Metadata,
	}
	if env, ok := fl.Metadata["environment"].(string); ok {
		ev.Environment = env
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	ts := fl.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Key:   []byte(fl.Path),
		Value: value,
		Time:  ts,
		Headers: []kafka.Header{
			{Key: "failure-type", Value: []byte(fl.Type)},
			{Key: "failure-id", Value: []byte(fl.ID)},
		},
	}, nil
}
