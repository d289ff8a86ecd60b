package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink appends events to a topic keyed by Event.Key, so all events of
// one order land on the same partition in publish order.
type KafkaSink struct {
	w messageWriter
}

// NewKafkaSink creates a writer for topic on the comma separated brokers.
func NewKafkaSink(brokers, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:                   kafka.TCP(ParseBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, e service.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal event: %w", err))
	}
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key()),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

func (s *KafkaSink) Close() error {
	return s.w.Close()
}
