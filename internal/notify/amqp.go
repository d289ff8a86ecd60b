package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiwari-pos/fulfillment/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange fulfillment events are published to. The
// routing key is the event type, e.g. "order.status_changed".
const Exchange = "fulfillment_events"

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes events as persistent JSON messages to RabbitMQ.
type AMQPSink struct {
	mu   sync.Mutex
	ch   amqpPublisher
	conn *amqp.Connection
}

// DialAMQP connects to RabbitMQ, retrying with exponential backoff, and
// declares the durable topic exchange.
func DialAMQP(ctx context.Context, url string, logger *slog.Logger) (*AMQPSink, error) {
	var (
		conn *amqp.Connection
		ch   *amqp.Channel
	)
	connect := func() error {
		c, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("rabbitmq dial failed, retrying", "error", err)
			return err
		}
		chn, err := c.Channel()
		if err != nil {
			c.Close()
			return err
		}
		if err := chn.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
			c.Close()
			return backoff.Permanent(fmt.Errorf("declare exchange: %w", err))
		}
		conn, ch = c, chn
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(b, 5), ctx)); err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	return &AMQPSink{ch: ch, conn: conn}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Send(ctx context.Context, e service.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal event: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch.PublishWithContext(ctx, Exchange, string(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		MessageId:    fmt.Sprintf("%s/%d", e.Key(), e.Seq),
		Body:         body,
	})
}

func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
