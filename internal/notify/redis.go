package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/redis/go-redis/v9"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes events on a pub/sub channel per outlet, so that
// other API replicas can relay them to their own WebSocket clients.
type RedisSink struct {
	client redisPublisher
}

// ConnectRedis parses url, connects and pings with a 5s timeout.
func ConnectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.MaxRetries = 3
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisSink(client redisPublisher) *RedisSink {
	return &RedisSink{client: client}
}

// Channel returns the pub/sub channel of an outlet.
func Channel(e service.Event) string {
	return "fulfillment:" + e.OutletID.String()
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, e service.Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal event: %w", err))
	}
	return s.client.Publish(ctx, Channel(e), msg).Err()
}
