package notify

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiwari-pos/fulfillment/internal/service"
)

// sendTimeout bounds one delivery attempt to one sink.
const sendTimeout = 10 * time.Second

// Sink delivers a single event to one outbound channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, e service.Event) error
}

// Options configures a Notifier.
type Options struct {
	QueueSize  int
	Workers    int
	MaxRetries int
}

// Notifier fans committed events out to every sink. Publish never blocks:
// when a worker queue is full the event is dropped and logged.
//
// Events are sharded by Event.Key so the events of one order are delivered
// by the same worker, in the order they were published.
type Notifier struct {
	sinks      []Sink
	queues     []chan service.Event
	logger     *slog.Logger
	maxRetries uint64
	newBackOff func() backoff.BackOff

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts a Notifier with its workers.
func New(logger *slog.Logger, opts Options, sinks ...Sink) *Notifier {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	n := &Notifier{
		sinks:      sinks,
		queues:     make([]chan service.Event, opts.Workers),
		logger:     logger.With("component", "notifier"),
		maxRetries: uint64(opts.MaxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	perWorker := opts.QueueSize / opts.Workers
	if perWorker < 1 {
		perWorker = 1
	}
	for i := range n.queues {
		n.queues[i] = make(chan service.Event, perWorker)
		n.wg.Add(1)
		go n.work(n.queues[i])
	}
	return n
}

// Publish enqueues events for delivery. Safe to call after Close; the
// events are dropped.
func (n *Notifier) Publish(events ...service.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, e := range events {
		if n.closed {
			n.logger.Warn("notifier closed, event dropped", "type", e.Type, "key", e.Key())
			continue
		}
		select {
		case n.queues[n.shard(e)] <- e:
		default:
			n.logger.Warn("notify queue full, event dropped", "type", e.Type, "key", e.Key())
		}
	}
}

func (n *Notifier) shard(e service.Event) int {
	h := fnv.New32a()
	h.Write([]byte(e.Key()))
	return int(h.Sum32() % uint32(len(n.queues)))
}

func (n *Notifier) work(queue <-chan service.Event) {
	defer n.wg.Done()
	for e := range queue {
		for _, s := range n.sinks {
			if err := n.deliver(s, e); err != nil {
				n.logger.Error("event delivery failed",
					"sink", s.Name(),
					"type", e.Type,
					"key", e.Key(),
					"error", err,
				)
			}
		}
	}
}

func (n *Notifier) deliver(s Sink, e service.Event) error {
	b := backoff.WithMaxRetries(n.newBackOff(), n.maxRetries)
	return backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		err := s.Send(ctx, e)
		if errors.Is(err, ErrUnsupported) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// Close stops accepting events and waits until the queued ones are
// delivered or ctx is done.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	for _, q := range n.queues {
		close(q)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrUnsupported is returned by a sink that cannot carry an event; it is
// never retried.
var ErrUnsupported = errors.New("event not supported by sink")
