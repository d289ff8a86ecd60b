package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/kiwari-pos/fulfillment/internal/ws"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink stores delivered events. failures makes the first n sends
// fail; block, when set, holds every send until closed.
type recordingSink struct {
	mu       sync.Mutex
	events   []service.Event
	attempts int
	failures int
	block    chan struct{}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(ctx context.Context, e service.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failures > 0 {
		s.failures--
		return errors.New("broker unavailable")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) delivered() []service.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Event(nil), s.events...)
}

func newTestNotifier(opts Options, sinks ...Sink) *Notifier {
	n := New(discardLogger(), opts, sinks...)
	n.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return n
}

func orderEvent(orderID uuid.UUID, to string) service.Event {
	return service.Event{
		Type:     service.EventOrderStatusChanged,
		OutletID: uuid.New(),
		OrderID:  &orderID,
		To:       to,
	}
}

func TestNotifier_DeliversInOrderPerKey(t *testing.T) {
	sink := &recordingSink{}
	n := newTestNotifier(Options{QueueSize: 64, Workers: 4}, sink)

	orderID := uuid.New()
	states := []string{"PENDING", "SENT_TO_KITCHEN", "PREPARING", "READY", "COMPLETED"}
	for _, s := range states {
		n.Publish(orderEvent(orderID, s))
	}
	if err := n.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := sink.delivered()
	if len(got) != len(states) {
		t.Fatalf("delivered %d events, want %d", len(got), len(states))
	}
	for i, e := range got {
		if e.To != states[i] {
			t.Fatalf("event %d = %s, want %s", i, e.To, states[i])
		}
	}
}

func TestNotifier_FansOutToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	n := newTestNotifier(Options{QueueSize: 8, Workers: 1}, a, b)

	n.Publish(orderEvent(uuid.New(), "READY"), orderEvent(uuid.New(), "READY"))
	n.Close(context.Background())

	if len(a.delivered()) != 2 || len(b.delivered()) != 2 {
		t.Errorf("expected both sinks to get 2 events, got %d and %d", len(a.delivered()), len(b.delivered()))
	}
}

func TestNotifier_RetriesThenGivesUp(t *testing.T) {
	flaky := &recordingSink{failures: 2}
	n := newTestNotifier(Options{QueueSize: 8, Workers: 1, MaxRetries: 3}, flaky)
	n.Publish(orderEvent(uuid.New(), "READY"))
	n.Close(context.Background())

	if len(flaky.delivered()) != 1 || flaky.attempts != 3 {
		t.Errorf("expected delivery on third attempt, got %d events after %d attempts", len(flaky.delivered()), flaky.attempts)
	}

	down := &recordingSink{failures: 100}
	n = newTestNotifier(Options{QueueSize: 8, Workers: 1, MaxRetries: 2}, down)
	n.Publish(orderEvent(uuid.New(), "READY"))
	n.Close(context.Background())

	if len(down.delivered()) != 0 || down.attempts != 3 {
		t.Errorf("expected 3 attempts and no delivery, got %d attempts", down.attempts)
	}
}

func TestNotifier_PublishNeverBlocks(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	n := newTestNotifier(Options{QueueSize: 2, Workers: 1}, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			n.Publish(orderEvent(uuid.New(), "READY"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	close(sink.block)
	n.Close(context.Background())
	if got := len(sink.delivered()); got == 0 || got > 3 {
		t.Errorf("expected the queue bound to drop events, delivered %d", got)
	}
}

func TestNotifier_CloseHonoursContext(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	defer close(sink.block)
	n := newTestNotifier(Options{QueueSize: 4, Workers: 1}, sink)
	n.Publish(orderEvent(uuid.New(), "READY"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}

	// publishing after close drops instead of panicking
	n.Publish(orderEvent(uuid.New(), "READY"))
	if err := n.Close(context.Background()); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

type fakeHub struct {
	mu     sync.Mutex
	outlet uuid.UUID
	event  ws.Event
	calls  int
	err    error
}

func (h *fakeHub) BroadcastToOutlet(ctx context.Context, outletID uuid.UUID, event ws.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.err != nil {
		return h.err
	}
	h.outlet, h.event = outletID, event
	return nil
}

func TestHubSink(t *testing.T) {
	hub := &fakeHub{}
	sink := NewHubSink(hub)
	e := service.Event{Type: service.EventKitchenUpdated, OutletID: uuid.New(), Station: "GRILL", Count: 2}

	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if hub.outlet != e.OutletID || hub.event.Type != "kitchen.updated" || hub.event.Station != "GRILL" {
		t.Errorf("unexpected broadcast: %+v", hub.event)
	}
	var decoded service.Event
	if err := json.Unmarshal(hub.event.Payload, &decoded); err != nil || decoded.Count != 2 {
		t.Errorf("payload = %s, err %v", hub.event.Payload, err)
	}

	if err := sink.Send(context.Background(), service.Event{Type: service.EventStockUpdated}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported without outlet, got: %v", err)
	}
}

func TestHubSink_StoppedHubIsNotRetried(t *testing.T) {
	hub := &fakeHub{err: ws.ErrHubStopped}
	n := newTestNotifier(Options{QueueSize: 8, Workers: 1, MaxRetries: 5}, NewHubSink(hub))
	n.Publish(orderEvent(uuid.New(), "READY"))
	if err := n.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.calls != 1 {
		t.Errorf("broadcast attempts = %d, want 1", hub.calls)
	}
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func TestAMQPSink(t *testing.T) {
	ch := &fakeChannel{}
	sink := &AMQPSink{ch: ch}
	e := orderEvent(uuid.New(), "READY")
	e.Seq = 7

	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ch.msg.MessageId != e.OrderID.String()+"/7" {
		t.Errorf("message id = %s", ch.msg.MessageId)
	}
	if ch.exchange != Exchange || ch.key != "order.status_changed" {
		t.Errorf("published to %s/%s", ch.exchange, ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent || ch.msg.ContentType != "application/json" {
		t.Errorf("message not persistent JSON: %+v", ch.msg)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close without connection: %v", err)
	}
}

type fakeRedis struct {
	channel string
	message interface{}
}

func (r *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	r.channel, r.message = channel, message
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestRedisSink(t *testing.T) {
	client := &fakeRedis{}
	e := orderEvent(uuid.New(), "READY")

	if err := NewRedisSink(client).Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.channel != "fulfillment:"+e.OutletID.String() {
		t.Errorf("channel = %s", client.channel)
	}
	if _, ok := client.message.([]byte); !ok {
		t.Errorf("expected JSON bytes, got %T", client.message)
	}
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{w: w}
	orderID := uuid.New()

	if err := sink.Send(context.Background(), orderEvent(orderID, "READY")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != orderID.String() {
		t.Fatalf("expected one message keyed by order id, got %+v", w.msgs)
	}
	if string(w.msgs[0].Headers[0].Value) != "order.status_changed" {
		t.Errorf("type header = %s", w.msgs[0].Headers[0].Value)
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Errorf("ParseBrokers = %v", got)
	}
	if ParseBrokers("") != nil {
		t.Error("expected no brokers for empty input")
	}
}
