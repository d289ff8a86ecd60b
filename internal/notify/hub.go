package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/kiwari-pos/fulfillment/internal/ws"
)

// Broadcaster is the part of the WebSocket hub the sink needs.
type Broadcaster interface {
	BroadcastToOutlet(ctx context.Context, outletID uuid.UUID, event ws.Event) error
}

// HubSink pushes events to the outlet's WebSocket room (station and
// table displays).
type HubSink struct {
	hub Broadcaster
}

func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "ws" }

func (s *HubSink) Send(ctx context.Context, e service.Event) error {
	if e.OutletID == uuid.Nil {
		return fmt.Errorf("event %s without outlet: %w", e.Type, ErrUnsupported)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal event: %w", err))
	}
	err = s.hub.BroadcastToOutlet(ctx, e.OutletID, ws.Event{
		Type:    string(e.Type),
		Station: e.Station,
		Payload: payload,
	})
	if errors.Is(err, ws.ErrHubStopped) {
		// a stopped hub never comes back
		return backoff.Permanent(err)
	}
	return err
}
