package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/database"
)

// EventType names an outbound state-change event.
type EventType string

const (
	EventOrderStatusChanged EventType = "order.status_changed"
	EventItemStatusChanged  EventType = "order_item.status_changed"
	EventTableStatusChanged EventType = "table.status_changed"
	EventKitchenUpdated     EventType = "kitchen.updated"
	EventOrderCancelled     EventType = "order.cancelled"
	EventStockUpdated       EventType = "stock.updated"
	EventOrderDeleted       EventType = "order.deleted"
	EventItemRemoved        EventType = "order_item.removed"
)

// Event is a state change produced by a committed command. Commands only
// collect events; the caller publishes them after the transaction commits.
//
// Seq is the event's position in its stream (see StreamID), assigned in
// commit order. Publishing happens outside the command's locks, so a
// consumer may see a stream out of order and should drop any event whose
// Seq is not above the last one it applied.
type Event struct {
	Type       EventType  `json:"type"`
	Seq        int64      `json:"seq"`
	OutletID   uuid.UUID  `json:"outlet_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	TableID    *uuid.UUID `json:"table_id,omitempty"`
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	Station    string     `json:"station,omitempty"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Stock      *int32     `json:"stock,omitempty"`
	Count      int        `json:"count,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// StreamID is the entity whose stream the event belongs to: its order,
// else its table, else its product, else the outlet.
func (e Event) StreamID() uuid.UUID {
	switch {
	case e.OrderID != nil:
		return *e.OrderID
	case e.TableID != nil:
		return *e.TableID
	case e.ProductID != nil:
		return *e.ProductID
	}
	return e.OutletID
}

// Key returns the partition key used by ordered sinks.
func (e Event) Key() string {
	return e.StreamID().String()
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func tableIDPtr(o database.Order) *uuid.UUID {
	if !o.TableID.Valid {
		return nil
	}
	id := uuid.UUID(o.TableID.Bytes)
	return &id
}

func (ss *session) emit(e Event) {
	e.OutletID = ss.actor.OutletID
	e.OccurredAt = ss.now
	ss.events = append(ss.events, e)
}

func (ss *session) emitOrderStatus(o database.Order, from string) {
	ss.emit(Event{
		Type:    EventOrderStatusChanged,
		OrderID: idPtr(o.ID),
		TableID: tableIDPtr(o),
		From:    from,
		To:      string(o.Status),
	})
}

func (ss *session) emitItemStatus(o database.Order, item database.OrderItem, from string) {
	ss.emit(Event{
		Type:      EventItemStatusChanged,
		OrderID:   idPtr(o.ID),
		TableID:   tableIDPtr(o),
		ItemID:    idPtr(item.ID),
		ProductID: idPtr(item.ProductID),
		Station:   item.Station.String,
		From:      from,
		To:        itemStateLabel(item),
	})
}

// sequence stamps every collected event with the next position of its
// stream. It runs last in the transaction: the counter rows stay locked
// until commit, so positions follow commit order. Streams are advanced in
// id order to keep lock acquisition consistent across transactions.
func (ss *session) sequence(ctx context.Context) error {
	if len(ss.events) == 0 {
		return nil
	}
	counts := map[uuid.UUID]int64{}
	for _, e := range ss.events {
		counts[e.StreamID()]++
	}
	streams := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		streams = append(streams, id)
	}
	sort.Slice(streams, func(i, j int) bool { return streams[i].String() < streams[j].String() })

	next := make(map[uuid.UUID]int64, len(streams))
	for _, id := range streams {
		last, err := ss.store.AdvanceEventSeq(ctx, database.AdvanceEventSeqParams{
			StreamID: id,
			LastSeq:  counts[id],
		})
		if err != nil {
			return fmt.Errorf("advance event sequence: %w", err)
		}
		next[id] = last - counts[id] + 1
	}
	for i := range ss.events {
		id := ss.events[i].StreamID()
		ss.events[i].Seq = next[id]
		next[id]++
	}
	return nil
}
