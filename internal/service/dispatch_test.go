package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

func TestSendToKitchen_NoOpenOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendToKitchen(context.Background(), DispatchRequest{Actor: f.actor, TableID: f.table})
	if !errors.Is(err, ErrNothingToDispatch) {
		t.Fatalf("expected ErrNothingToDispatch, got: %v", err)
	}
	if len(f.db.state.orders) != 0 {
		t.Errorf("expected no order to be left behind")
	}
}

func TestSendToKitchen_UnknownTable(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendToKitchen(context.Background(), DispatchRequest{Actor: f.actor, TableID: uuid.New()})
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got: %v", err)
	}
}

func TestSendToKitchen_FlipsPendingItems(t *testing.T) {
	f := newFixture(t)
	f.addToTable(line(f.nasi, 1), line(f.nasi, 1), line(f.esTeh, 2))

	res := f.dispatch()

	if res.Order.Order.Status != enum.OrderSentToKitchen {
		t.Errorf("order status = %s, want SENT_TO_KITCHEN", res.Order.Order.Status)
	}
	for i, it := range res.Order.Items {
		if it.KitchenStatus != enum.KitchenSent {
			t.Errorf("item[%d] kitchen status = %s, want SENT", i, it.KitchenStatus)
		}
		if it.Status != enum.ItemPending {
			t.Errorf("item[%d] status = %s, want PENDING", i, it.Status)
		}
		if !it.SentAt.Valid {
			t.Errorf("item[%d] sent_at not stamped", i)
		}
	}
	if f.tableStatus() != enum.TableInPreparation {
		t.Errorf("table status = %s, want IN_PREPARATION", f.tableStatus())
	}

	kitchen := eventsOf(res, EventKitchenUpdated)
	if len(kitchen) != 2 {
		t.Fatalf("expected one kitchen event per station, got %d", len(kitchen))
	}
	counts := map[string]int{}
	for _, e := range kitchen {
		counts[e.Station] = e.Count
	}
	if counts[enum.StationGrill] != 2 || counts[enum.StationBeverage] != 1 {
		t.Errorf("unexpected station counts: %v", counts)
	}
	if len(eventsOf(res, EventItemStatusChanged)) != 3 {
		t.Errorf("expected 3 item events, got %d", len(eventsOf(res, EventItemStatusChanged)))
	}
	f.assertConsistent()
}

func TestSendToKitchen_NeverRedispatches(t *testing.T) {
	f := newFixture(t)
	f.addToTable(line(f.nasi, 1))
	first := f.dispatch()
	sentAt := first.Order.Items[0].SentAt.Time

	f.svc.now = func() time.Time { return sentAt.Add(10 * time.Minute) }
	f.addToTable(line(f.esTeh, 1))
	second := f.dispatch()

	if got := second.Order.Items[0].SentAt.Time; !got.Equal(sentAt) {
		t.Errorf("first item re-dispatched: sent_at %v, want %v", got, sentAt)
	}
	items := eventsOf(second, EventItemStatusChanged)
	if len(items) != 1 || *items[0].ItemID != second.Order.Items[1].ID {
		t.Errorf("expected only the new item to be dispatched, got %d events", len(items))
	}

	third := f.dispatch()
	if len(eventsOf(third, EventItemStatusChanged)) != 0 || len(eventsOf(third, EventKitchenUpdated)) != 0 {
		t.Errorf("expected a dispatch with nothing pending to emit no item events")
	}
}

func TestSendToKitchen_KeepsPreparingOrder(t *testing.T) {
	f := newFixture(t)
	res := f.addToTable(line(f.nasi, 1))
	f.dispatch()
	if _, err := f.svc.StartItemPreparation(context.Background(), f.actor, res.Order.Items[0].ID); err != nil {
		t.Fatalf("StartItemPreparation: %v", err)
	}
	f.addToTable(line(f.esTeh, 1))

	out := f.dispatch()

	// PREPARING is forward of SENT_TO_KITCHEN
	if out.Order.Order.Status != enum.OrderPreparing {
		t.Errorf("order status = %s, want PREPARING", out.Order.Order.Status)
	}
	f.assertConsistent()
}

func TestGroupByStation(t *testing.T) {
	items := []database.OrderItem{
		{ID: uuid.New(), Station: textOf(enum.StationGrill)},
		{ID: uuid.New(), Station: textOf(enum.StationBeverage)},
		{ID: uuid.New()},
		{ID: uuid.New(), Station: textOf(enum.StationGrill)},
	}

	groups := GroupByStation(items)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	grill := groups[enum.StationGrill]
	if len(grill) != 2 || grill[0].ID != items[0].ID || grill[1].ID != items[3].ID {
		t.Errorf("grill group out of order: %+v", grill)
	}
	if len(groups[Unrouted]) != 1 {
		t.Errorf("expected 1 unrouted item, got %d", len(groups[Unrouted]))
	}
	if got := ItemsForStation(items, enum.StationBeverage); len(got) != 1 || got[0].ID != items[1].ID {
		t.Errorf("ItemsForStation returned %+v", got)
	}
}

func TestStationQueue(t *testing.T) {
	f := newFixture(t)
	res := f.addToTable(line(f.nasi, 1), line(f.esTeh, 1), line(f.nasi, 2))
	f.dispatch()
	if _, err := f.svc.MarkSpecificItemReady(context.Background(), f.actor, res.Order.Items[0].ID); err != nil {
		t.Fatalf("MarkSpecificItemReady: %v", err)
	}

	rows, err := f.svc.StationQueue(context.Background(), f.actor, enum.StationGrill)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 queued grill item, got %d", len(rows))
	}
	if rows[0].ID != res.Order.Items[2].ID || rows[0].TableLabel.String != "T1" {
		t.Errorf("unexpected queue row: %+v", rows[0])
	}

	empty, err := f.svc.StationQueue(context.Background(), f.actor, enum.StationDessert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil queue, got %v", empty)
	}

	if _, err := f.svc.StationQueue(context.Background(), f.actor, ""); !errors.Is(err, ErrStationRequired) {
		t.Errorf("expected ErrStationRequired, got: %v", err)
	}
}
