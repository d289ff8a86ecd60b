package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

// MarkOrderReady marks every item of the order ready.
func (s *FulfillmentService) MarkOrderReady(ctx context.Context, actor Actor, orderID uuid.UUID) (*CommandResult, error) {
	return s.markReady(ctx, actor, orderID, func(agg *Aggregate) ([]int, error) {
		return pendingIndexes(agg.Items, func(database.OrderItem) bool { return true }), nil
	})
}

// MarkStationItemsReady marks the order's items routed to station ready.
func (s *FulfillmentService) MarkStationItemsReady(ctx context.Context, actor Actor, orderID uuid.UUID, station string) (*CommandResult, error) {
	if station == "" {
		return nil, ErrStationRequired
	}
	return s.markReady(ctx, actor, orderID, func(agg *Aggregate) ([]int, error) {
		if len(ItemsForStation(agg.Items, station)) == 0 {
			return nil, ErrStationNotFound
		}
		return pendingIndexes(agg.Items, func(it database.OrderItem) bool {
			return it.Station.Valid && it.Station.String == station
		}), nil
	})
}

// MarkSpecificItemReady marks one item ready. An item already READY is
// rejected rather than silently accepted.
func (s *FulfillmentService) MarkSpecificItemReady(ctx context.Context, actor Actor, itemID uuid.UUID) (*CommandResult, error) {
	return s.itemCommand(ctx, actor, itemID, func(ss *session, agg *Aggregate, idx int) error {
		if agg.Items[idx].Status == enum.ItemReady {
			return ErrItemAlreadyReady
		}
		if err := ss.applyReady(ctx, agg, []int{idx}); err != nil {
			return err
		}
		return ss.settle(ctx, agg)
	})
}

// StartItemPreparation records that a station began cooking a dispatched
// item.
func (s *FulfillmentService) StartItemPreparation(ctx context.Context, actor Actor, itemID uuid.UUID) (*CommandResult, error) {
	return s.itemCommand(ctx, actor, itemID, func(ss *session, agg *Aggregate, idx int) error {
		it := agg.Items[idx]
		if it.KitchenStatus == enum.KitchenPending {
			return ErrItemNotDispatched
		}
		if !it.Status.CanTransition(enum.ItemPreparing) {
			return fmt.Errorf("%w: item %s to %s", ErrInvalidTransition, it.Status, enum.ItemPreparing)
		}
		from := itemStateLabel(it)
		updated, err := ss.store.UpdateOrderItemState(ctx, database.UpdateOrderItemStateParams{
			ID:            it.ID,
			Status:        enum.ItemPreparing,
			KitchenStatus: it.KitchenStatus,
			SentAt:        it.SentAt,
			PreparedAt:    it.PreparedAt,
		})
		if err != nil {
			return fmt.Errorf("start item: %w", err)
		}
		agg.Items[idx] = updated
		ss.emitItemStatus(agg.Order, updated, from)
		return ss.settle(ctx, agg)
	})
}

// markReady locks the order, lets pick choose the items, and applies the
// shared ready rules.
func (s *FulfillmentService) markReady(ctx context.Context, actor Actor, orderID uuid.UUID, pick func(*Aggregate) ([]int, error)) (*CommandResult, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	var agg *Aggregate
	ss, err := s.run(ctx, actor, func(ss *session) error {
		var err error
		agg, err = ss.lockOpenOrder(ctx, orderID)
		if err != nil {
			return err
		}
		idx, err := pick(agg)
		if err != nil {
			return err
		}
		if err := ss.applyReady(ctx, agg, idx); err != nil {
			return err
		}
		return ss.settle(ctx, agg)
	})
	if err != nil {
		return nil, err
	}
	return ss.result(agg), nil
}

// itemCommand runs fn on the open order owning itemID. The in-process lock
// is keyed by the item; the table and order row locks serialize it with
// order level commands.
func (s *FulfillmentService) itemCommand(ctx context.Context, actor Actor, itemID uuid.UUID, fn func(ss *session, agg *Aggregate, idx int) error) (*CommandResult, error) {
	if itemID == uuid.Nil {
		return nil, ErrItemNotFound
	}
	unlock := s.locks.Lock(itemID)
	defer unlock()

	var agg *Aggregate
	ss, err := s.run(ctx, actor, func(ss *session) error {
		var idx int
		var err error
		agg, idx, err = ss.lockItemOrder(ctx, itemID)
		if err != nil {
			return err
		}
		return fn(ss, agg, idx)
	})
	if err != nil {
		return nil, err
	}
	return ss.result(agg), nil
}

// applyReady moves the items at idx to READY/READY with a prepared-at
// timestamp. Every ready entry point goes through here.
func (ss *session) applyReady(ctx context.Context, agg *Aggregate, idx []int) error {
	preparedAt := pgtype.Timestamptz{Time: ss.now, Valid: true}
	for _, i := range idx {
		it := agg.Items[i]
		if !it.Status.CanTransition(enum.ItemReady) {
			return fmt.Errorf("item[%d]: %w: %s to %s", i, ErrInvalidTransition, it.Status, enum.ItemReady)
		}
		if !it.KitchenStatus.CanTransition(enum.KitchenReady) {
			return fmt.Errorf("item[%d]: %w: kitchen %s to %s", i, ErrInvalidTransition, it.KitchenStatus, enum.KitchenReady)
		}
		sentAt := it.SentAt
		if !sentAt.Valid {
			// readied without an explicit dispatch
			sentAt = preparedAt
		}
		from := itemStateLabel(it)
		updated, err := ss.store.UpdateOrderItemState(ctx, database.UpdateOrderItemStateParams{
			ID:            it.ID,
			Status:        enum.ItemReady,
			KitchenStatus: enum.KitchenReady,
			SentAt:        sentAt,
			PreparedAt:    preparedAt,
		})
		if err != nil {
			return fmt.Errorf("item[%d]: mark ready: %w", i, err)
		}
		agg.Items[i] = updated
		ss.emitItemStatus(agg.Order, updated, from)
	}
	return nil
}

// pendingIndexes returns the indexes of items not yet READY that match.
func pendingIndexes(items []database.OrderItem, match func(database.OrderItem) bool) []int {
	var idx []int
	for i, it := range items {
		if it.Status != enum.ItemReady && match(it) {
			idx = append(idx, i)
		}
	}
	return idx
}
