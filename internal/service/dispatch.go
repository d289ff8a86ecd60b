package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

// DispatchRequest sends a table's undispatched items to their stations.
type DispatchRequest struct {
	Actor   Actor
	TableID uuid.UUID
}

// SendToKitchen flips every item of the table's open order whose kitchen
// status is PENDING to SENT. Items already SENT or READY are untouched, so
// dispatching twice never re-queues an item.
func (s *FulfillmentService) SendToKitchen(ctx context.Context, req DispatchRequest) (*CommandResult, error) {
	if req.TableID == uuid.Nil {
		return nil, ErrTableNotFound
	}
	unlock := s.locks.Lock(req.TableID)
	defer unlock()

	var agg *Aggregate
	ss, err := s.run(ctx, req.Actor, func(ss *session) error {
		if err := ss.lockTable(ctx, req.TableID); err != nil {
			return err
		}
		var err error
		agg, err = ss.openOrderForTable(ctx, false)
		if err != nil {
			return err
		}
		if len(agg.Items) == 0 {
			return ErrNothingToDispatch
		}

		if err := ss.dispatch(ctx, agg); err != nil {
			return err
		}
		return ss.settle(ctx, agg)
	})
	if err != nil {
		return nil, err
	}
	return ss.result(agg), nil
}

func (ss *session) dispatch(ctx context.Context, agg *Aggregate) error {
	sentAt := pgtype.Timestamptz{Time: ss.now, Valid: true}
	perStation := map[string]int{}

	for i, it := range agg.Items {
		if !it.KitchenStatus.CanTransition(enum.KitchenSent) {
			continue
		}
		from := itemStateLabel(it)
		updated, err := ss.store.UpdateOrderItemState(ctx, database.UpdateOrderItemStateParams{
			ID:            it.ID,
			Status:        it.Status,
			KitchenStatus: enum.KitchenSent,
			SentAt:        sentAt,
			PreparedAt:    it.PreparedAt,
		})
		if err != nil {
			return fmt.Errorf("item[%d]: dispatch: %w", i, err)
		}
		agg.Items[i] = updated
		ss.emitItemStatus(agg.Order, updated, from)
		perStation[updated.Station.String]++
	}

	stations := make([]string, 0, len(perStation))
	for st := range perStation {
		stations = append(stations, st)
	}
	sort.Strings(stations)
	for _, st := range stations {
		ss.emit(Event{
			Type:    EventKitchenUpdated,
			OrderID: idPtr(agg.Order.ID),
			TableID: tableIDPtr(agg.Order),
			Station: st,
			Count:   perStation[st],
		})
	}
	return nil
}
