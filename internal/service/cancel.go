package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

// CancelOrderRequest voids an open order.
type CancelOrderRequest struct {
	Actor        Actor
	OrderID      uuid.UUID
	Reason       string
	SupervisorID *uuid.UUID
}

// CancelOrder moves an open order to CANCELLED, logs the products it held,
// and re-projects its table. Items are kept for the record.
func (s *FulfillmentService) CancelOrder(ctx context.Context, req CancelOrderRequest) (*CommandResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	unlock := s.locks.Lock(req.OrderID)
	defer unlock()

	var agg *Aggregate
	ss, err := s.run(ctx, req.Actor, func(ss *session) error {
		var err error
		agg, err = ss.lockOpenOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if _, err := ss.store.CreateCancellationLog(ctx, database.CreateCancellationLogParams{
			OutletID:     ss.actor.OutletID,
			OrderID:      agg.Order.ID,
			ActorID:      ss.actor.UserID,
			SupervisorID: optionalUUID(req.SupervisorID),
			Reason:       reason,
			Products:     describeItems(agg.Items),
		}); err != nil {
			return fmt.Errorf("create cancellation log: %w", err)
		}
		if err := ss.closeOrder(ctx, agg, enum.OrderCancelled); err != nil {
			return err
		}
		ss.emit(Event{
			Type:    EventOrderCancelled,
			OrderID: idPtr(agg.Order.ID),
			TableID: tableIDPtr(agg.Order),
			Reason:  reason,
			Count:   len(agg.Items),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ss.result(agg), nil
}

// CompleteOrder closes a READY order once it has been paid.
func (s *FulfillmentService) CompleteOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*CommandResult, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	var agg *Aggregate
	ss, err := s.run(ctx, actor, func(ss *session) error {
		var err error
		agg, err = ss.lockOpenOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if agg.Order.Status != enum.OrderReady {
			return ErrOrderNotReady
		}
		return ss.closeOrder(ctx, agg, enum.OrderCompleted)
	})
	if err != nil {
		return nil, err
	}
	return ss.result(agg), nil
}
