package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

// ItemRef identifies an order item. ItemID is preferred. Without it,
// OrderID and ProductID (optionally narrowed by Status) must match exactly
// one item.
type ItemRef struct {
	ItemID    uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Status    enum.ItemPrepState
}

func (r ItemRef) lockKey() uuid.UUID {
	if r.ItemID != uuid.Nil {
		return r.ItemID
	}
	return r.OrderID
}

// VoidItemRequest removes an item and records why.
type VoidItemRequest struct {
	Actor        Actor
	Ref          ItemRef
	Reason       string
	SupervisorID *uuid.UUID
}

// UpdateItemQuantity sets an item's quantity. A quantity of zero or less
// removes the item.
func (s *FulfillmentService) UpdateItemQuantity(ctx context.Context, actor Actor, ref ItemRef, qty int32) (*CommandResult, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, actor, ref)
	}
	return s.refCommand(ctx, actor, ref, func(ss *session, agg *Aggregate, idx int) error {
		if err := ss.setQuantity(ctx, agg, idx, qty); err != nil {
			return err
		}
		return ss.settle(ctx, agg)
	})
}

// RemoveItem deletes an item. Removing the last item deletes the order.
func (s *FulfillmentService) RemoveItem(ctx context.Context, actor Actor, ref ItemRef) (*CommandResult, error) {
	return s.refCommand(ctx, actor, ref, func(ss *session, agg *Aggregate, idx int) error {
		if err := ss.removeAt(ctx, agg, idx); err != nil {
			return err
		}
		return ss.settle(ctx, agg)
	})
}

// VoidItem removes an item and writes a cancellation log entry for it.
func (s *FulfillmentService) VoidItem(ctx context.Context, req VoidItemRequest) (*CommandResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.refCommand(ctx, req.Actor, req.Ref, func(ss *session, agg *Aggregate, idx int) error {
		it := agg.Items[idx]
		if _, err := ss.store.CreateCancellationLog(ctx, database.CreateCancellationLogParams{
			OutletID:     ss.actor.OutletID,
			OrderID:      agg.Order.ID,
			ItemID:       pgtype.UUID{Bytes: it.ID, Valid: true},
			ActorID:      ss.actor.UserID,
			SupervisorID: optionalUUID(req.SupervisorID),
			Reason:       reason,
			Products:     describeItems([]database.OrderItem{it}),
		}); err != nil {
			return fmt.Errorf("create cancellation log: %w", err)
		}
		if err := ss.removeAt(ctx, agg, idx); err != nil {
			return err
		}
		return ss.settle(ctx, agg)
	})
}

func (s *FulfillmentService) refCommand(ctx context.Context, actor Actor, ref ItemRef, fn func(ss *session, agg *Aggregate, idx int) error) (*CommandResult, error) {
	key := ref.lockKey()
	if key == uuid.Nil {
		return nil, ErrItemRefRequired
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	var agg *Aggregate
	ss, err := s.run(ctx, actor, func(ss *session) error {
		var idx int
		var err error
		agg, idx, err = ss.resolveItem(ctx, ref)
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

// resolveItem locks the order owning the referenced item. A product match
// is used only when it is unambiguous.
func (ss *session) resolveItem(ctx context.Context, ref ItemRef) (*Aggregate, int, error) {
	if ref.ItemID != uuid.Nil {
		return ss.lockItemOrder(ctx, ref.ItemID)
	}
	if ref.OrderID == uuid.Nil || ref.ProductID == uuid.Nil {
		return nil, 0, ErrItemRefRequired
	}
	agg, err := ss.lockOpenOrder(ctx, ref.OrderID)
	if err != nil {
		return nil, 0, err
	}
	idx := -1
	for i, it := range agg.Items {
		if it.ProductID != ref.ProductID {
			continue
		}
		if ref.Status != "" && it.Status != ref.Status {
			continue
		}
		if idx >= 0 {
			return nil, 0, ErrAmbiguousItem
		}
		idx = i
	}
	if idx < 0 {
		return nil, 0, ErrItemNotFound
	}
	return agg, idx, nil
}

func (ss *session) setQuantity(ctx context.Context, agg *Aggregate, idx int, qty int32) error {
	it := agg.Items[idx]
	delta := qty - it.Quantity
	if delta == 0 {
		return nil
	}
	// the kitchen only cooks what it was sent
	if delta > 0 && it.KitchenStatus != enum.KitchenPending {
		return ErrItemAlreadySent
	}
	if delta > 0 {
		product, err := ss.store.GetProductForOrder(ctx, database.GetProductForOrderParams{
			ID:       it.ProductID,
			OutletID: ss.actor.OutletID,
		})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("get product: %w", err)
		}
		if err == nil && product.Stock.Valid && product.Stock.Int32 <= 0 {
			return ErrOutOfStock
		}
	}

	discountType := ""
	if it.DiscountType.Valid {
		discountType = it.DiscountType.String
	}
	discount, subtotal := lineAmounts(numericToDecimal(it.UnitPrice), qty, discountType, numericToDecimal(it.DiscountValue))
	updated, err := ss.store.UpdateOrderItemQuantity(ctx, database.UpdateOrderItemQuantityParams{
		ID:             it.ID,
		Quantity:       qty,
		DiscountAmount: decimalToNumeric(discount),
		Subtotal:       decimalToNumeric(subtotal),
	})
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	agg.Items[idx] = updated
	return ss.adjustStock(ctx, it.ProductID, -delta)
}

// removeAt deletes the item at idx and gives its quantity back to stock.
func (ss *session) removeAt(ctx context.Context, agg *Aggregate, idx int) error {
	it := agg.Items[idx]
	if err := ss.store.DeleteOrderItem(ctx, it.ID); err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	agg.remove(it.ID)
	ss.emit(Event{
		Type:      EventItemRemoved,
		OrderID:   idPtr(agg.Order.ID),
		TableID:   tableIDPtr(agg.Order),
		ItemID:    idPtr(it.ID),
		ProductID: idPtr(it.ProductID),
		Station:   it.Station.String,
		From:      itemStateLabel(it),
		Count:     int(it.Quantity),
	})
	return ss.adjustStock(ctx, it.ProductID, it.Quantity)
}

func optionalUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil || *id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// describeItems renders items as "2x Nasi Bakar, 1x Es Teh".
func describeItems(items []database.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.ProductName))
	}
	return strings.Join(parts, ", ")
}
