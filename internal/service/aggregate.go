package service

import (
	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
	"github.com/shopspring/decimal"
)

// Aggregate is one order with its items, loaded and mutated as a unit
// inside a single transaction.
type Aggregate struct {
	Order database.Order
	Items []database.OrderItem

	deleted bool
}

// Deleted reports whether the command removed the order because its last
// item went away.
func (a *Aggregate) Deleted() bool { return a.deleted }

// Total is Σ (quantity × unit_price − discount) over the items.
func (a *Aggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range a.Items {
		total = total.Add(itemLineTotal(it))
	}
	return total
}

func (a *Aggregate) indexOf(itemID uuid.UUID) int {
	for i, it := range a.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (a *Aggregate) remove(itemID uuid.UUID) {
	if i := a.indexOf(itemID); i >= 0 {
		a.Items = append(a.Items[:i], a.Items[i+1:]...)
	}
}

func (a *Aggregate) hasClientItem(clientID uuid.UUID) bool {
	for _, it := range a.Items {
		if it.ClientItemID == clientID {
			return true
		}
	}
	return false
}

// DeriveOrderState computes an open order's status from its items.
// The second result is false when there are no items: such an order must
// be deleted rather than kept.
//
//	all items READY          → READY
//	any item PREPARING       → PREPARING
//	any item sent or ready   → SENT_TO_KITCHEN
//	otherwise                → PENDING
func DeriveOrderState(items []database.OrderItem) (enum.OrderState, bool) {
	if len(items) == 0 {
		return "", false
	}
	var ready int
	var preparing, dispatched bool
	for _, it := range items {
		switch it.Status {
		case enum.ItemReady:
			ready++
		case enum.ItemPreparing:
			preparing = true
		}
		if it.KitchenStatus != enum.KitchenPending {
			dispatched = true
		}
	}
	switch {
	case ready == len(items):
		return enum.OrderReady, true
	case preparing:
		return enum.OrderPreparing, true
	case dispatched:
		return enum.OrderSentToKitchen, true
	}
	return enum.OrderPending, true
}

func itemStateLabel(item database.OrderItem) string {
	return string(item.Status) + "/" + string(item.KitchenStatus)
}
