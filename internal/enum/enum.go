package enum

import (
	"fmt"
	"strings"
)

// ── Group A: State machines (CHECK constrained in DB) ──

// OrderState is the lifecycle state of an order.
type OrderState string

const (
	OrderPending       OrderState = "PENDING"
	OrderSentToKitchen OrderState = "SENT_TO_KITCHEN"
	OrderPreparing     OrderState = "PREPARING"
	OrderReady         OrderState = "READY"
	OrderCompleted     OrderState = "COMPLETED"
	OrderCancelled     OrderState = "CANCELLED"
)

// ItemPrepState is the physical preparation state of an order item.
type ItemPrepState string

const (
	ItemPending   ItemPrepState = "PENDING"
	ItemPreparing ItemPrepState = "PREPARING"
	ItemReady     ItemPrepState = "READY"
)

// KitchenQueueState is an item's position in its station's dispatch queue.
type KitchenQueueState string

const (
	KitchenPending KitchenQueueState = "PENDING"
	KitchenSent    KitchenQueueState = "SENT"
	KitchenReady   KitchenQueueState = "READY"
)

// TableState is the projected display status of a dining table.
type TableState string

const (
	TableAvailable     TableState = "AVAILABLE"
	TableOccupied      TableState = "OCCUPIED"
	TableInPreparation TableState = "IN_PREPARATION"
	TableReadyToPay    TableState = "READY_TO_PAY"
)

// legacy labels still sent by older terminals.
var legacyOrderStates = map[string]OrderState{
	"READYTOPAY":    OrderReady,
	"READY_TO_PAY":  OrderReady,
	"SENTTOKITCHEN": OrderSentToKitchen,
}

var legacyTableStates = map[string]TableState{
	"DISPONIBLE":    TableAvailable,
	"OCUPADA":       TableOccupied,
	"ENPREPARACION": TableInPreparation,
	"PARAPAGO":      TableReadyToPay,
}

// ParseOrderState parses a canonical or legacy order state label.
func ParseOrderState(s string) (OrderState, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	switch st := OrderState(key); st {
	case OrderPending, OrderSentToKitchen, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled:
		return st, nil
	}
	if st, ok := legacyOrderStates[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown order state %q", s)
}

// ParseItemPrepState parses an item preparation state label.
func ParseItemPrepState(s string) (ItemPrepState, error) {
	switch st := ItemPrepState(strings.ToUpper(strings.TrimSpace(s))); st {
	case ItemPending, ItemPreparing, ItemReady:
		return st, nil
	}
	return "", fmt.Errorf("unknown item state %q", s)
}

// ParseKitchenQueueState parses a kitchen queue state label.
func ParseKitchenQueueState(s string) (KitchenQueueState, error) {
	switch st := KitchenQueueState(strings.ToUpper(strings.TrimSpace(s))); st {
	case KitchenPending, KitchenSent, KitchenReady:
		return st, nil
	}
	return "", fmt.Errorf("unknown kitchen state %q", s)
}

// ParseTableState parses a canonical or legacy table state label.
func ParseTableState(s string) (TableState, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	switch st := TableState(key); st {
	case TableAvailable, TableOccupied, TableInPreparation, TableReadyToPay:
		return st, nil
	}
	if st, ok := legacyTableStates[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown table state %q", s)
}

// Terminal reports whether no transition leaves the state.
func (s OrderState) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// orderTransitions lists the explicit transitions. Derived moves between
// the open states follow item changes and may go backwards (a new item on a
// READY order), so every open state reaches every other open state.
var orderTransitions = map[OrderState][]OrderState{
	OrderPending:       {OrderSentToKitchen, OrderPreparing, OrderReady, OrderCancelled},
	OrderSentToKitchen: {OrderPending, OrderPreparing, OrderReady, OrderCancelled},
	OrderPreparing:     {OrderPending, OrderSentToKitchen, OrderReady, OrderCancelled},
	OrderReady:         {OrderPending, OrderSentToKitchen, OrderPreparing, OrderCompleted, OrderCancelled},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderState) CanTransition(next OrderState) bool {
	if s == next {
		return !s.Terminal()
	}
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

var itemTransitions = map[ItemPrepState][]ItemPrepState{
	ItemPending:   {ItemPreparing, ItemReady},
	ItemPreparing: {ItemReady},
}

// CanTransition reports whether an item may move from s to next.
func (s ItemPrepState) CanTransition(next ItemPrepState) bool {
	for _, n := range itemTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

var kitchenTransitions = map[KitchenQueueState][]KitchenQueueState{
	KitchenPending: {KitchenSent, KitchenReady},
	KitchenSent:    {KitchenReady},
}

// CanTransition reports whether a queue entry may move from s to next.
func (s KitchenQueueState) CanTransition(next KitchenQueueState) bool {
	for _, n := range kitchenTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	StationGrill    = "GRILL"
	StationBeverage = "BEVERAGE"
	StationRice     = "RICE"
	StationDessert  = "DESSERT"
)

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED_AMOUNT"
)
