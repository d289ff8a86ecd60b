package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the DB methods the fulfillment commands need.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	LockDiningTable(ctx context.Context, arg database.LockDiningTableParams) (database.DiningTable, error)
	UpdateDiningTableStatus(ctx context.Context, arg database.UpdateDiningTableStatusParams) (database.DiningTable, error)

	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	LockOrder(ctx context.Context, arg database.LockOrderParams) (database.Order, error)
	GetOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	ListOpenOrdersByTable(ctx context.Context, tableID uuid.UUID) ([]database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	UpdateOrderState(ctx context.Context, arg database.UpdateOrderStateParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	GetOrderIDByClientItem(ctx context.Context, arg database.GetOrderIDByClientItemParams) (uuid.UUID, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error)
	UpdateOrderItemState(ctx context.Context, arg database.UpdateOrderItemStateParams) (database.OrderItem, error)
	UpdateOrderItemAssignment(ctx context.Context, arg database.UpdateOrderItemAssignmentParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	ShareItemsOfPerson(ctx context.Context, personID pgtype.UUID) (int64, error)
	ListStationQueue(ctx context.Context, arg database.ListStationQueueParams) ([]database.ListStationQueueRow, error)

	GetProductForOrder(ctx context.Context, arg database.GetProductForOrderParams) (database.GetProductForOrderRow, error)
	AdjustProductStock(ctx context.Context, arg database.AdjustProductStockParams) (pgtype.Int4, error)

	CreatePerson(ctx context.Context, arg database.CreatePersonParams) (database.Person, error)
	GetPerson(ctx context.Context, id uuid.UUID) (database.Person, error)
	SoftDeletePerson(ctx context.Context, id uuid.UUID) (database.Person, error)
	ListPersonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Person, error)

	CreateCancellationLog(ctx context.Context, arg database.CreateCancellationLogParams) (database.CancellationLog, error)

	AdvanceEventSeq(ctx context.Context, arg database.AdvanceEventSeqParams) (int64, error)
}

// NewStore creates a Store from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewStore func(db database.DBTX) Store

// Actor is the caller of a command. It is always passed explicitly; the
// service never reads identity from request-scoped state.
type Actor struct {
	UserID   uuid.UUID
	OutletID uuid.UUID
	Role     string
}

// CommandResult is the outcome of a mutating command.
type CommandResult struct {
	// Order is nil when the command deleted the order.
	Order *Aggregate
	// TableStatus is the projected status of the order's table, empty for
	// orders without a table.
	TableStatus enum.TableState
	// Skipped lists client item ids ignored as duplicate submissions.
	Skipped []uuid.UUID
	// Events must be published by the caller once the command returned.
	Events []Event
}

// FulfillmentService runs the order fulfillment state machine. Every
// command executes in one transaction that holds the table row lock and
// the order row lock, in that order.
type FulfillmentService struct {
	pool     TxBeginner
	newStore NewStore
	locks    *KeyedMutex
	now      func() time.Time
}

// NewFulfillmentService creates a new FulfillmentService.
func NewFulfillmentService(pool TxBeginner, newStore NewStore) *FulfillmentService {
	return &FulfillmentService{
		pool:     pool,
		newStore: newStore,
		locks:    NewKeyedMutex(),
		now:      time.Now,
	}
}

// session is the state of one command inside its transaction.
type session struct {
	store  Store
	actor  Actor
	now    time.Time
	table  *database.DiningTable
	events []Event
}

// run executes fn in a transaction. Nothing is committed unless fn
// returns nil.
func (s *FulfillmentService) run(ctx context.Context, actor Actor, fn func(ss *session) error) (*session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ss := &session{
		store: s.newStore(tx),
		actor: actor,
		now:   s.now().UTC(),
	}
	if err := fn(ss); err != nil {
		return nil, err
	}
	if err := ss.sequence(ctx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return ss, nil
}

// result packages the settled aggregate and the collected events.
func (ss *session) result(agg *Aggregate) *CommandResult {
	res := &CommandResult{Events: ss.events}
	if agg != nil && !agg.deleted {
		res.Order = agg
	}
	if ss.table != nil {
		res.TableStatus = ss.table.Status
	}
	return res
}

func (ss *session) lockTable(ctx context.Context, tableID uuid.UUID) error {
	if ss.table != nil && ss.table.ID == tableID {
		return nil
	}
	t, err := ss.store.LockDiningTable(ctx, database.LockDiningTableParams{
		ID:       tableID,
		OutletID: ss.actor.OutletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("lock table: %w", err)
	}
	ss.table = &t
	return nil
}

// lockOrder locks the order's table (if any) and then the order row, and
// loads the aggregate.
func (ss *session) lockOrder(ctx context.Context, orderID uuid.UUID) (*Aggregate, error) {
	o, err := ss.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, OutletID: ss.actor.OutletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.TableID.Valid {
		if err := ss.lockTable(ctx, uuid.UUID(o.TableID.Bytes)); err != nil {
			return nil, err
		}
	}
	o, err = ss.store.LockOrder(ctx, database.LockOrderParams{ID: orderID, OutletID: ss.actor.OutletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// deleted between the read and the lock
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return ss.load(ctx, o)
}

// lockOpenOrder locks an order and rejects terminal ones.
func (ss *session) lockOpenOrder(ctx context.Context, orderID uuid.UUID) (*Aggregate, error) {
	agg, err := ss.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if agg.Order.Status.Terminal() {
		return nil, ErrOrderClosed
	}
	return agg, nil
}

// lockItemOrder resolves an item id to its open order.
func (ss *session) lockItemOrder(ctx context.Context, itemID uuid.UUID) (*Aggregate, int, error) {
	item, err := ss.store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrItemNotFound
		}
		return nil, 0, fmt.Errorf("get order item: %w", err)
	}
	agg, err := ss.lockOpenOrder(ctx, item.OrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// order of another outlet
			return nil, 0, ErrItemNotFound
		}
		return nil, 0, err
	}
	idx := agg.indexOf(itemID)
	if idx < 0 {
		return nil, 0, ErrItemNotFound
	}
	return agg, idx, nil
}

func (ss *session) load(ctx context.Context, o database.Order) (*Aggregate, error) {
	items, err := ss.store.ListOrderItemsByOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &Aggregate{Order: o, Items: items}, nil
}

// openOrderForTable returns the table's open order, creating a PENDING one
// when create is set. The table must already be locked.
func (ss *session) openOrderForTable(ctx context.Context, create bool) (*Aggregate, error) {
	o, err := ss.store.GetOpenOrderForTable(ctx, ss.table.ID)
	if err == nil {
		o, err = ss.store.LockOrder(ctx, database.LockOrderParams{ID: o.ID, OutletID: ss.actor.OutletID})
		if err != nil {
			return nil, fmt.Errorf("lock order: %w", err)
		}
		return ss.load(ctx, o)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get open order: %w", err)
	}
	if !create {
		return nil, ErrNothingToDispatch
	}
	return ss.createOrder(ctx, pgtype.UUID{Bytes: ss.table.ID, Valid: true}, enum.OrderTypeDineIn)
}

func (ss *session) createOrder(ctx context.Context, tableID pgtype.UUID, orderType string) (*Aggregate, error) {
	o, err := ss.store.CreateOrder(ctx, database.CreateOrderParams{
		OutletID:  ss.actor.OutletID,
		TableID:   tableID,
		OrderType: orderType,
		Status:    enum.OrderPending,
		CreatedBy: ss.actor.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	ss.emitOrderStatus(o, "")
	return &Aggregate{Order: o}, nil
}

// settle re-derives the order status and total after item changes, deletes
// the order when it has no items left, and re-projects the table.
func (ss *session) settle(ctx context.Context, agg *Aggregate) error {
	prev := agg.Order.Status
	next, ok := DeriveOrderState(agg.Items)
	if !ok {
		if err := ss.store.DeleteOrder(ctx, agg.Order.ID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		agg.deleted = true
		ss.emit(Event{
			Type:    EventOrderDeleted,
			OrderID: idPtr(agg.Order.ID),
			TableID: tableIDPtr(agg.Order),
			From:    string(prev),
		})
		return ss.reproject(ctx)
	}
	if !prev.CanTransition(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, prev, next)
	}

	updated, err := ss.store.UpdateOrderState(ctx, database.UpdateOrderStateParams{
		ID:          agg.Order.ID,
		Status:      next,
		TotalAmount: decimalToNumeric(agg.Total()),
		ClosedAt:    agg.Order.ClosedAt,
	})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	agg.Order = updated
	if prev != next {
		ss.emitOrderStatus(updated, string(prev))
	}
	return ss.reproject(ctx)
}

// closeOrder moves an order to a terminal state and re-projects the table.
func (ss *session) closeOrder(ctx context.Context, agg *Aggregate, to enum.OrderState) error {
	prev := agg.Order.Status
	if !prev.CanTransition(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, prev, to)
	}
	updated, err := ss.store.UpdateOrderState(ctx, database.UpdateOrderStateParams{
		ID:          agg.Order.ID,
		Status:      to,
		TotalAmount: decimalToNumeric(agg.Total()),
		ClosedAt:    pgtype.Timestamptz{Time: ss.now, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	agg.Order = updated
	ss.emitOrderStatus(updated, string(prev))
	return ss.reproject(ctx)
}

// reproject recomputes the locked table's status from its open orders and
// writes it when it changed.
func (ss *session) reproject(ctx context.Context) error {
	if ss.table == nil {
		return nil
	}
	orders, err := ss.store.ListOpenOrdersByTable(ctx, ss.table.ID)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}
	open := make([]Aggregate, 0, len(orders))
	for _, o := range orders {
		agg, err := ss.load(ctx, o)
		if err != nil {
			return err
		}
		open = append(open, *agg)
	}

	next := ProjectTable(open)
	if next == ss.table.Status {
		return nil
	}
	prev := ss.table.Status
	t, err := ss.store.UpdateDiningTableStatus(ctx, database.UpdateDiningTableStatusParams{
		ID:     ss.table.ID,
		Status: next,
	})
	if err != nil {
		return fmt.Errorf("update table status: %w", err)
	}
	ss.table = &t
	ss.emit(Event{
		Type:    EventTableStatusChanged,
		TableID: idPtr(t.ID),
		From:    string(prev),
		To:      string(next),
	})
	return nil
}
