package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/auth"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
// Rolling back before commit restores the memStore snapshot taken at Begin.
type mockTx struct {
	db        *memStore
	snapshot  *memState
	committed bool
	commitErr error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	m.db.committedElsewhere = nil
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.db.state = m.snapshot
	for _, other := range m.db.committedElsewhere {
		other(m.db.state)
	}
	m.db.committedElsewhere = nil
	m.db.rollbacks++
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner over a memStore.
type mockTxBeginner struct {
	db        *memStore
	err       error
	commitErr error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &mockTx{db: m.db, snapshot: m.db.state.clone(), commitErr: m.commitErr}, nil
}

// memState is the data of a memStore. It is copied on Begin so a rollback
// can restore it.
type memState struct {
	tables   map[uuid.UUID]database.DiningTable
	orders   map[uuid.UUID]database.Order
	items    map[uuid.UUID]database.OrderItem
	products map[uuid.UUID]database.GetProductForOrderRow
	persons  map[uuid.UUID]database.Person
	logs     []database.CancellationLog
	seq      map[uuid.UUID]int
	next     int
	streams  map[uuid.UUID]int64
}

func (s *memState) clone() *memState {
	c := &memState{
		tables:   make(map[uuid.UUID]database.DiningTable, len(s.tables)),
		orders:   make(map[uuid.UUID]database.Order, len(s.orders)),
		items:    make(map[uuid.UUID]database.OrderItem, len(s.items)),
		products: make(map[uuid.UUID]database.GetProductForOrderRow, len(s.products)),
		persons:  make(map[uuid.UUID]database.Person, len(s.persons)),
		logs:     append([]database.CancellationLog(nil), s.logs...),
		seq:      make(map[uuid.UUID]int, len(s.seq)),
		next:     s.next,
		streams:  make(map[uuid.UUID]int64, len(s.streams)),
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.persons {
		c.persons[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.streams {
		c.streams[k] = v
	}
	return c
}

// memStore implements Store in memory with the semantics of the SQL
// queries: outlet scoping, ON CONFLICT DO NOTHING on client item ids,
// cascading item deletes and the person/shared check constraint.
type memStore struct {
	state     *memState
	rollbacks int

	// failOn makes the named method return the error.
	failOn map[string]error

	// interleave runs once, just before the next CreateOrderItem, to stand
	// for a concurrent transaction committing. Its writes survive a
	// rollback of the current transaction.
	interleave         func(st *memState)
	committedElsewhere []func(st *memState)
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			tables:   map[uuid.UUID]database.DiningTable{},
			orders:   map[uuid.UUID]database.Order{},
			items:    map[uuid.UUID]database.OrderItem{},
			products: map[uuid.UUID]database.GetProductForOrderRow{},
			persons:  map[uuid.UUID]database.Person{},
			seq:      map[uuid.UUID]int{},
			streams:  map[uuid.UUID]int64{},
		},
		failOn: map[string]error{},
	}
}

func (m *memStore) fail(name string) error { return m.failOn[name] }

func (m *memStore) stamp(id uuid.UUID) {
	m.state.next++
	m.state.seq[id] = m.state.next
}

func (m *memStore) LockDiningTable(ctx context.Context, arg database.LockDiningTableParams) (database.DiningTable, error) {
	if err := m.fail("LockDiningTable"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.state.tables[arg.ID]
	if !ok || t.OutletID != arg.OutletID {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) UpdateDiningTableStatus(ctx context.Context, arg database.UpdateDiningTableStatusParams) (database.DiningTable, error) {
	if err := m.fail("UpdateDiningTableStatus"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.state.tables[arg.ID]
	if !ok {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	m.state.tables[arg.ID] = t
	return t, nil
}

func (m *memStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := m.state.orders[arg.ID]
	if !ok || o.OutletID != arg.OutletID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) LockOrder(ctx context.Context, arg database.LockOrderParams) (database.Order, error) {
	return m.GetOrder(ctx, database.GetOrderParams{ID: arg.ID, OutletID: arg.OutletID})
}

func (m *memStore) GetOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (database.Order, error) {
	open, _ := m.ListOpenOrdersByTable(ctx, tableID)
	if len(open) == 0 {
		return database.Order{}, pgx.ErrNoRows
	}
	return open[0], nil
}

func (m *memStore) ListOpenOrdersByTable(ctx context.Context, tableID uuid.UUID) ([]database.Order, error) {
	var out []database.Order
	for _, o := range m.state.orders {
		if o.TableID.Valid && uuid.UUID(o.TableID.Bytes) == tableID && !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.state.seq[out[i].ID] < m.state.seq[out[j].ID] })
	return out, nil
}

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := m.fail("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	o := database.Order{
		ID:          uuid.New(),
		OutletID:    arg.OutletID,
		TableID:     arg.TableID,
		OrderType:   arg.OrderType,
		Status:      arg.Status,
		TotalAmount: makeNumeric("0"),
		OpenedAt:    time.Now(),
		CreatedBy:   arg.CreatedBy,
	}
	m.state.orders[o.ID] = o
	m.stamp(o.ID)
	return o, nil
}

func (m *memStore) UpdateOrderState(ctx context.Context, arg database.UpdateOrderStateParams) (database.Order, error) {
	if err := m.fail("UpdateOrderState"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.state.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.TotalAmount = arg.TotalAmount
	o.ClosedAt = arg.ClosedAt
	m.state.orders[o.ID] = o
	return o, nil
}

func (m *memStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	delete(m.state.orders, id)
	for itemID, it := range m.state.items {
		if it.OrderID == id {
			delete(m.state.items, itemID)
		}
	}
	for pid, p := range m.state.persons {
		if p.OrderID == id {
			delete(m.state.persons, pid)
		}
	}
	return nil
}

func (m *memStore) GetOrderIDByClientItem(ctx context.Context, arg database.GetOrderIDByClientItemParams) (uuid.UUID, error) {
	for _, it := range m.state.items {
		if it.ClientItemID != arg.ClientItemID {
			continue
		}
		if o, ok := m.state.orders[it.OrderID]; ok && o.OutletID == arg.OutletID {
			return it.OrderID, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

func (m *memStore) GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error) {
	it, ok := m.state.items[id]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *memStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	var out []database.OrderItem
	for _, it := range m.state.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.state.seq[out[i].ID] < m.state.seq[out[j].ID] })
	return out, nil
}

func (m *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if err := m.fail("CreateOrderItem"); err != nil {
		return database.OrderItem{}, err
	}
	if m.interleave != nil {
		other := m.interleave
		m.interleave = nil
		other(m.state)
		m.committedElsewhere = append(m.committedElsewhere, other)
	}
	for _, it := range m.state.items {
		if it.ClientItemID == arg.ClientItemID {
			return database.OrderItem{}, pgx.ErrNoRows
		}
	}
	it := database.OrderItem{
		ID:             uuid.New(),
		OrderID:        arg.OrderID,
		ClientItemID:   arg.ClientItemID,
		ProductID:      arg.ProductID,
		ProductName:    arg.ProductName,
		Quantity:       arg.Quantity,
		UnitPrice:      arg.UnitPrice,
		DiscountType:   arg.DiscountType,
		DiscountValue:  arg.DiscountValue,
		DiscountAmount: arg.DiscountAmount,
		Subtotal:       arg.Subtotal,
		Notes:          arg.Notes,
		Station:        arg.Station,
		Status:         enum.ItemPending,
		KitchenStatus:  enum.KitchenPending,
		CreatedAt:      time.Now(),
	}
	m.state.items[it.ID] = it
	m.stamp(it.ID)
	return it, nil
}

func (m *memStore) UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error) {
	it, ok := m.state.items[arg.ID]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	it.DiscountAmount = arg.DiscountAmount
	it.Subtotal = arg.Subtotal
	m.state.items[it.ID] = it
	return it, nil
}

func (m *memStore) UpdateOrderItemState(ctx context.Context, arg database.UpdateOrderItemStateParams) (database.OrderItem, error) {
	if err := m.fail("UpdateOrderItemState"); err != nil {
		return database.OrderItem{}, err
	}
	it, ok := m.state.items[arg.ID]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.Status = arg.Status
	it.KitchenStatus = arg.KitchenStatus
	it.SentAt = arg.SentAt
	it.PreparedAt = arg.PreparedAt
	m.state.items[it.ID] = it
	return it, nil
}

func (m *memStore) UpdateOrderItemAssignment(ctx context.Context, arg database.UpdateOrderItemAssignmentParams) (database.OrderItem, error) {
	if arg.PersonID.Valid && arg.IsShared {
		return database.OrderItem{}, errors.New("check constraint order_items_person_or_shared")
	}
	it, ok := m.state.items[arg.ID]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.PersonID = arg.PersonID
	it.IsShared = arg.IsShared
	m.state.items[it.ID] = it
	return it, nil
}

func (m *memStore) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	delete(m.state.items, id)
	return nil
}

func (m *memStore) ShareItemsOfPerson(ctx context.Context, personID pgtype.UUID) (int64, error) {
	var n int64
	for id, it := range m.state.items {
		if it.PersonID.Valid && it.PersonID.Bytes == personID.Bytes {
			it.PersonID = pgtype.UUID{}
			it.IsShared = true
			m.state.items[id] = it
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListStationQueue(ctx context.Context, arg database.ListStationQueueParams) ([]database.ListStationQueueRow, error) {
	var out []database.ListStationQueueRow
	for _, it := range m.state.items {
		o := m.state.orders[it.OrderID]
		if o.OutletID != arg.OutletID || o.Status.Terminal() {
			continue
		}
		if it.KitchenStatus != enum.KitchenSent || it.Station.String != arg.StationType {
			continue
		}
		row := database.ListStationQueueRow{
			ID:            it.ID,
			OrderID:       it.OrderID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			Notes:         it.Notes,
			Status:        it.Status,
			KitchenStatus: it.KitchenStatus,
			SentAt:        it.SentAt,
			TableID:       o.TableID,
			StationType:   it.Station.String,
		}
		if o.TableID.Valid {
			row.TableLabel = pgtype.Text{String: m.state.tables[uuid.UUID(o.TableID.Bytes)].Label, Valid: true}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return m.state.seq[out[i].ID] < m.state.seq[out[j].ID] })
	return out, nil
}

func (m *memStore) GetProductForOrder(ctx context.Context, arg database.GetProductForOrderParams) (database.GetProductForOrderRow, error) {
	p, ok := m.state.products[arg.ID]
	if !ok || p.OutletID != arg.OutletID {
		return database.GetProductForOrderRow{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) AdjustProductStock(ctx context.Context, arg database.AdjustProductStockParams) (pgtype.Int4, error) {
	p, ok := m.state.products[arg.ID]
	if !ok || !p.Stock.Valid {
		return pgtype.Int4{}, pgx.ErrNoRows
	}
	next := p.Stock.Int32 + arg.Delta
	if next < 0 {
		next = 0
	}
	p.Stock = pgtype.Int4{Int32: next, Valid: true}
	m.state.products[p.ID] = p
	return p.Stock, nil
}

func (m *memStore) CreatePerson(ctx context.Context, arg database.CreatePersonParams) (database.Person, error) {
	p := database.Person{ID: uuid.New(), OrderID: arg.OrderID, Name: arg.Name, CreatedAt: time.Now()}
	m.state.persons[p.ID] = p
	m.stamp(p.ID)
	return p, nil
}

func (m *memStore) GetPerson(ctx context.Context, id uuid.UUID) (database.Person, error) {
	p, ok := m.state.persons[id]
	if !ok {
		return database.Person{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) SoftDeletePerson(ctx context.Context, id uuid.UUID) (database.Person, error) {
	p, ok := m.state.persons[id]
	if !ok || p.DeletedAt.Valid {
		return database.Person{}, pgx.ErrNoRows
	}
	p.DeletedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.state.persons[id] = p
	return p, nil
}

func (m *memStore) ListPersonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Person, error) {
	var out []database.Person
	for _, p := range m.state.persons {
		if p.OrderID == orderID && !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.state.seq[out[i].ID] < m.state.seq[out[j].ID] })
	return out, nil
}

func (m *memStore) AdvanceEventSeq(ctx context.Context, arg database.AdvanceEventSeqParams) (int64, error) {
	if err := m.fail("AdvanceEventSeq"); err != nil {
		return 0, err
	}
	m.state.streams[arg.StreamID] += arg.LastSeq
	return m.state.streams[arg.StreamID], nil
}

func (m *memStore) CreateCancellationLog(ctx context.Context, arg database.CreateCancellationLogParams) (database.CancellationLog, error) {
	if err := m.fail("CreateCancellationLog"); err != nil {
		return database.CancellationLog{}, err
	}
	l := database.CancellationLog{
		ID:           uuid.New(),
		OutletID:     arg.OutletID,
		OrderID:      arg.OrderID,
		ItemID:       arg.ItemID,
		ActorID:      arg.ActorID,
		SupervisorID: arg.SupervisorID,
		Reason:       arg.Reason,
		Products:     arg.Products,
		CreatedAt:    time.Now(),
	}
	m.state.logs = append(m.state.logs, l)
	return l, nil
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// fixture is one outlet with a table and a few products, served by a
// FulfillmentService over a memStore.
type fixture struct {
	t     *testing.T
	db    *memStore
	pool  *mockTxBeginner
	svc   *FulfillmentService
	actor Actor
	table uuid.UUID

	nasi    uuid.UUID // 25000, GRILL, untracked stock
	esTeh   uuid.UUID // 5000, BEVERAGE, stock 10
	sambal  uuid.UUID // no price
	soldOut uuid.UUID // stock 0
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemStore()
	pool := &mockTxBeginner{db: db}
	svc := NewFulfillmentService(pool, func(database.DBTX) Store { return db })
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	f := &fixture{
		t:     t,
		db:    db,
		pool:  pool,
		svc:   svc,
		actor: Actor{UserID: uuid.New(), OutletID: uuid.New(), Role: auth.RoleWaiter},
	}
	f.table = f.addTable("T1")
	f.nasi = f.addProduct("Nasi Bakar", "25000.00", pgtype.Int4{}, enum.StationGrill)
	f.esTeh = f.addProduct("Es Teh", "5000.00", pgtype.Int4{Int32: 10, Valid: true}, enum.StationBeverage)
	f.sambal = f.addProduct("Sambal Extra", "", pgtype.Int4{}, "")
	f.soldOut = f.addProduct("Ayam Goreng", "30000.00", pgtype.Int4{Int32: 0, Valid: true}, enum.StationGrill)
	return f
}

func (f *fixture) addTable(label string) uuid.UUID {
	id := uuid.New()
	f.db.state.tables[id] = database.DiningTable{
		ID:       id,
		OutletID: f.actor.OutletID,
		Label:    label,
		Status:   enum.TableAvailable,
	}
	return id
}

func (f *fixture) addProduct(name, price string, stock pgtype.Int4, station string) uuid.UUID {
	id := uuid.New()
	p := database.GetProductForOrderRow{
		ID:       id,
		OutletID: f.actor.OutletID,
		Name:     name,
		Stock:    stock,
	}
	if price != "" {
		p.Price = makeNumeric(price)
	}
	if station != "" {
		p.Station = pgtype.Text{String: station, Valid: true}
	}
	f.db.state.products[id] = p
	return id
}

func line(productID uuid.UUID, qty int32) AddItemRequest {
	return AddItemRequest{ClientItemID: uuid.New(), ProductID: productID, Quantity: qty}
}

// addToTable adds items to the fixture table and fails the test on error.
func (f *fixture) addToTable(items ...AddItemRequest) *CommandResult {
	f.t.Helper()
	res, err := f.svc.AddItems(context.Background(), AddItemsRequest{
		Actor:   f.actor,
		TableID: f.table,
		Items:   items,
	})
	if err != nil {
		f.t.Fatalf("AddItems: %v", err)
	}
	return res
}

func (f *fixture) dispatch() *CommandResult {
	f.t.Helper()
	res, err := f.svc.SendToKitchen(context.Background(), DispatchRequest{Actor: f.actor, TableID: f.table})
	if err != nil {
		f.t.Fatalf("SendToKitchen: %v", err)
	}
	return res
}

func (f *fixture) tableStatus() enum.TableState {
	return f.db.state.tables[f.table].Status
}

func (f *fixture) order(id uuid.UUID) (database.Order, bool) {
	o, ok := f.db.state.orders[id]
	return o, ok
}

func (f *fixture) stock(productID uuid.UUID) int32 {
	return f.db.state.products[productID].Stock.Int32
}

// assertConsistent checks that every open order's status is its derived
// status and every table's status is the projection of its open orders.
func (f *fixture) assertConsistent() {
	f.t.Helper()
	ctx := context.Background()
	for _, o := range f.db.state.orders {
		if o.Status.Terminal() {
			continue
		}
		items, _ := f.db.ListOrderItemsByOrder(ctx, o.ID)
		want, ok := DeriveOrderState(items)
		if !ok {
			f.t.Fatalf("open order %s has no items", o.ID)
		}
		if o.Status != want {
			f.t.Fatalf("order %s status = %s, derived %s", o.ID, o.Status, want)
		}
		agg := Aggregate{Order: o, Items: items}
		if !numericEquals(o.TotalAmount, agg.Total().String()) {
			f.t.Fatalf("order %s total = %v, want %s", o.ID, numericToDecimal(o.TotalAmount), agg.Total())
		}
	}
	for _, t := range f.db.state.tables {
		orders, _ := f.db.ListOpenOrdersByTable(ctx, t.ID)
		open := make([]Aggregate, 0, len(orders))
		for _, o := range orders {
			items, _ := f.db.ListOrderItemsByOrder(ctx, o.ID)
			open = append(open, Aggregate{Order: o, Items: items})
		}
		if want := ProjectTable(open); t.Status != want {
			f.t.Fatalf("table %s status = %s, projected %s", t.Label, t.Status, want)
		}
	}
}

func eventsOf(res *CommandResult, typ EventType) []Event {
	var out []Event
	for _, e := range res.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func textOf(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}
