package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
	"github.com/shopspring/decimal"
)

const maxNoteLength = 200

// AddItemsRequest is the validated input for adding items. Exactly one
// target is used: OrderID when set, else TableID, else a new order
// without a table (takeaway or delivery).
type AddItemsRequest struct {
	Actor     Actor
	TableID   uuid.UUID
	OrderID   uuid.UUID
	OrderType string
	Items     []AddItemRequest
}

// AddItemRequest is a single item line. ClientItemID is the identity the
// client generated for the line; resubmitting it is a no-op.
type AddItemRequest struct {
	ClientItemID  uuid.UUID
	ProductID     uuid.UUID
	Quantity      int32
	Notes         string
	DiscountType  string
	DiscountValue string
}

// AddItems adds independent item lines to the target order, creating a
// PENDING order when the table has none open.
//
// A resubmitted request lands on the order its first attempt created, even
// when that attempt created the order itself.
func (s *FulfillmentService) AddItems(ctx context.Context, req AddItemsRequest) (*CommandResult, error) {
	orderType, err := validateAddItems(req)
	if err != nil {
		return nil, err
	}

	key := lockKey(req.OrderID, req.TableID)
	if key == uuid.Nil {
		key = req.Items[0].ClientItemID
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	res, err := s.addItemsTx(ctx, req, orderType)
	if errors.Is(err, errRaceLost) {
		// the concurrent request has committed; this attempt now finds it
		res, err = s.addItemsTx(ctx, req, orderType)
	}
	return res, err
}

// errRaceLost reports that every line of a freshly created order was taken
// by a concurrent request with the same client ids.
var errRaceLost = fmt.Errorf("%w: concurrent resubmission", ErrConflict)

func (s *FulfillmentService) addItemsTx(ctx context.Context, req AddItemsRequest, orderType string) (*CommandResult, error) {
	var agg *Aggregate
	var skipped []uuid.UUID
	ss, err := s.run(ctx, req.Actor, func(ss *session) error {
		var err error
		if req.OrderID != uuid.Nil {
			if agg, err = ss.lockOpenOrder(ctx, req.OrderID); err != nil {
				return err
			}
		} else {
			var replay bool
			if agg, replay, err = ss.resolveNewTarget(ctx, req, orderType); err != nil {
				return err
			}
			if replay {
				skipped = clientIDs(req.Items)
				return nil
			}
		}

		skipped, err = ss.addItems(ctx, agg, req.Items)
		if err != nil {
			return err
		}
		if len(agg.Items) == 0 {
			// an existing order always has items, so this one was just
			// created and lost every line to a concurrent insert
			return errRaceLost
		}
		return ss.settle(ctx, agg)
	})
	if err != nil {
		return nil, err
	}

	res := ss.result(agg)
	res.Skipped = skipped
	return res, nil
}

// resolveNewTarget picks the order for a request without an order id. When
// one of the request's client ids is already stored, the request is a
// resubmission: it joins that order if the order is still open on the same
// target, and is replayed read-only (replay true) otherwise.
func (ss *session) resolveNewTarget(ctx context.Context, req AddItemsRequest, orderType string) (agg *Aggregate, replay bool, err error) {
	if req.TableID != uuid.Nil {
		if err := ss.lockTable(ctx, req.TableID); err != nil {
			return nil, false, err
		}
	}

	prior, found, err := ss.resubmittedOrder(ctx, req.Items)
	if err != nil {
		return nil, false, err
	}
	if found {
		if prior.Status.Terminal() || !onTarget(prior, req.TableID) {
			agg, err = ss.load(ctx, prior)
			return agg, true, err
		}
		agg, err = ss.lockOpenOrder(ctx, prior.ID)
		return agg, false, err
	}

	if req.TableID != uuid.Nil {
		agg, err = ss.openOrderForTable(ctx, true)
		return agg, false, err
	}
	agg, err = ss.createOrder(ctx, pgtype.UUID{}, orderType)
	return agg, false, err
}

// resubmittedOrder returns the order of the outlet already holding one of
// the client ids.
func (ss *session) resubmittedOrder(ctx context.Context, items []AddItemRequest) (database.Order, bool, error) {
	for _, item := range items {
		orderID, err := ss.store.GetOrderIDByClientItem(ctx, database.GetOrderIDByClientItemParams{
			ClientItemID: item.ClientItemID,
			OutletID:     ss.actor.OutletID,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return database.Order{}, false, fmt.Errorf("find client item: %w", err)
		}
		o, err := ss.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, OutletID: ss.actor.OutletID})
		if err != nil {
			return database.Order{}, false, fmt.Errorf("get order: %w", err)
		}
		return o, true, nil
	}
	return database.Order{}, false, nil
}

// onTarget reports whether o is the order a request for tableID (uuid.Nil
// for no table) would use.
func onTarget(o database.Order, tableID uuid.UUID) bool {
	if tableID == uuid.Nil {
		return !o.TableID.Valid
	}
	return o.TableID.Valid && uuid.UUID(o.TableID.Bytes) == tableID
}

func clientIDs(items []AddItemRequest) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ClientItemID
	}
	return ids
}

func validateAddItems(req AddItemsRequest) (string, error) {
	if len(req.Items) == 0 {
		return "", ErrEmptyItems
	}
	orderType := req.OrderType
	if orderType == "" {
		orderType = enum.OrderTypeTakeaway
		if req.TableID != uuid.Nil {
			orderType = enum.OrderTypeDineIn
		}
	}
	switch orderType {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway, enum.OrderTypeDelivery:
	default:
		return "", ErrInvalidOrderType
	}

	for i, item := range req.Items {
		if item.ClientItemID == uuid.Nil {
			return "", fmt.Errorf("item[%d]: %w", i, ErrMissingClientID)
		}
		if item.ProductID == uuid.Nil {
			return "", fmt.Errorf("item[%d]: %w", i, ErrInvalidProductID)
		}
		if item.Quantity <= 0 {
			return "", fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if utf8.RuneCountInString(item.Notes) > maxNoteLength {
			return "", fmt.Errorf("item[%d]: %w", i, ErrNoteTooLong)
		}
		if item.DiscountType != "" {
			if !isValidDiscountType(item.DiscountType) {
				return "", fmt.Errorf("item[%d]: %w", i, ErrInvalidDiscount)
			}
			dv, err := decimal.NewFromString(item.DiscountValue)
			if err != nil || dv.IsNegative() {
				return "", fmt.Errorf("item[%d]: %w", i, ErrInvalidDiscountVal)
			}
			if item.DiscountType == enum.DiscountTypePercentage && dv.GreaterThan(decimal.NewFromInt(100)) {
				return "", fmt.Errorf("item[%d]: %w", i, ErrInvalidDiscountVal)
			}
		}
	}
	return orderType, nil
}

// addItems inserts the request lines and returns the client ids skipped as
// duplicates, whether seen earlier in this request or already stored.
func (ss *session) addItems(ctx context.Context, agg *Aggregate, items []AddItemRequest) ([]uuid.UUID, error) {
	var skipped []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(items))

	for i, item := range items {
		if seen[item.ClientItemID] || agg.hasClientItem(item.ClientItemID) {
			skipped = append(skipped, item.ClientItemID)
			continue
		}
		seen[item.ClientItemID] = true

		product, err := ss.store.GetProductForOrder(ctx, database.GetProductForOrderParams{
			ID:       item.ProductID,
			OutletID: ss.actor.OutletID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}
		if !product.Price.Valid {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrProductNoPrice)
		}
		if product.Stock.Valid && product.Stock.Int32 <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrOutOfStock)
		}

		params := buildItemParams(agg.Order.ID, product, item)
		created, err := insertItem(ctx, ss.store, params)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				skipped = append(skipped, item.ClientItemID)
				continue
			}
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		agg.Items = append(agg.Items, created)

		if product.Stock.Valid {
			if err := ss.adjustStock(ctx, product.ID, -item.Quantity); err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, err)
			}
		}
	}
	return skipped, nil
}

// buildItemParams snapshots the product's price and station onto the line.
func buildItemParams(orderID uuid.UUID, product database.GetProductForOrderRow, item AddItemRequest) database.CreateOrderItemParams {
	unitPrice := numericToDecimal(product.Price)

	discountType := pgtype.Text{}
	discountValue := pgtype.Numeric{}
	dv := decimal.Zero
	if item.DiscountType != "" {
		dv, _ = decimal.NewFromString(item.DiscountValue)
		discountType = pgtype.Text{String: item.DiscountType, Valid: true}
		discountValue = decimalToNumeric(dv)
	}
	discount, subtotal := lineAmounts(unitPrice, item.Quantity, item.DiscountType, dv)

	notes := pgtype.Text{}
	if item.Notes != "" {
		notes = pgtype.Text{String: item.Notes, Valid: true}
	}

	return database.CreateOrderItemParams{
		OrderID:        orderID,
		ClientItemID:   item.ClientItemID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		Quantity:       item.Quantity,
		UnitPrice:      decimalToNumeric(unitPrice),
		DiscountType:   discountType,
		DiscountValue:  discountValue,
		DiscountAmount: decimalToNumeric(discount),
		Subtotal:       decimalToNumeric(subtotal),
		Notes:          notes,
		Station:        product.Station,
	}
}

// insertItem relies on ON CONFLICT DO NOTHING: a concurrent or earlier
// insert of the same client item id returns no row.
func insertItem(ctx context.Context, store Store, params database.CreateOrderItemParams) (database.OrderItem, error) {
	item, err := store.CreateOrderItem(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, fmt.Errorf("%w: client item %s", ErrConflict, params.ClientItemID)
		}
		return database.OrderItem{}, fmt.Errorf("create order item: %w", err)
	}
	return item, nil
}

// adjustStock applies delta to a tracked product's stock and records a
// stock.updated event.
func (ss *session) adjustStock(ctx context.Context, productID uuid.UUID, delta int32) error {
	if delta == 0 {
		return nil
	}
	stock, err := ss.store.AdjustProductStock(ctx, database.AdjustProductStockParams{
		ID:    productID,
		Delta: delta,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// untracked product
			return nil
		}
		return fmt.Errorf("adjust stock: %w", err)
	}
	level := stock.Int32
	ss.emit(Event{
		Type:      EventStockUpdated,
		ProductID: idPtr(productID),
		Stock:     &level,
		Count:     int(delta),
	})
	return nil
}

func lockKey(orderID, tableID uuid.UUID) uuid.UUID {
	if orderID != uuid.Nil {
		return orderID
	}
	return tableID
}
