package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/shopspring/decimal"
)

// --- Response types ---

type orderResponse struct {
	ID          uuid.UUID      `json:"id"`
	OutletID    uuid.UUID      `json:"outlet_id"`
	TableID     *uuid.UUID     `json:"table_id"`
	OrderType   string         `json:"order_type"`
	Status      string         `json:"status"`
	TotalAmount string         `json:"total_amount"`
	OpenedAt    time.Time      `json:"opened_at"`
	ClosedAt    *time.Time     `json:"closed_at"`
	CreatedBy   uuid.UUID      `json:"created_by"`
	Items       []itemResponse `json:"items"`
}

type itemResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrderID        uuid.UUID  `json:"order_id"`
	ClientItemID   uuid.UUID  `json:"client_item_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	ProductName    string     `json:"product_name"`
	Quantity       int32      `json:"quantity"`
	UnitPrice      string     `json:"unit_price"`
	DiscountType   *string    `json:"discount_type"`
	DiscountValue  *string    `json:"discount_value"`
	DiscountAmount string     `json:"discount_amount"`
	Subtotal       string     `json:"subtotal"`
	Notes          *string    `json:"notes"`
	Station        *string    `json:"station"`
	Status         string     `json:"status"`
	KitchenStatus  string     `json:"kitchen_status"`
	SentAt         *time.Time `json:"sent_at"`
	PreparedAt     *time.Time `json:"prepared_at"`
	PersonID       *uuid.UUID `json:"person_id"`
	IsShared       bool       `json:"is_shared"`
}

// commandResponse is returned by every mutating endpoint. Order is null
// when the command deleted the order (its last item was removed).
type commandResponse struct {
	Order       *orderResponse `json:"order"`
	Deleted     bool           `json:"deleted"`
	TableStatus string         `json:"table_status,omitempty"`
	Skipped     []uuid.UUID    `json:"skipped,omitempty"`
}

type personResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type personShareResponse struct {
	Person personResponse `json:"person"`
	Items  []itemResponse `json:"items"`
	Total  string         `json:"total"`
}

type splitResponse struct {
	OrderID     uuid.UUID             `json:"order_id"`
	Persons     []personShareResponse `json:"persons"`
	Shared      []itemResponse        `json:"shared"`
	SharedTotal string                `json:"shared_total"`
	Total       string                `json:"total"`
}

type queueItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	ProductName   string     `json:"product_name"`
	Quantity      int32      `json:"quantity"`
	Notes         *string    `json:"notes"`
	Status        string     `json:"status"`
	KitchenStatus string     `json:"kitchen_status"`
	SentAt        *time.Time `json:"sent_at"`
	TableID       *uuid.UUID `json:"table_id"`
	TableLabel    *string    `json:"table_label"`
	Station       string     `json:"station"`
}

// --- Conversions ---

func toCommandResponse(res *service.CommandResult) commandResponse {
	resp := commandResponse{
		TableStatus: string(res.TableStatus),
		Skipped:     res.Skipped,
	}
	if res.Order == nil {
		resp.Deleted = true
		return resp
	}
	o := toOrderResponse(res.Order)
	resp.Order = &o
	return resp
}

func toOrderResponse(agg *service.Aggregate) orderResponse {
	o := agg.Order
	resp := orderResponse{
		ID:          o.ID,
		OutletID:    o.OutletID,
		TableID:     uuidPtr(o.TableID),
		OrderType:   o.OrderType,
		Status:      string(o.Status),
		TotalAmount: numericToString(o.TotalAmount),
		OpenedAt:    o.OpenedAt,
		ClosedAt:    timePtr(o.ClosedAt),
		CreatedBy:   o.CreatedBy,
	}
	resp.Items = toItemResponses(agg.Items)
	return resp
}

func toItemResponses(items []database.OrderItem) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, it := range items {
		out[i] = itemResponse{
			ID:             it.ID,
			OrderID:        it.OrderID,
			ClientItemID:   it.ClientItemID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPrice:      numericToString(it.UnitPrice),
			DiscountType:   textPtr(it.DiscountType),
			DiscountAmount: numericToString(it.DiscountAmount),
			Subtotal:       numericToString(it.Subtotal),
			Notes:          textPtr(it.Notes),
			Station:        textPtr(it.Station),
			Status:         string(it.Status),
			KitchenStatus:  string(it.KitchenStatus),
			SentAt:         timePtr(it.SentAt),
			PreparedAt:     timePtr(it.PreparedAt),
			PersonID:       uuidPtr(it.PersonID),
			IsShared:       it.IsShared,
		}
		if it.DiscountValue.Valid {
			v := numericToString(it.DiscountValue)
			out[i].DiscountValue = &v
		}
	}
	return out
}

func toPersonResponse(p database.Person) personResponse {
	return personResponse{ID: p.ID, OrderID: p.OrderID, Name: p.Name, CreatedAt: p.CreatedAt}
}

func toSplitResponse(s *service.Split) splitResponse {
	resp := splitResponse{
		OrderID:     s.OrderID,
		Persons:     make([]personShareResponse, len(s.Persons)),
		Shared:      toItemResponses(s.Shared),
		SharedTotal: s.SharedTotal.StringFixed(2),
		Total:       s.Total.StringFixed(2),
	}
	for i, p := range s.Persons {
		resp.Persons[i] = personShareResponse{
			Person: toPersonResponse(p.Person),
			Items:  toItemResponses(p.Items),
			Total:  p.Total.StringFixed(2),
		}
	}
	return resp
}

func toQueueResponse(rows []database.ListStationQueueRow) []queueItemResponse {
	out := make([]queueItemResponse, len(rows))
	for i, row := range rows {
		out[i] = queueItemResponse{
			ID:            row.ID,
			OrderID:       row.OrderID,
			ProductName:   row.ProductName,
			Quantity:      row.Quantity,
			Notes:         textPtr(row.Notes),
			Status:        string(row.Status),
			KitchenStatus: string(row.KitchenStatus),
			SentAt:        timePtr(row.SentAt),
			TableID:       uuidPtr(row.TableID),
			TableLabel:    textPtr(row.TableLabel),
			Station:       row.StationType,
		}
	}
	return out
}

// --- Helpers ---

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
