package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/auth"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/middleware"
	"github.com/kiwari-pos/fulfillment/internal/service"
	"github.com/shopspring/decimal"
)

// FulfillmentServicer defines the service methods needed by the
// fulfillment handlers. Satisfied by *service.FulfillmentService; narrow
// interface for testability.
type FulfillmentServicer interface {
	AddItems(ctx context.Context, req service.AddItemsRequest) (*service.CommandResult, error)
	SendToKitchen(ctx context.Context, req service.DispatchRequest) (*service.CommandResult, error)

	MarkOrderReady(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.CommandResult, error)
	MarkStationItemsReady(ctx context.Context, actor service.Actor, orderID uuid.UUID, station string) (*service.CommandResult, error)
	MarkSpecificItemReady(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error)
	StartItemPreparation(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error)

	UpdateItemQuantity(ctx context.Context, actor service.Actor, ref service.ItemRef, qty int32) (*service.CommandResult, error)
	RemoveItem(ctx context.Context, actor service.Actor, ref service.ItemRef) (*service.CommandResult, error)
	VoidItem(ctx context.Context, req service.VoidItemRequest) (*service.CommandResult, error)

	CancelOrder(ctx context.Context, req service.CancelOrderRequest) (*service.CommandResult, error)
	CompleteOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.CommandResult, error)

	CreatePerson(ctx context.Context, actor service.Actor, orderID uuid.UUID, name string) (*database.Person, error)
	DeletePerson(ctx context.Context, actor service.Actor, personID uuid.UUID) (int64, error)
	AssignItem(ctx context.Context, actor service.Actor, itemID, personID uuid.UUID) (*service.CommandResult, error)
	MarkShared(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error)
	CalculateTotalForPerson(ctx context.Context, actor service.Actor, personID uuid.UUID) (decimal.Decimal, error)
	ListSharedItems(ctx context.Context, actor service.Actor, orderID uuid.UUID) ([]database.OrderItem, error)
	SplitSummary(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.Split, error)

	GetOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.Aggregate, error)
	StationQueue(ctx context.Context, actor service.Actor, station string) ([]database.ListStationQueueRow, error)
}

// Publisher receives the events of a committed command.
// Satisfied by *notify.Notifier.
type Publisher interface {
	Publish(events ...service.Event)
}

// FulfillmentHandler exposes the order fulfillment commands.
type FulfillmentHandler struct {
	svc    FulfillmentServicer
	pub    Publisher
	logger *slog.Logger
}

// NewFulfillmentHandler creates a new FulfillmentHandler.
func NewFulfillmentHandler(svc FulfillmentServicer, pub Publisher, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc, pub: pub, logger: logger}
}

// RegisterRoutes registers the fulfillment endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}
func (h *FulfillmentHandler) RegisterRoutes(r chi.Router) {
	frontOfHouse := middleware.RequireRole(auth.FrontOfHouse...)
	supervisor := middleware.RequireRole(auth.RoleOwner, auth.RoleManager, auth.RoleCashier)

	// Kitchen side: reads and readiness marks.
	r.Get("/orders/{id}", h.GetOrder)
	r.Post("/orders/{id}/ready", h.MarkOrderReady)
	r.Post("/orders/{id}/stations/{station}/ready", h.MarkStationReady)
	r.Get("/orders/{id}/shared", h.ListShared)
	r.Get("/orders/{id}/split", h.SplitSummary)
	r.Post("/items/{itemID}/ready", h.MarkItemReady)
	r.Post("/items/{itemID}/start", h.StartItem)
	r.Get("/persons/{pid}/total", h.PersonTotal)
	r.Get("/stations/{station}/queue", h.StationQueue)

	// Front of house: everything that changes what was ordered.
	r.Group(func(r chi.Router) {
		r.Use(frontOfHouse)

		r.Post("/tables/{tid}/items", h.AddTableItems)
		r.Post("/tables/{tid}/dispatch", h.SendToKitchen)

		r.Post("/orders", h.CreateOrder)
		r.Post("/orders/{id}/items", h.AddOrderItems)
		r.Post("/orders/{id}/complete", h.CompleteOrder)
		r.Post("/orders/{id}/persons", h.CreatePerson)

		r.Patch("/items/{itemID}", h.UpdateItemQuantity)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Put("/items/{itemID}/person", h.AssignItem)
		r.Put("/items/{itemID}/shared", h.MarkShared)
		r.Delete("/items", h.RemoveItemByProduct)

		r.Delete("/persons/{pid}", h.DeletePerson)
	})

	r.With(supervisor).Post("/orders/{id}/cancel", h.CancelOrder)
	r.With(supervisor).Post("/items/{itemID}/void", h.VoidItem)
}

// --- Shared plumbing ---

// actor builds the caller from the verified token and the outlet of the
// route, which RequireOutlet has already authorised.
func (h *FulfillmentHandler) actor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return service.Actor{}, false
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, OutletID: outletID, Role: claims.Role}, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + label})
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// respond publishes the events of a committed command and writes the
// result. Publishing never blocks the request.
func (h *FulfillmentHandler) respond(w http.ResponseWriter, status int, res *service.CommandResult) {
	if len(res.Events) > 0 {
		h.pub.Publish(res.Events...)
	}
	writeJSON(w, status, toCommandResponse(res))
}

// writeError maps a service error to its HTTP status by error kind.
func (h *FulfillmentHandler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error(op+" failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// --- Orders ---

type addItemRequest struct {
	ClientItemID  string `json:"client_item_id"`
	ProductID     string `json:"product_id"`
	Quantity      int32  `json:"quantity"`
	Notes         string `json:"notes"`
	DiscountType  string `json:"discount_type"`
	DiscountValue string `json:"discount_value"`
}

type addItemsRequest struct {
	OrderType string           `json:"order_type"`
	Items     []addItemRequest `json:"items"`
}

func (req addItemsRequest) toService(w http.ResponseWriter, actor service.Actor) (service.AddItemsRequest, bool) {
	out := service.AddItemsRequest{Actor: actor, OrderType: req.OrderType, Items: make([]service.AddItemRequest, len(req.Items))}
	for i, it := range req.Items {
		clientID, err := uuid.Parse(it.ClientItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatItemError(i, "client_item_id must be a UUID")})
			return out, false
		}
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatItemError(i, "invalid product_id")})
			return out, false
		}
		out.Items[i] = service.AddItemRequest{
			ClientItemID:  clientID,
			ProductID:     productID,
			Quantity:      it.Quantity,
			Notes:         it.Notes,
			DiscountType:  it.DiscountType,
			DiscountValue: it.DiscountValue,
		}
	}
	return out, true
}

func formatItemError(idx int, msg string) string {
	return fmt.Sprintf("items[%d]: %s", idx, msg)
}

func (h *FulfillmentHandler) addItems(w http.ResponseWriter, r *http.Request, target func(*service.AddItemsRequest) bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body addItemsRequest
	if !decode(w, r, &body) {
		return
	}
	req, ok := body.toService(w, actor)
	if !ok || !target(&req) {
		return
	}

	res, err := h.svc.AddItems(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "add items", err)
		return
	}
	h.respond(w, http.StatusCreated, res)
}

// AddTableItems handles POST /outlets/{oid}/tables/{tid}/items.
func (h *FulfillmentHandler) AddTableItems(w http.ResponseWriter, r *http.Request) {
	h.addItems(w, r, func(req *service.AddItemsRequest) bool {
		id, ok := pathUUID(w, r, "tid", "table ID")
		req.TableID = id
		return ok
	})
}

// AddOrderItems handles POST /outlets/{oid}/orders/{id}/items.
func (h *FulfillmentHandler) AddOrderItems(w http.ResponseWriter, r *http.Request) {
	h.addItems(w, r, func(req *service.AddItemsRequest) bool {
		id, ok := pathUUID(w, r, "id", "order ID")
		req.OrderID = id
		return ok
	})
}

// CreateOrder handles POST /outlets/{oid}/orders: a new order without a
// table (takeaway or delivery) with its first items.
func (h *FulfillmentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	h.addItems(w, r, func(*service.AddItemsRequest) bool { return true })
}

// SendToKitchen handles POST /outlets/{oid}/tables/{tid}/dispatch.
func (h *FulfillmentHandler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tableID, ok := pathUUID(w, r, "tid", "table ID")
	if !ok {
		return
	}
	res, err := h.svc.SendToKitchen(r.Context(), service.DispatchRequest{Actor: actor, TableID: tableID})
	if err != nil {
		h.writeError(w, r, "send to kitchen", err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

// GetOrder handles GET /outlets/{oid}/orders/{id}.
func (h *FulfillmentHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id", "order ID")
	if !ok {
		return
	}
	agg, err := h.svc.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(agg))
}

// orderCommand runs a command that only needs the order id.
func (h *FulfillmentHandler) orderCommand(op string, fn func(ctx context.Context, actor service.Actor, orderID uuid.UUID, r *http.Request) (*service.CommandResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		orderID, ok := pathUUID(w, r, "id", "order ID")
		if !ok {
			return
		}
		res, err := fn(r.Context(), actor, orderID, r)
		if err != nil {
			h.writeError(w, r, op, err)
			return
		}
		h.respond(w, http.StatusOK, res)
	}
}

// MarkOrderReady handles POST /outlets/{oid}/orders/{id}/ready.
func (h *FulfillmentHandler) MarkOrderReady(w http.ResponseWriter, r *http.Request) {
	h.orderCommand("mark order ready", func(ctx context.Context, actor service.Actor, orderID uuid.UUID, _ *http.Request) (*service.CommandResult, error) {
		return h.svc.MarkOrderReady(ctx, actor, orderID)
	})(w, r)
}

// MarkStationReady handles POST /outlets/{oid}/orders/{id}/stations/{station}/ready.
func (h *FulfillmentHandler) MarkStationReady(w http.ResponseWriter, r *http.Request) {
	h.orderCommand("mark station ready", func(ctx context.Context, actor service.Actor, orderID uuid.UUID, r *http.Request) (*service.CommandResult, error) {
		return h.svc.MarkStationItemsReady(ctx, actor, orderID, chi.URLParam(r, "station"))
	})(w, r)
}

// CompleteOrder handles POST /outlets/{oid}/orders/{id}/complete.
func (h *FulfillmentHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.orderCommand("complete order", func(ctx context.Context, actor service.Actor, orderID uuid.UUID, _ *http.Request) (*service.CommandResult, error) {
		return h.svc.CompleteOrder(ctx, actor, orderID)
	})(w, r)
}

type cancelRequest struct {
	Reason       string `json:"reason"`
	SupervisorID string `json:"supervisor_id"`
}

func (req cancelRequest) supervisor(w http.ResponseWriter) (*uuid.UUID, bool) {
	if req.SupervisorID == "" {
		return nil, true
	}
	id, err := uuid.Parse(req.SupervisorID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid supervisor_id"})
		return nil, false
	}
	return &id, true
}

// CancelOrder handles POST /outlets/{oid}/orders/{id}/cancel.
func (h *FulfillmentHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id", "order ID")
	if !ok {
		return
	}
	var body cancelRequest
	if !decode(w, r, &body) {
		return
	}
	supervisor, ok := body.supervisor(w)
	if !ok {
		return
	}

	res, err := h.svc.CancelOrder(r.Context(), service.CancelOrderRequest{
		Actor:        actor,
		OrderID:      orderID,
		Reason:       body.Reason,
		SupervisorID: supervisor,
	})
	if err != nil {
		h.writeError(w, r, "cancel order", err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

// StationQueue handles GET /outlets/{oid}/stations/{station}/queue.
func (h *FulfillmentHandler) StationQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.StationQueue(r.Context(), actor, chi.URLParam(r, "station"))
	if err != nil {
		h.writeError(w, r, "station queue", err)
		return
	}
	writeJSON(w, http.StatusOK, toQueueResponse(rows))
}
