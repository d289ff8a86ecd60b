package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiwari-pos/fulfillment/internal/enum"
	"github.com/kiwari-pos/fulfillment/internal/service"
)

// itemCommand runs a command that only needs the item id.
func (h *FulfillmentHandler) itemCommand(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error)) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID", "item ID")
	if !ok {
		return
	}
	res, err := fn(r.Context(), actor, itemID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

// MarkItemReady handles POST /outlets/{oid}/items/{itemID}/ready.
func (h *FulfillmentHandler) MarkItemReady(w http.ResponseWriter, r *http.Request) {
	h.itemCommand(w, r, "mark item ready", h.svc.MarkSpecificItemReady)
}

// StartItem handles POST /outlets/{oid}/items/{itemID}/start.
func (h *FulfillmentHandler) StartItem(w http.ResponseWriter, r *http.Request) {
	h.itemCommand(w, r, "start item", h.svc.StartItemPreparation)
}

// MarkShared handles PUT /outlets/{oid}/items/{itemID}/shared.
func (h *FulfillmentHandler) MarkShared(w http.ResponseWriter, r *http.Request) {
	h.itemCommand(w, r, "mark shared", h.svc.MarkShared)
}

// RemoveItem handles DELETE /outlets/{oid}/items/{itemID}.
func (h *FulfillmentHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.itemCommand(w, r, "remove item", func(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error) {
		return h.svc.RemoveItem(ctx, actor, service.ItemRef{ItemID: itemID})
	})
}

// RemoveItemByProduct handles
// DELETE /outlets/{oid}/items?order_id=&product_id=[&status=]
// for clients that only know which product to take off the order.
func (h *FulfillmentHandler) RemoveItemByProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	orderID, err := uuid.Parse(q.Get("order_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}
	productID, err := uuid.Parse(q.Get("product_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
		return
	}
	ref := service.ItemRef{OrderID: orderID, ProductID: productID}
	if s := q.Get("status"); s != "" {
		status, err := enum.ParseItemPrepState(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		ref.Status = status
	}

	res, err := h.svc.RemoveItem(r.Context(), actor, ref)
	if err != nil {
		h.writeError(w, r, "remove item", err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

type updateQuantityRequest struct {
	Quantity *int32 `json:"quantity"`
}

// UpdateItemQuantity handles PATCH /outlets/{oid}/items/{itemID}.
// A quantity of zero or less removes the item.
func (h *FulfillmentHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var body updateQuantityRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}
	h.itemCommand(w, r, "update item quantity", func(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error) {
		return h.svc.UpdateItemQuantity(ctx, actor, service.ItemRef{ItemID: itemID}, *body.Quantity)
	})
}

// VoidItem handles POST /outlets/{oid}/items/{itemID}/void.
func (h *FulfillmentHandler) VoidItem(w http.ResponseWriter, r *http.Request) {
	var body cancelRequest
	if !decode(w, r, &body) {
		return
	}
	supervisor, ok := body.supervisor(w)
	if !ok {
		return
	}
	h.itemCommand(w, r, "void item", func(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error) {
		return h.svc.VoidItem(ctx, service.VoidItemRequest{
			Actor:        actor,
			Ref:          service.ItemRef{ItemID: itemID},
			Reason:       body.Reason,
			SupervisorID: supervisor,
		})
	})
}

type assignRequest struct {
	PersonID string `json:"person_id"`
}

// AssignItem handles PUT /outlets/{oid}/items/{itemID}/person.
func (h *FulfillmentHandler) AssignItem(w http.ResponseWriter, r *http.Request) {
	var body assignRequest
	if !decode(w, r, &body) {
		return
	}
	personID, err := uuid.Parse(body.PersonID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid person_id"})
		return
	}
	h.itemCommand(w, r, "assign item", func(ctx context.Context, actor service.Actor, itemID uuid.UUID) (*service.CommandResult, error) {
		return h.svc.AssignItem(ctx, actor, itemID, personID)
	})
}
