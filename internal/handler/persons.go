package handler

import (
	"net/http"

	"github.com/kiwari-pos/fulfillment/internal/service"
)

type createPersonRequest struct {
	Name string `json:"name"`
}

// CreatePerson handles POST /outlets/{oid}/orders/{id}/persons.
func (h *FulfillmentHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id", "order ID")
	if !ok {
		return
	}
	var body createPersonRequest
	if !decode(w, r, &body) {
		return
	}

	p, err := h.svc.CreatePerson(r.Context(), actor, orderID, body.Name)
	if err != nil {
		h.writeError(w, r, "create person", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonResponse(*p))
}

// DeletePerson handles DELETE /outlets/{oid}/persons/{pid}. The person's
// items move to the shared pool.
func (h *FulfillmentHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	personID, ok := pathUUID(w, r, "pid", "person ID")
	if !ok {
		return
	}

	moved, err := h.svc.DeletePerson(r.Context(), actor, personID)
	if err != nil {
		h.writeError(w, r, "delete person", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"items_shared": moved})
}

// PersonTotal handles GET /outlets/{oid}/persons/{pid}/total.
func (h *FulfillmentHandler) PersonTotal(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	personID, ok := pathUUID(w, r, "pid", "person ID")
	if !ok {
		return
	}

	total, err := h.svc.CalculateTotalForPerson(r.Context(), actor, personID)
	if err != nil {
		h.writeError(w, r, "person total", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"person_id": personID.String(),
		"total":     total.StringFixed(2),
	})
}

// ListShared handles GET /outlets/{oid}/orders/{id}/shared.
func (h *FulfillmentHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	items, err := h.svc.ListSharedItems(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "list shared items", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

// SplitSummary handles GET /outlets/{oid}/orders/{id}/split.
func (h *FulfillmentHandler) SplitSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	split, err := h.svc.SplitSummary(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "split summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitResponse(split))
}

var _ FulfillmentServicer = (*service.FulfillmentService)(nil)
