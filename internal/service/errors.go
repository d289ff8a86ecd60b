package service

import "errors"

// Error kinds. Every error returned by FulfillmentService that is not an
// infrastructure failure wraps exactly one of these, so callers can map
// them with errors.Is without knowing every specific error.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("duplicate submission")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Errors returned by the fulfillment service.
var (
	ErrOrderNotFound   = newError(ErrNotFound, "order not found")
	ErrItemNotFound    = newError(ErrNotFound, "order item not found")
	ErrTableNotFound   = newError(ErrNotFound, "table not found")
	ErrPersonNotFound  = newError(ErrNotFound, "person not found")
	ErrProductNotFound = newError(ErrNotFound, "product not found in outlet")
	ErrStationNotFound = newError(ErrNotFound, "no items for station in order")

	ErrOrderClosed        = newError(ErrInvalidState, "order is completed or cancelled")
	ErrOrderNotReady      = newError(ErrInvalidState, "order is not ready to pay")
	ErrItemNotDispatched  = newError(ErrInvalidState, "item has not been sent to a station")
	ErrItemAlreadyReady   = newError(ErrInvalidState, "item is already ready")
	ErrItemAlreadySent    = newError(ErrInvalidState, "item is already with the kitchen; add a new line instead")
	ErrInvalidTransition  = newError(ErrInvalidState, "invalid status transition")
	ErrNothingToDispatch  = newError(ErrValidation, "table has no open order to dispatch")
	ErrEmptyItems         = newError(ErrValidation, "items are required")
	ErrInvalidQuantity    = newError(ErrValidation, "quantity must be > 0")
	ErrMissingClientID    = newError(ErrValidation, "client_item_id is required")
	ErrInvalidProductID   = newError(ErrValidation, "invalid product_id")
	ErrProductNoPrice     = newError(ErrValidation, "product has no price")
	ErrOutOfStock         = newError(ErrValidation, "product is out of stock")
	ErrNoteTooLong        = newError(ErrValidation, "notes must be at most 200 characters")
	ErrInvalidDiscount    = newError(ErrValidation, "invalid discount_type")
	ErrInvalidDiscountVal = newError(ErrValidation, "invalid discount_value")
	ErrInvalidOrderType   = newError(ErrValidation, "invalid order_type")
	ErrAmbiguousItem      = newError(ErrValidation, "more than one item matches product and status; item id required")
	ErrItemRefRequired    = newError(ErrValidation, "item id or order id with product id is required")
	ErrReasonRequired     = newError(ErrValidation, "reason is required")
	ErrInvalidPersonName  = newError(ErrValidation, "person name must be 1-100 characters")
	ErrPersonMismatch     = newError(ErrValidation, "person belongs to a different order")
	ErrStationRequired    = newError(ErrValidation, "station is required")
)
