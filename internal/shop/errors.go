package shop

import "errors"

// ErrNotFound is returned by stores when a single-row lookup matches nothing.
// For cart lookups it is the expected "not in cart yet" answer.
var ErrNotFound = errors.New("not found")

// UserError carries the message shown to the customer in the page banner.
// Err, when set, is the cause kept for logging.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

func NewUserError(msg string) *UserError { return &UserError{Message: msg} }

// Message returns the customer-facing text for err, or fallback when err
// does not carry one.
func Message(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return fallback
}

// ErrStockLimit is returned when a cart quantity would exceed the product stock.
var ErrStockLimit = NewUserError("Quantidade máxima em estoque atingida.")
