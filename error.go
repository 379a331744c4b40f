package book

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParam    = errors.New("the param is invalid")
	ErrInternal        = errors.New("internal error")
	ErrInvalidQuantity = errors.New("order quantity must be greater than zero")
	ErrTimeout         = errors.New("timeout")
	ErrShutdown        = errors.New("engine is shutting down")
	ErrSequenceGap     = errors.New("sequence gap detected")
)

// OverfillError reports an attempt to fill an order beyond its remaining
// quantity. It indicates a bug in the matching logic itself; the matching
// pass treats it as fatal rather than a recoverable condition.
type OverfillError struct {
	OrderID   uint64
	Requested uint64
	Remaining uint64
}

func (e *OverfillError) Error() string {
	return fmt.Sprintf("order (%d) cannot be filled for more than its remaining quantity (requested %d, remaining %d)",
		e.OrderID, e.Requested, e.Remaining)
}
