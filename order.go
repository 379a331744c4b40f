package book

import "time"

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

type OrderType string

const (
	GoodTillCancel OrderType = "gtc" // rests until filled or cancelled
	FillAndKill    OrderType = "fak" // executes what it can immediately, never rests
)

// Order represents the state of one resting or incoming order.
// Prices are tick-indexed integers; the engine performs no currency or
// tick-size conversion. The book owns every Order it accepts; callers must
// not mutate an order after submitting it.
type Order struct {
	ID                uint64    `json:"id"`
	Type              OrderType `json:"type"`
	Side              Side      `json:"side"`
	Price             int64     `json:"price"`
	InitialQuantity   uint64    `json:"initial_quantity"`
	RemainingQuantity uint64    `json:"remaining_quantity"`
	Timestamp         int64     `json:"timestamp"` // Unix nano, creation time

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// NewOrder creates an order ready for submission. Zero-quantity orders are
// rejected here; the book never sees them.
func NewOrder(orderType OrderType, id uint64, side Side, price int64, quantity uint64) (*Order, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	return &Order{
		ID:                id,
		Type:              orderType,
		Side:              side,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
		Timestamp:         time.Now().UnixNano(),
	}, nil
}

// Fill reduces the remaining quantity by quantity. Filling beyond the
// remaining quantity returns an *OverfillError.
func (o *Order) Fill(quantity uint64) error {
	if quantity > o.RemainingQuantity {
		return &OverfillError{
			OrderID:   o.ID,
			Requested: quantity,
			Remaining: o.RemainingQuantity,
		}
	}

	o.RemainingQuantity -= quantity
	return nil
}

// FilledQuantity returns how much of the order has executed so far.
func (o *Order) FilledQuantity() uint64 {
	return o.InitialQuantity - o.RemainingQuantity
}

// IsFilled reports whether the order is fully executed.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}
