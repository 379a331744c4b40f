package book

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypeOpen   EventType = "open"
	EventTypeMatch  EventType = "match"
	EventTypeCancel EventType = "cancel"
	EventTypeAmend  EventType = "amend"
	EventTypeReject EventType = "reject"
)

// RejectReason explains why an order was turned away without touching book
// state.
type RejectReason string

const (
	RejectReasonNone          RejectReason = ""
	RejectReasonNoLiquidity   RejectReason = "no_liquidity"   // FillAndKill: opposite side empty
	RejectReasonPriceMismatch RejectReason = "price_mismatch" // FillAndKill: cannot reach the best opposite price
	RejectReasonDuplicateID   RejectReason = "duplicate_id"   // an order with this id is already resting
)

// BookEvent describes one change observed by the engine loop. SequenceID is
// strictly increasing across every event of one engine; TradeID only grows
// on Match events. Use Type to decide whether the event affects book state:
// Open, Match, Cancel, and Amend do; Reject does not.
//
// For Amend events, Side/OldPrice/OldQuantity describe the level the order
// left; the replacement shows up as the following Open or Match events.
type BookEvent struct {
	SequenceID   uint64          `json:"seq_id"`
	TradeID      uint64          `json:"trade_id,omitempty"`
	Type         EventType       `json:"type"`
	Side         Side            `json:"side"`
	Price        int64           `json:"price"`
	Quantity     uint64          `json:"quantity"`
	Notional     decimal.Decimal `json:"notional,omitempty"` // Price * Quantity, Match only
	OldPrice     int64           `json:"old_price,omitempty"`
	OldQuantity  uint64          `json:"old_quantity,omitempty"`
	OrderID      uint64          `json:"order_id"`
	MakerOrderID uint64          `json:"maker_order_id,omitempty"`
	OrderType    OrderType       `json:"order_type,omitempty"`
	Reason       RejectReason    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

var bookEventPool = sync.Pool{
	New: func() interface{} {
		return new(BookEvent)
	},
}

func acquireBookEvent() *BookEvent {
	return bookEventPool.Get().(*BookEvent)
}

func releaseBookEvent(ev *BookEvent) {
	// Reset to zero values. The decimal zero value represents 0, which is valid.
	*ev = BookEvent{}
	bookEventPool.Put(ev)
}

// VWAP returns the volume-weighted average price across the Match events in
// events, as an exact decimal. Non-match events are ignored. Returns zero
// when there is no matched volume.
func VWAP(events []*BookEvent) decimal.Decimal {
	sumNotional := decimal.Zero
	var sumQuantity uint64

	for _, ev := range events {
		if ev.Type != EventTypeMatch {
			continue
		}
		sumNotional = sumNotional.Add(ev.Notional)
		sumQuantity += ev.Quantity
	}

	if sumQuantity == 0 {
		return decimal.Zero
	}

	return sumNotional.Div(decimal.NewFromUint64(sumQuantity))
}
