package book

import "github.com/shopspring/decimal"

// TradeHalf records one participant's view of a single match: its order id,
// its own limit price (execution is reported at each resting order's price,
// not a single clearing price), and the matched quantity.
type TradeHalf struct {
	OrderID  uint64 `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Notional returns price * quantity as an exact decimal.
func (h TradeHalf) Notional() decimal.Decimal {
	return notionalOf(h.Price, h.Quantity)
}

// Trade is the immutable record of one crossing event. Both halves always
// carry the same quantity. Trades are owned by the caller once returned.
type Trade struct {
	Bid TradeHalf `json:"bid"`
	Ask TradeHalf `json:"ask"`
}

// Quantity returns the matched quantity shared by both halves.
func (t Trade) Quantity() uint64 {
	return t.Bid.Quantity
}

func notionalOf(price int64, quantity uint64) decimal.Decimal {
	return decimal.NewFromInt(price).Mul(decimal.NewFromUint64(quantity))
}
