package book

// OrderBook is the synchronous matching core for a single instrument. It
// owns two price-ordered queues of FIFO levels plus per-order indexes, and
// matches with strict price-time priority.
//
// OrderBook is not safe for concurrent use: the matching pass depends on
// step-wise consistency between the two sides and the order indexes. Wrap
// it in an Engine (or an external mutex) to serve multiple callers.
type OrderBook struct {
	bids *queue
	asks *queue
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: newBidQueue(),
		asks: newAskQueue(),
	}
}

// AddOrder accepts an order and runs the matching pass, returning every
// trade the insertion generated.
//
// An order whose ID is already resting is a silent no-op. A FillAndKill
// order that cannot cross at submission is rejected outright: it is never
// stored and no trades are returned.
func (b *OrderBook) AddOrder(order *Order) []Trade {
	if order == nil || order.RemainingQuantity == 0 {
		return nil
	}

	if b.bids.order(order.ID) != nil || b.asks.order(order.ID) != nil {
		return nil
	}

	if order.Type == FillAndKill && !b.canMatch(order.Side, order.Price) {
		return nil
	}

	if order.Side == Buy {
		b.bids.insertOrder(order, false)
	} else {
		b.asks.insertOrder(order, false)
	}

	return b.matchOrders()
}

// CancelOrder removes a resting order in O(1) via the order index. Unknown
// ids are a silent no-op.
func (b *OrderBook) CancelOrder(id uint64) {
	if order := b.bids.order(id); order != nil {
		b.bids.removeOrder(order.Price, id)
		return
	}

	if order := b.asks.order(id); order != nil {
		b.asks.removeOrder(order.Price, id)
	}
}

// ModifyOrder replaces a resting order with a fresh one carrying the same
// order type and the new side, price, and quantity. The replacement is
// queued at the back of its new price level: modifying an order always
// loses its original time priority. Unknown ids return nil.
func (b *OrderBook) ModifyOrder(id uint64, newSide Side, newPrice int64, newQuantity uint64) []Trade {
	existing, ok := b.GetOrder(id)
	if !ok {
		return nil
	}

	replacement, err := NewOrder(existing.Type, id, newSide, newPrice, newQuantity)
	if err != nil {
		return nil
	}

	b.CancelOrder(id)
	return b.AddOrder(replacement)
}

// GetOrder returns a copy of a resting order's current state.
func (b *OrderBook) GetOrder(id uint64) (Order, bool) {
	order := b.bids.order(id)
	if order == nil {
		order = b.asks.order(id)
	}
	if order == nil {
		return Order{}, false
	}

	cpy := *order
	cpy.next = nil
	cpy.prev = nil
	return cpy, true
}

// GetOrderLevels returns the aggregated per-price totals for both sides,
// each in its own priority order. The snapshot reflects the instant it is
// computed and never mutates book state.
func (b *OrderBook) GetOrderLevels() LevelSnapshot {
	return LevelSnapshot{
		Bids: b.bids.levels(0),
		Asks: b.asks.levels(0),
	}
}

// Size returns the count of resting orders across both sides.
func (b *OrderBook) Size() int {
	return int(b.bids.orderCount() + b.asks.orderCount())
}

// canMatch reports whether an order at the given price could cross the
// opposite side's best price right now.
func (b *OrderBook) canMatch(side Side, price int64) bool {
	if side == Buy {
		bestAsk, ok := b.asks.bestPrice()
		return ok && price >= bestAsk
	}

	bestBid, ok := b.bids.bestPrice()
	return ok && price <= bestBid
}

// matchOrders crosses the book until the best bid no longer reaches the
// best ask. Each iteration re-fetches the current best order on both sides,
// so emptied levels are never observed. Fully filled orders leave their
// queue and index immediately; a partially filled survivor is re-queued at
// the front of its level, keeping its time priority.
func (b *OrderBook) matchOrders() []Trade {
	var trades []Trade

	for {
		bid := b.bids.peekHeadOrder()
		ask := b.asks.peekHeadOrder()
		if bid == nil || ask == nil {
			break
		}

		if bid.Price < ask.Price {
			break
		}

		bid = b.bids.popHeadOrder()
		ask = b.asks.popHeadOrder()

		quantity := min(bid.RemainingQuantity, ask.RemainingQuantity)
		if err := bid.Fill(quantity); err != nil {
			panic(err)
		}
		if err := ask.Fill(quantity); err != nil {
			panic(err)
		}

		trades = append(trades, Trade{
			Bid: TradeHalf{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
			Ask: TradeHalf{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
		})

		if !bid.IsFilled() {
			b.bids.insertOrder(bid, true)
		}
		if !ask.IsFilled() {
			b.asks.insertOrder(ask, true)
		}
	}

	// A FillAndKill order left at the front after a partial cross must not
	// rest: kill the remainder on both sides.
	if bid := b.bids.peekHeadOrder(); bid != nil && bid.Type == FillAndKill {
		b.CancelOrder(bid.ID)
	}
	if ask := b.asks.peekHeadOrder(); ask != nil && ask.Type == FillAndKill {
		b.CancelOrder(ask.ID)
	}

	return trades
}
