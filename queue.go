package book

import (
	"github.com/huandu/skiplist"
)

// priceUnit is one price level: a FIFO of orders linked through their
// intrusive pointers (head = oldest) plus the running total of their
// remaining quantities.
type priceUnit struct {
	totalQuantity uint64
	head          *Order
	tail          *Order
	count         int64
}

// queue holds one side of the book. The skip list orders price levels by
// that side's priority (bids descending, asks ascending); priceList and
// orders are secondary indexes for O(1) level and order lookup.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[int64]*skiplist.Element
	orders      map[uint64]*Order
}

// newBidQueue creates the queue for buy orders, sorted by price in
// descending order (highest price first).
func newBidQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*skiplist.Element),
		orders:    make(map[uint64]*Order),
	}
}

// newAskQueue creates the queue for sell orders, sorted by price in
// ascending order (lowest price first).
func newAskQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*skiplist.Element),
		orders:    make(map[uint64]*Order),
	}
}

// order finds an order by its ID.
func (q *queue) order(id uint64) *Order {
	return q.orders[id]
}

// insertOrder inserts an order into the queue, creating its price level if
// needed. isFront re-queues a partially filled order at the head of its
// level so it keeps time priority; new arrivals always go to the back.
func (q *queue) insertOrder(order *Order, isFront bool) {
	el, ok := q.priceList[order.Price]
	if ok {
		unit, _ := el.Value.(*priceUnit)
		if isFront {
			order.next = unit.head
			order.prev = nil
			if unit.head != nil {
				unit.head.prev = order
			}
			unit.head = order
			if unit.tail == nil {
				unit.tail = order
			}
		} else {
			order.prev = unit.tail
			order.next = nil
			if unit.tail != nil {
				unit.tail.next = order
			}
			unit.tail = order
			if unit.head == nil {
				unit.head = order
			}
		}

		unit.totalQuantity += order.RemainingQuantity
		unit.count++
		q.orders[order.ID] = order
		q.totalOrders++
	} else {
		unit := &priceUnit{
			head:          order,
			tail:          order,
			totalQuantity: order.RemainingQuantity,
			count:         1,
		}
		order.next = nil
		order.prev = nil

		q.orders[order.ID] = order

		el := q.depthList.Set(order.Price, unit)
		q.priceList[order.Price] = el

		q.totalOrders++
		q.depths++
	}
}

// removeOrder removes an order from the queue by price and ID.
// The price level is erased the instant its FIFO empties.
func (q *queue) removeOrder(price int64, id uint64) {
	skipElement, ok := q.priceList[price]
	if !ok {
		return
	}
	unit, _ := skipElement.Value.(*priceUnit)

	order, ok := q.orders[id]
	if !ok {
		return
	}

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		unit.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		unit.tail = order.prev
	}

	// Clear pointers to avoid leaks
	order.next = nil
	order.prev = nil

	unit.totalQuantity -= order.RemainingQuantity
	unit.count--
	delete(q.orders, id)
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(skipElement)
		delete(q.priceList, price)
		q.depths--
	}
}

// bestPrice returns the best price on this side, if any.
func (q *queue) bestPrice() (int64, bool) {
	el := q.depthList.Front()
	if el == nil {
		return 0, false
	}

	price, _ := el.Key().(int64)
	return price, true
}

// peekHeadOrder returns the oldest order at the best price without removing it.
func (q *queue) peekHeadOrder() *Order {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceUnit)
	return unit.head
}

// popHeadOrder removes and returns the oldest order at the best price.
func (q *queue) popHeadOrder() *Order {
	ord := q.peekHeadOrder()

	if ord != nil {
		q.removeOrder(ord.Price, ord.ID)
	}

	return ord
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// levels returns the aggregated price levels in this side's priority order.
// limit <= 0 returns every level.
func (q *queue) levels(limit int) []Level {
	n := int(q.depths)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]Level, 0, n)

	el := q.depthList.Front()
	for el != nil && len(result) < n {
		unit, _ := el.Value.(*priceUnit)
		price, _ := el.Key().(int64)

		result = append(result, Level{
			Price:    price,
			Quantity: unit.totalQuantity,
		})

		el = el.Next()
	}

	return result
}
