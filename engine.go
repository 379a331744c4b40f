package book

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// commandType tags commands sent to the engine loop.
type commandType int

const (
	cmdPlaceOrder commandType = iota
	cmdCancelOrder
	cmdModifyOrder
	cmdLevels
	cmdDepth
	cmdStats
)

// command is the unified envelope processed by the engine loop. A single
// channel keeps ordering deterministic across mutations and reads.
type command struct {
	kind    commandType
	payload any
	resp    chan any // optional: for synchronous responses (e.g. cmdDepth)
}

// ModifyRequest asks the engine to replace a resting order. The replacement
// keeps the original order type but takes the new side, price, and
// quantity, and is queued as if newly arrived.
type ModifyRequest struct {
	OrderID     uint64
	NewSide     Side
	NewPrice    int64
	NewQuantity uint64
}

// BookStats contains usage statistics for the engine's book.
type BookStats struct {
	BidDepthCount int64
	BidOrderCount int64
	AskDepthCount int64
	AskOrderCount int64
}

// Engine serializes all access to one OrderBook behind a command channel
// drained by a single goroutine. This is the required discipline for
// serving concurrent callers: every mutation runs to completion on the loop
// goroutine, and reads are answered from the same loop so no interleaved
// bid/ask view is ever exposed.
type Engine struct {
	seqID            atomic.Uint64 // increasing sequence ID stamped on every published BookEvent
	tradeID          atomic.Uint64 // sequential trade ID, only incremented for Match events
	isShutdown       atomic.Bool
	book             *OrderBook
	cmdChan          chan command
	done             chan struct{}
	shutdownComplete chan struct{}
	publisher        EventPublisher
}

// NewEngine creates an engine around an empty book. Events go to publisher;
// pass nil to discard them.
func NewEngine(publisher EventPublisher) *Engine {
	if publisher == nil {
		publisher = NewDiscardEventPublisher()
	}

	return &Engine{
		book:             NewOrderBook(),
		cmdChan:          make(chan command, 32768),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
		publisher:        publisher,
	}
}

// PlaceOrder submits an order to the engine asynchronously.
// Returns ErrShutdown if the engine is shutting down.
func (e *Engine) PlaceOrder(ctx context.Context, order *Order) error {
	if e.isShutdown.Load() {
		return ErrShutdown
	}

	if order == nil || len(order.Type) == 0 {
		return ErrInvalidParam
	}

	if order.RemainingQuantity == 0 {
		return ErrInvalidQuantity
	}

	select {
	case e.cmdChan <- command{kind: cmdPlaceOrder, payload: order}:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// CancelOrder submits a cancellation request asynchronously. Cancelling an
// unknown id is a no-op inside the loop, mirroring the book's contract.
func (e *Engine) CancelOrder(ctx context.Context, id uint64) error {
	if e.isShutdown.Load() {
		return ErrShutdown
	}

	select {
	case e.cmdChan <- command{kind: cmdCancelOrder, payload: id}:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// ModifyOrder submits a request to replace an existing order asynchronously.
func (e *Engine) ModifyOrder(ctx context.Context, req ModifyRequest) error {
	if e.isShutdown.Load() {
		return ErrShutdown
	}

	if req.NewQuantity == 0 {
		return ErrInvalidQuantity
	}

	select {
	case e.cmdChan <- command{kind: cmdModifyOrder, payload: &req}:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// Levels returns the full aggregated level snapshot, computed on the engine
// loop so bids and asks are consistent with each other.
func (e *Engine) Levels() (LevelSnapshot, error) {
	res, err := e.query(command{kind: cmdLevels, resp: make(chan any, 1)})
	if err != nil {
		return LevelSnapshot{}, err
	}

	snapshot, ok := res.(LevelSnapshot)
	if !ok {
		return LevelSnapshot{}, ErrInternal
	}
	return snapshot, nil
}

// Depth returns the current depth of the book up to limit levels per side.
func (e *Engine) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	res, err := e.query(command{kind: cmdDepth, payload: limit, resp: make(chan any, 1)})
	if err != nil {
		return nil, err
	}

	depth, ok := res.(*Depth)
	if !ok {
		return nil, ErrInternal
	}
	return depth, nil
}

// Stats returns usage statistics for the book.
func (e *Engine) Stats() (*BookStats, error) {
	res, err := e.query(command{kind: cmdStats, resp: make(chan any, 1)})
	if err != nil {
		return nil, err
	}

	stats, ok := res.(*BookStats)
	if !ok {
		return nil, ErrInternal
	}
	return stats, nil
}

// Size returns the count of resting orders across both sides.
func (e *Engine) Size() (int, error) {
	stats, err := e.Stats()
	if err != nil {
		return 0, err
	}

	return int(stats.BidOrderCount + stats.AskOrderCount), nil
}

// query sends a read command to the loop and waits for its response.
func (e *Engine) query(cmd command) (any, error) {
	select {
	case e.cmdChan <- cmd:
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-cmd.resp:
		return res, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// Start runs the engine loop, processing orders, cancellations, and reads.
// Returns nil when Shutdown() is called and all pending commands drained.
func (e *Engine) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-e.done:
			return e.drain()
		case cmd := <-e.cmdChan:
			e.dispatch(cmd)
		}
	}
}

// Shutdown signals the loop to stop accepting new commands and waits until
// pending mutations are drained, or the context expires.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.isShutdown.CompareAndSwap(false, true) {
		close(e.done)
	}

	select {
	case <-e.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes all remaining mutating commands before returning.
func (e *Engine) drain() error {
	defer close(e.shutdownComplete)

	for {
		select {
		case cmd := <-e.cmdChan:
			switch cmd.kind {
			case cmdPlaceOrder, cmdCancelOrder, cmdModifyOrder:
				e.dispatch(cmd)
			case cmdLevels, cmdDepth, cmdStats:
				// Read-only commands, no-op during drain
			}
		default:
			return nil
		}
	}
}

func (e *Engine) dispatch(cmd command) {
	switch cmd.kind {
	case cmdPlaceOrder:
		if order, ok := cmd.payload.(*Order); ok {
			e.placeOrder(order)
		}
	case cmdCancelOrder:
		if id, ok := cmd.payload.(uint64); ok {
			e.cancelOrder(id)
		}
	case cmdModifyOrder:
		if req, ok := cmd.payload.(*ModifyRequest); ok {
			e.modifyOrder(req)
		}
	case cmdLevels:
		e.respond(cmd, e.book.GetOrderLevels())
	case cmdDepth:
		if limit, ok := cmd.payload.(uint32); ok {
			e.respond(cmd, &Depth{
				UpdateID: e.seqID.Load(),
				Bids:     e.book.bids.levels(int(limit)),
				Asks:     e.book.asks.levels(int(limit)),
			})
		}
	case cmdStats:
		e.respond(cmd, &BookStats{
			BidDepthCount: e.book.bids.depthCount(),
			BidOrderCount: e.book.bids.orderCount(),
			AskDepthCount: e.book.asks.depthCount(),
			AskOrderCount: e.book.asks.orderCount(),
		})
	}
}

// respond delivers a query result without blocking the loop.
func (e *Engine) respond(cmd command, v any) {
	if cmd.resp == nil {
		return
	}

	select {
	case cmd.resp <- v:
	default:
		logger.Warn("engine: query response dropped, no receiver")
	}
}

// placeOrder runs one order through the book and publishes the events it
// produced: matches first, then an open if the remainder rested, or a
// reject if the order never entered the book.
func (e *Engine) placeOrder(order *Order) {
	now := time.Now().UTC()

	if _, ok := e.book.GetOrder(order.ID); ok {
		ev := acquireBookEvent()
		ev.SequenceID = e.seqID.Add(1)
		ev.Type = EventTypeReject
		ev.Side = order.Side
		ev.Price = order.Price
		ev.Quantity = order.RemainingQuantity
		ev.OrderID = order.ID
		ev.OrderType = order.Type
		ev.Reason = RejectReasonDuplicateID
		ev.CreatedAt = now
		e.publish(ev)
		return
	}

	hadOpposite := e.oppositeQueue(order.Side).orderCount() > 0

	trades := e.book.AddOrder(order)

	events := make([]*BookEvent, 0, len(trades)+1)
	for _, trade := range trades {
		events = append(events, e.newMatchEvent(order.ID, order.Side, order.Type, trade, now))
	}

	if _, resting := e.book.GetOrder(order.ID); resting {
		ev := acquireBookEvent()
		ev.SequenceID = e.seqID.Add(1)
		ev.Type = EventTypeOpen
		ev.Side = order.Side
		ev.Price = order.Price
		ev.Quantity = order.RemainingQuantity
		ev.OrderID = order.ID
		ev.OrderType = order.Type
		ev.CreatedAt = now
		events = append(events, ev)
	} else if len(trades) == 0 {
		// FillAndKill rejected outright: it never entered the book.
		reason := RejectReasonPriceMismatch
		if !hadOpposite {
			reason = RejectReasonNoLiquidity
		}

		ev := acquireBookEvent()
		ev.SequenceID = e.seqID.Add(1)
		ev.Type = EventTypeReject
		ev.Side = order.Side
		ev.Price = order.Price
		ev.Quantity = order.RemainingQuantity
		ev.OrderID = order.ID
		ev.OrderType = order.Type
		ev.Reason = reason
		ev.CreatedAt = now
		events = append(events, ev)
	}

	e.publish(events...)
}

// cancelOrder removes a resting order and publishes the cancel event.
// Unknown ids are silently absorbed, matching the book contract.
func (e *Engine) cancelOrder(id uint64) {
	existing, ok := e.book.GetOrder(id)
	if !ok {
		return
	}

	e.book.CancelOrder(id)

	ev := acquireBookEvent()
	ev.SequenceID = e.seqID.Add(1)
	ev.Type = EventTypeCancel
	ev.Side = existing.Side
	ev.Price = existing.Price
	ev.Quantity = existing.RemainingQuantity
	ev.OrderID = existing.ID
	ev.OrderType = existing.Type
	ev.CreatedAt = time.Now().UTC()
	e.publish(ev)
}

// modifyOrder replaces a resting order and publishes the amend event ahead
// of whatever the re-insertion produced.
func (e *Engine) modifyOrder(req *ModifyRequest) {
	existing, ok := e.book.GetOrder(req.OrderID)
	if !ok {
		return
	}

	now := time.Now().UTC()

	trades := e.book.ModifyOrder(req.OrderID, req.NewSide, req.NewPrice, req.NewQuantity)

	events := make([]*BookEvent, 0, len(trades)+2)

	amend := acquireBookEvent()
	amend.SequenceID = e.seqID.Add(1)
	amend.Type = EventTypeAmend
	amend.Side = existing.Side
	amend.Price = req.NewPrice
	amend.Quantity = req.NewQuantity
	amend.OldPrice = existing.Price
	amend.OldQuantity = existing.RemainingQuantity
	amend.OrderID = existing.ID
	amend.OrderType = existing.Type
	amend.CreatedAt = now
	events = append(events, amend)

	for _, trade := range trades {
		events = append(events, e.newMatchEvent(req.OrderID, req.NewSide, existing.Type, trade, now))
	}

	if replaced, resting := e.book.GetOrder(req.OrderID); resting {
		ev := acquireBookEvent()
		ev.SequenceID = e.seqID.Add(1)
		ev.Type = EventTypeOpen
		ev.Side = replaced.Side
		ev.Price = replaced.Price
		ev.Quantity = replaced.RemainingQuantity
		ev.OrderID = replaced.ID
		ev.OrderType = replaced.Type
		ev.CreatedAt = now
		events = append(events, ev)
	}

	e.publish(events...)
}

// newMatchEvent builds a Match event from the taker's perspective. The
// price and maker id come from the resting half on the opposite side.
func (e *Engine) newMatchEvent(takerID uint64, takerSide Side, takerType OrderType, trade Trade, now time.Time) *BookEvent {
	maker := trade.Ask
	if takerSide == Sell {
		maker = trade.Bid
	}

	ev := acquireBookEvent()
	ev.SequenceID = e.seqID.Add(1)
	ev.TradeID = e.tradeID.Add(1)
	ev.Type = EventTypeMatch
	ev.Side = takerSide
	ev.Price = maker.Price
	ev.Quantity = trade.Quantity()
	ev.Notional = notionalOf(maker.Price, trade.Quantity())
	ev.OrderID = takerID
	ev.MakerOrderID = maker.OrderID
	ev.OrderType = takerType
	ev.CreatedAt = now
	return ev
}

func (e *Engine) oppositeQueue(side Side) *queue {
	if side == Buy {
		return e.book.asks
	}
	return e.book.bids
}

func (e *Engine) publish(events ...*BookEvent) {
	if len(events) == 0 {
		return
	}

	e.publisher.Publish(events...)
	for _, ev := range events {
		releaseBookEvent(ev)
	}
}
