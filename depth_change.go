package book

// DepthChange is the signed per-level delta a book event implies for an
// aggregated depth view.
type DepthChange struct {
	Side         Side
	Price        int64
	QuantityDiff int64
}

// CalculateDepthChange maps a book event to the level update it implies.
// Note: for Match events, the side returned is the maker's side (liquidity
// leaves the resting side, opposite to the event's taker side).
func CalculateDepthChange(ev *BookEvent) DepthChange {
	switch ev.Type {
	case EventTypeOpen:
		return DepthChange{
			Side:         ev.Side,
			Price:        ev.Price,
			QuantityDiff: int64(ev.Quantity),
		}
	case EventTypeCancel:
		return DepthChange{
			Side:         ev.Side,
			Price:        ev.Price,
			QuantityDiff: -int64(ev.Quantity),
		}
	case EventTypeMatch:
		return DepthChange{
			Side:         ev.Side.Opposite(),
			Price:        ev.Price,
			QuantityDiff: -int64(ev.Quantity),
		}
	case EventTypeAmend:
		// Amend is cancel + re-insert: the order leaves its old level here
		// and reappears through the subsequent Open or Match events.
		return DepthChange{
			Side:         ev.Side,
			Price:        ev.OldPrice,
			QuantityDiff: -int64(ev.OldQuantity),
		}
	case EventTypeReject:
		// Rejected orders never entered the book, so no depth change.
		return DepthChange{}
	}

	return DepthChange{}
}
