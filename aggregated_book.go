package book

import (
	"sync/atomic"

	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated quantities. It is designed for
// hosts that want to mirror depth from the engine's event stream without
// holding the full book.
//
// Feed it every published event in sequence order via Apply; duplicates are
// skipped and gaps are reported so the caller can re-prime from a snapshot
// with Rebuild.
type AggregatedBook struct {
	seqID atomic.Uint64 // last applied SequenceID, for dedup and gap detection
	bid   *treemap.TreeMap[int64, uint64]
	ask   *treemap.TreeMap[int64, uint64]
}

// NewAggregatedBook creates an AggregatedBook with empty bid and ask sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		bid: treemap.New[int64, uint64](),
		ask: treemap.New[int64, uint64](),
	}
}

// SequenceID returns the last applied sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID.Load()
}

// Apply updates the aggregated state with one book event. Events at or
// below the current sequence ID are skipped; a sequence ID more than one
// ahead returns ErrSequenceGap and leaves state untouched.
func (ab *AggregatedBook) Apply(ev *BookEvent) error {
	last := ab.seqID.Load()
	if ev.SequenceID <= last {
		return nil
	}
	if ev.SequenceID != last+1 {
		return ErrSequenceGap
	}

	change := CalculateDepthChange(ev)
	if change.QuantityDiff != 0 {
		side := ab.bid
		if change.Side == Sell {
			side = ab.ask
		}

		current, _ := side.Get(change.Price)
		next := int64(current) + change.QuantityDiff
		if next <= 0 {
			side.Del(change.Price)
		} else {
			side.Set(change.Price, uint64(next))
		}
	}

	ab.seqID.Store(ev.SequenceID)
	return nil
}

// Rebuild resets the aggregated state from a level snapshot taken at the
// given sequence ID. Call this before replaying events after a gap.
func (ab *AggregatedBook) Rebuild(snapshot LevelSnapshot, seqID uint64) {
	ab.bid.Clear()
	ab.ask.Clear()

	for _, level := range snapshot.Bids {
		ab.bid.Set(level.Price, level.Quantity)
	}
	for _, level := range snapshot.Asks {
		ab.ask.Set(level.Price, level.Quantity)
	}

	ab.seqID.Store(seqID)
}

// Depth returns the aggregated quantity at a price level for the given
// side, and whether the level exists.
func (ab *AggregatedBook) Depth(side Side, price int64) (uint64, bool) {
	if side == Buy {
		return ab.bid.Get(price)
	}
	return ab.ask.Get(price)
}

// Levels returns up to limit levels for the given side in that side's
// priority order (bids descending, asks ascending). limit <= 0 returns
// every level.
func (ab *AggregatedBook) Levels(side Side, limit int) []Level {
	tree := ab.ask
	if side == Buy {
		tree = ab.bid
	}

	n := tree.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]Level, 0, n)

	if side == Buy {
		// Bids read best-first from the high end of the tree.
		for it := tree.Reverse(); it.Valid() && len(result) < n; it.Next() {
			result = append(result, Level{Price: it.Key(), Quantity: it.Value()})
		}
		return result
	}

	for it := tree.Iterator(); it.Valid() && len(result) < n; it.Next() {
		result = append(result, Level{Price: it.Key(), Quantity: it.Value()})
	}
	return result
}
