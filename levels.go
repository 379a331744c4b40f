package book

// Level is a single price and the total remaining quantity of all orders
// resting at that price on one side.
type Level struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// LevelSnapshot is a read-only projection of the book taken at one instant.
// Bids are ordered best first (highest price), asks best first (lowest).
type LevelSnapshot struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// Depth is a limited per-side view of the book served by the engine loop.
// UpdateID is the book event sequence id at the time of the read.
type Depth struct {
	UpdateID uint64  `json:"update_id"`
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
}
