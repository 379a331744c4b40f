package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrder(t *testing.T) {
	order, err := NewOrder(GoodTillCancel, 1, Buy, 100, 10)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), order.ID)
	assert.Equal(t, GoodTillCancel, order.Type)
	assert.Equal(t, Buy, order.Side)
	assert.Equal(t, int64(100), order.Price)
	assert.Equal(t, uint64(10), order.InitialQuantity)
	assert.Equal(t, uint64(10), order.RemainingQuantity)
	assert.NotZero(t, order.Timestamp)

	_, err = NewOrder(GoodTillCancel, 2, Sell, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrderFill(t *testing.T) {
	order, err := NewOrder(GoodTillCancel, 1, Buy, 100, 10)
	assert.NoError(t, err)

	assert.NoError(t, order.Fill(4))
	assert.Equal(t, uint64(6), order.RemainingQuantity)
	assert.Equal(t, uint64(4), order.FilledQuantity())
	assert.False(t, order.IsFilled())

	assert.NoError(t, order.Fill(6))
	assert.True(t, order.IsFilled())
	assert.Equal(t, uint64(10), order.FilledQuantity())
}

func TestOrderOverfill(t *testing.T) {
	order, err := NewOrder(GoodTillCancel, 7, Sell, 100, 5)
	assert.NoError(t, err)

	err = order.Fill(6)
	assert.Error(t, err)

	var overfill *OverfillError
	assert.ErrorAs(t, err, &overfill)
	assert.Equal(t, uint64(7), overfill.OrderID)
	assert.Equal(t, uint64(6), overfill.Requested)
	assert.Equal(t, uint64(5), overfill.Remaining)

	// A failed fill leaves the order untouched.
	assert.Equal(t, uint64(5), order.RemainingQuantity)
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
	assert.Equal(t, "buy", Buy.String())
	assert.Equal(t, "sell", Sell.String())
}
