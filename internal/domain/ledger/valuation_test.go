package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryQty(qty, incomingRate float64) *StockLedgerEntry {
	return &StockLedgerEntry{
		ActualQty:    d(qty),
		IncomingRate: d(incomingRate),
	}
}

func TestMovingAverage(t *testing.T) {
	t.Run("receipts blend into the running rate", func(t *testing.T) {
		s := NewStockState()
		diff := s.Apply(ValuationKindMovingAverage, entryQty(10, 100))
		assert.True(t, diff.Equal(d(1000)))

		diff = s.Apply(ValuationKindMovingAverage, entryQty(10, 200))
		assert.True(t, diff.Equal(d(2000)))
		assert.True(t, s.ValuationRate.Equal(d(150)))
		assert.True(t, s.StockValue.Equal(d(3000)))
	})

	t.Run("issues move value at the running rate and keep it", func(t *testing.T) {
		s := NewStockState()
		s.Apply(ValuationKindMovingAverage, entryQty(10, 100))
		s.Apply(ValuationKindMovingAverage, entryQty(10, 200))

		diff := s.Apply(ValuationKindMovingAverage, entryQty(-5, 0))
		assert.True(t, diff.Equal(d(-750)))
		assert.True(t, s.ValuationRate.Equal(d(150)))
		assert.True(t, s.Qty.Equal(d(15)))
	})

	t.Run("receipt into a non-positive balance resets the rate", func(t *testing.T) {
		s := NewStockState()
		s.Apply(ValuationKindMovingAverage, entryQty(-3, 0)) // negative stock
		require.True(t, s.Qty.Equal(d(-3)))

		s.Apply(ValuationKindMovingAverage, entryQty(10, 80))
		assert.True(t, s.ValuationRate.Equal(d(80)))
		assert.True(t, s.Qty.Equal(d(7)))
		assert.True(t, s.StockValue.Equal(d(560)))
	})

	t.Run("return at original valuation adjusts the rate", func(t *testing.T) {
		s := NewStockState()
		s.Apply(ValuationKindMovingAverage, entryQty(10, 100))
		s.Apply(ValuationKindMovingAverage, entryQty(10, 200))

		// give back 5 units received at 200
		s.Apply(ValuationKindMovingAverage, entryQty(-5, 200))
		assert.True(t, s.Qty.Equal(d(15)))
		// (20*150 - 5*200) / 15
		assert.True(t, s.ValuationRate.Equal(decimal.NewFromFloat(133.3333)))
	})
}

func TestFIFOFold(t *testing.T) {
	t.Run("issue consumes oldest layers", func(t *testing.T) {
		s := NewStockState()
		s.Apply(ValuationKindFIFO, entryQty(10, 100))
		s.Apply(ValuationKindFIFO, entryQty(10, 200))

		diff := s.Apply(ValuationKindFIFO, entryQty(-12, 0))
		// 10 @ 100 + 2 @ 200
		assert.True(t, diff.Equal(d(-1400)))
		assert.True(t, s.Qty.Equal(d(8)))
		assert.True(t, s.StockValue.Equal(d(1600)))
		assert.True(t, s.ValuationRate.Equal(d(200)))
	})

	t.Run("queue snapshot survives state restore", func(t *testing.T) {
		s := NewStockState()
		s.Apply(ValuationKindFIFO, entryQty(10, 100))
		s.Apply(ValuationKindFIFO, entryQty(5, 120))

		e := &StockLedgerEntry{
			QtyAfterTransaction: s.Qty,
			ValuationRate:       s.ValuationRate,
			StockValue:          s.StockValue,
			StockQueue:          s.Queue.Snapshot(),
		}
		restored, err := StateFromEntry(e)
		require.NoError(t, err)

		diff := restored.Apply(ValuationKindFIFO, entryQty(-11, 0))
		// 10 @ 100 + 1 @ 120
		assert.True(t, diff.Equal(d(-1120)))
	})

	t.Run("over-issue books the shortfall at the running rate", func(t *testing.T) {
		s := NewStockState()
		s.Apply(ValuationKindFIFO, entryQty(5, 100))
		s.Apply(ValuationKindFIFO, entryQty(-8, 0))
		assert.True(t, s.Qty.Equal(d(-3)))
		assert.True(t, s.StockValue.Equal(d(-300)))
	})
}

func TestRevalue(t *testing.T) {
	s := NewStockState()
	s.Apply(ValuationKindFIFO, entryQty(10, 100))

	diff := s.Revalue(d(110))
	assert.True(t, diff.Equal(d(100)))
	assert.True(t, s.StockValue.Equal(d(1100)))
	assert.True(t, s.Qty.Equal(d(10)))
	require.Len(t, s.Queue.Layers(), 1)
	assert.True(t, s.Queue.Layers()[0].Rate.Equal(d(110)))
}
