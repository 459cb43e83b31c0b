package allocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

type poolSpec struct {
	batchNo  string
	qty      float64
	expiry   *time.Time
	receipt  *time.Time
	order    *uuid.UUID
	disabled bool
}

func buildPools(t *testing.T, specs []poolSpec) []BatchAvailability {
	t.Helper()
	item, err := catalog.NewItem("MED", "Medicine", "PCS")
	require.NoError(t, err)
	item.HasBatchNo = true

	pools := make([]BatchAvailability, 0, len(specs))
	for _, s := range specs {
		b, err := catalog.NewBatch(s.batchNo, item)
		require.NoError(t, err)
		b.ExpiryDate = s.expiry
		b.FirstReceiptDate = s.receipt
		b.Disabled = s.disabled
		pools = append(pools, BatchAvailability{
			Batch:            b,
			AvailableQty:     d(s.qty),
			ReservedForOrder: s.order,
		})
	}
	return pools
}

func fefoAllocator(t *testing.T) *Allocator {
	t.Helper()
	a, err := NewAllocator(Policy{Strategy: BatchStrategyFEFO, QtyPrecision: 3, PostingDate: date(2026, 1, 15)})
	require.NoError(t, err)
	return a
}

func TestAllocateFEFO(t *testing.T) {
	e1 := date(2026, 2, 1)
	e2 := date(2026, 3, 1)
	r1 := date(2026, 1, 1)

	t.Run("earliest expiring batch drains first", func(t *testing.T) {
		pools := buildPools(t, []poolSpec{
			{batchNo: "LATE", qty: 10, expiry: &e2},
			{batchNo: "SOON", qty: 6, expiry: &e1},
		})
		res, err := fefoAllocator(t).Allocate(d(8), pools, nil)
		require.NoError(t, err)
		require.Len(t, res.Picks, 2)
		assert.Equal(t, "SOON", res.Picks[0].BatchNo)
		assert.True(t, res.Picks[0].Qty.Equal(d(6)))
		assert.Equal(t, "LATE", res.Picks[1].BatchNo)
		assert.True(t, res.Picks[1].Qty.Equal(d(2)))
		assert.True(t, res.FullyAllocated)
		assert.Equal(t, 1, res.Picks[0].Idx)
		assert.Equal(t, 2, res.Picks[1].Idx)
	})

	t.Run("batches without expiry come last", func(t *testing.T) {
		pools := buildPools(t, []poolSpec{
			{batchNo: "NOEXP", qty: 10, receipt: &r1},
			{batchNo: "SOON", qty: 2, expiry: &e1},
		})
		res, err := fefoAllocator(t).Allocate(d(3), pools, nil)
		require.NoError(t, err)
		require.Len(t, res.Picks, 2)
		assert.Equal(t, "SOON", res.Picks[0].BatchNo)
	})

	t.Run("expired and disabled batches never participate", func(t *testing.T) {
		gone := date(2026, 1, 10)
		pools := buildPools(t, []poolSpec{
			{batchNo: "EXPIRED", qty: 10, expiry: &gone},
			{batchNo: "DEAD", qty: 10, disabled: true},
			{batchNo: "OK", qty: 5, expiry: &e2},
		})
		res, err := fefoAllocator(t).Allocate(d(5), pools, nil)
		require.NoError(t, err)
		require.Len(t, res.Picks, 1)
		assert.Equal(t, "OK", res.Picks[0].BatchNo)
	})

	t.Run("shortfall fails without an open row policy", func(t *testing.T) {
		pools := buildPools(t, []poolSpec{{batchNo: "ONLY", qty: 3, expiry: &e1}})
		_, err := fefoAllocator(t).Allocate(d(5), pools, nil)
		assert.ErrorIs(t, err, shared.ErrInsufficientBatchStock)
	})

	t.Run("shortfall becomes an open remainder row when allowed", func(t *testing.T) {
		a, err := NewAllocator(Policy{Strategy: BatchStrategyFEFO, QtyPrecision: 3, AllowShortfall: true})
		require.NoError(t, err)
		pools := buildPools(t, []poolSpec{{batchNo: "ONLY", qty: 3, expiry: &e1}})

		res, err := a.Allocate(d(5), pools, nil)
		require.NoError(t, err)
		require.Len(t, res.Picks, 2)
		assert.Nil(t, res.Picks[1].BatchID)
		assert.True(t, res.Picks[1].Qty.Equal(d(2)))
		assert.True(t, res.ShortfallQty.Equal(d(2)))
		assert.False(t, res.FullyAllocated)
	})

	t.Run("request rounds down to the quantity precision", func(t *testing.T) {
		pools := buildPools(t, []poolSpec{{batchNo: "ONLY", qty: 10, expiry: &e1}})
		res, err := fefoAllocator(t).Allocate(decimal.NewFromFloat(2.0009), pools, nil)
		require.NoError(t, err)
		assert.True(t, res.TotalPicked.Equal(d(2)))
	})
}

func TestAllocatePreferredOrder(t *testing.T) {
	e1 := date(2026, 2, 1)
	e2 := date(2026, 3, 1)
	order := uuid.New()

	t.Run("reserved batches drain before better FEFO candidates", func(t *testing.T) {
		pools := buildPools(t, []poolSpec{
			{batchNo: "SOON", qty: 10, expiry: &e1},
			{batchNo: "RESERVED", qty: 4, expiry: &e2, order: &order},
		})
		res, err := fefoAllocator(t).Allocate(d(6), pools, &order)
		require.NoError(t, err)
		require.Len(t, res.Picks, 2)
		assert.Equal(t, "RESERVED", res.Picks[0].BatchNo)
		assert.True(t, res.Picks[0].Qty.Equal(d(4)))
		assert.Equal(t, "SOON", res.Picks[1].BatchNo)
	})

	t.Run("reservations for other orders get no preference", func(t *testing.T) {
		other := uuid.New()
		pools := buildPools(t, []poolSpec{
			{batchNo: "SOON", qty: 10, expiry: &e1},
			{batchNo: "OTHER", qty: 4, expiry: &e2, order: &other},
		})
		res, err := fefoAllocator(t).Allocate(d(6), pools, &order)
		require.NoError(t, err)
		assert.Equal(t, "SOON", res.Picks[0].BatchNo)
	})
}

func TestAllocateFIFO(t *testing.T) {
	r1 := date(2026, 1, 1)
	r2 := date(2026, 1, 5)
	e1 := date(2026, 2, 1)

	a, err := NewAllocator(Policy{Strategy: BatchStrategyFIFO, QtyPrecision: 3})
	require.NoError(t, err)

	t.Run("first received batch drains first regardless of expiry", func(t *testing.T) {
		pools := buildPools(t, []poolSpec{
			{batchNo: "NEWER", qty: 10, receipt: &r2, expiry: &e1},
			{batchNo: "OLDER", qty: 4, receipt: &r1},
		})
		res, err := a.Allocate(d(6), pools, nil)
		require.NoError(t, err)
		require.Len(t, res.Picks, 2)
		assert.Equal(t, "OLDER", res.Picks[0].BatchNo)
	})
}

func TestAllocateInvalidInput(t *testing.T) {
	a := fefoAllocator(t)
	_, err := a.Allocate(decimal.Zero, nil, nil)
	assert.Error(t, err)

	_, err = NewAllocator(Policy{Strategy: "LIFO"})
	assert.Error(t, err)
}
