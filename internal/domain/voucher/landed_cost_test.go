package voucher

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func landedCostFixture(t *testing.T, method DistributionMethod) *LandedCostVoucher {
	t.Helper()
	v, err := NewLandedCostVoucher("LCV-001", method, postingDate, postingTime)
	require.NoError(t, err)
	require.NoError(t, v.AddCharge("Freight", d(300)))
	// 10 units worth 1000, 20 units worth 1000
	require.NoError(t, v.AddItem("PR-001", uuid.New(), uuid.New(), uuid.New(), d(10), d(1000)))
	require.NoError(t, v.AddItem("PR-001", uuid.New(), uuid.New(), uuid.New(), d(20), d(1000)))
	return v
}

func TestLandedCostDistribute(t *testing.T) {
	t.Run("by amount splits on row value", func(t *testing.T) {
		v := landedCostFixture(t, DistributeByAmount)
		require.NoError(t, v.Distribute())
		assert.True(t, v.Items[0].ApplicableCharge.Equal(d(150)))
		assert.True(t, v.Items[1].ApplicableCharge.Equal(d(150)))
	})

	t.Run("by quantity splits on row quantity", func(t *testing.T) {
		v := landedCostFixture(t, DistributeByQty)
		require.NoError(t, v.Distribute())
		assert.True(t, v.Items[0].ApplicableCharge.Equal(d(100)))
		assert.True(t, v.Items[1].ApplicableCharge.Equal(d(200)))
	})

	t.Run("last row absorbs the rounding remainder", func(t *testing.T) {
		v, err := NewLandedCostVoucher("LCV-002", DistributeByQty, postingDate, postingTime)
		require.NoError(t, err)
		require.NoError(t, v.AddCharge("Duty", d(100)))
		for i := 0; i < 3; i++ {
			require.NoError(t, v.AddItem("PR-001", uuid.New(), uuid.New(), uuid.New(), d(1), d(10)))
		}
		require.NoError(t, v.Distribute())

		total := decimal.Zero
		for _, it := range v.Items {
			total = total.Add(it.ApplicableCharge)
		}
		assert.True(t, total.Equal(d(100)))
	})

	t.Run("no charges fails", func(t *testing.T) {
		v, err := NewLandedCostVoucher("LCV-003", DistributeByQty, postingDate, postingTime)
		require.NoError(t, err)
		require.NoError(t, v.AddItem("PR-001", uuid.New(), uuid.New(), uuid.New(), d(1), d(10)))
		assert.Error(t, v.Distribute())
	})
}

func TestLandedCostRevaluations(t *testing.T) {
	t.Run("distributed charges become per-unit increments", func(t *testing.T) {
		v := landedCostFixture(t, DistributeByQty)
		require.NoError(t, v.Distribute())

		revs, err := v.Revaluations()
		require.NoError(t, err)
		require.Len(t, revs, 2)
		// 100 over 10 units, 200 over 20 units
		assert.True(t, revs[0].ExtraRatePerUnit.Equal(d(10)))
		assert.True(t, revs[1].ExtraRatePerUnit.Equal(d(10)))
		assert.Equal(t, "PR-001", revs[0].ReceiptVoucherNo)
	})

	t.Run("undistributed voucher fails", func(t *testing.T) {
		v := landedCostFixture(t, DistributeByQty)
		_, err := v.Revaluations()
		assert.Error(t, err)
	})
}

func TestLandedCostSubmit(t *testing.T) {
	v := landedCostFixture(t, DistributeByAmount)
	require.NoError(t, v.Submit())
	assert.Equal(t, DocStatusSubmitted, v.GetDocStatus())
	require.NoError(t, v.Cancel())
	assert.Error(t, v.Submit())

	empty, err := NewLandedCostVoucher("LCV-EMPTY", DistributeByAmount, postingDate, postingTime)
	require.NoError(t, err)
	assert.Error(t, empty.Submit())
}
