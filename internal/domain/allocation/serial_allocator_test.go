package allocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

func buildSerial(t *testing.T, no string, itemID, warehouseID uuid.UUID, purchased time.Time) *catalog.SerialNo {
	t.Helper()
	s, err := catalog.NewSerialNo(no, itemID)
	require.NoError(t, err)
	require.NoError(t, s.Receive(warehouseID, d(100), purchased, purchased))
	return s
}

func TestSerialAllocate(t *testing.T) {
	item := uuid.New()
	wh := uuid.New()
	other := uuid.New()
	alloc := NewSerialAllocator()

	t.Run("oldest purchases leave first", func(t *testing.T) {
		pool := []*catalog.SerialNo{
			buildSerial(t, "SN-NEW", item, wh, date(2026, 1, 10)),
			buildSerial(t, "SN-OLD", item, wh, date(2026, 1, 1)),
		}
		picked, err := alloc.Allocate(1, pool, wh, nil)
		require.NoError(t, err)
		require.Len(t, picked, 1)
		assert.Equal(t, "SN-OLD", picked[0].SerialNo)
	})

	t.Run("serials in other warehouses are invisible", func(t *testing.T) {
		pool := []*catalog.SerialNo{
			buildSerial(t, "SN-HERE", item, wh, date(2026, 1, 1)),
			buildSerial(t, "SN-THERE", item, other, date(2026, 1, 1)),
		}
		_, err := alloc.Allocate(2, pool, wh, nil)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("reserved serials drain first", func(t *testing.T) {
		order := uuid.New()
		reserved := buildSerial(t, "SN-RES", item, wh, date(2026, 1, 10))
		reserved.SalesOrderID = &order
		pool := []*catalog.SerialNo{
			buildSerial(t, "SN-OLD", item, wh, date(2026, 1, 1)),
			reserved,
		}
		picked, err := alloc.Allocate(1, pool, wh, &order)
		require.NoError(t, err)
		assert.Equal(t, "SN-RES", picked[0].SerialNo)
	})
}

func TestSerialValidate(t *testing.T) {
	item := uuid.New()
	wh := uuid.New()
	alloc := NewSerialAllocator()

	pool := []*catalog.SerialNo{
		buildSerial(t, "SN-1", item, wh, date(2026, 1, 1)),
		buildSerial(t, "SN-2", item, wh, date(2026, 1, 2)),
	}

	t.Run("named serials resolve in order", func(t *testing.T) {
		picked, err := alloc.Validate([]string{"SN-2", "SN-1"}, pool, item, wh)
		require.NoError(t, err)
		require.Len(t, picked, 2)
		assert.Equal(t, "SN-2", picked[0].SerialNo)
	})

	t.Run("unknown serial fails", func(t *testing.T) {
		_, err := alloc.Validate([]string{"SN-404"}, pool, item, wh)
		assert.ErrorIs(t, err, shared.ErrSerialNoState)
	})

	t.Run("serial of another item fails", func(t *testing.T) {
		_, err := alloc.Validate([]string{"SN-1"}, pool, uuid.New(), wh)
		assert.ErrorIs(t, err, shared.ErrSerialNoState)
	})

	t.Run("delivered serial fails", func(t *testing.T) {
		gone := buildSerial(t, "SN-GONE", item, wh, date(2026, 1, 1))
		require.NoError(t, gone.Deliver(wh))
		_, err := alloc.Validate([]string{"SN-GONE"}, append(pool, gone), item, wh)
		assert.ErrorIs(t, err, shared.ErrSerialNoState)
	})
}
