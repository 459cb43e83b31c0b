package stock

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcore/backend/internal/domain/ledger"
)

// recordingBins remembers the order GetOrCreate was called in
type recordingBins struct {
	*memBins
	order []pairKey
}

func (r *recordingBins) GetOrCreate(ctx context.Context, itemID, warehouseID uuid.UUID) (*ledger.Bin, error) {
	r.order = append(r.order, pairKey{item: itemID, warehouse: warehouseID})
	return r.memBins.GetOrCreate(ctx, itemID, warehouseID)
}

type recordingRepos struct {
	*memRepos
	recording *recordingBins
}

func (r *recordingRepos) Bins() ledger.BinRepository { return r.recording }

func TestLockPairsCanonicalOrder(t *testing.T) {
	ctx := context.Background()
	base := newMemRepos()
	repos := &recordingRepos{
		memRepos:  base,
		recording: &recordingBins{memBins: base.bins},
	}

	itemA := uuid.New()
	itemB := uuid.New()
	whX := uuid.New()
	whY := uuid.New()

	// duplicated and deliberately unsorted: two concurrent postings over
	// the same pairs must take the bin locks in the same order
	pairs := []pairKey{
		{item: itemB, warehouse: whY},
		{item: itemA, warehouse: whY},
		{item: itemB, warehouse: whY},
		{item: itemA, warehouse: whX},
	}
	require.NoError(t, lockPairs(ctx, repos, pairs))

	locked := repos.recording.order
	require.Len(t, locked, 3)
	for i := 1; i < len(locked); i++ {
		prev, cur := locked[i-1], locked[i]
		c := bytes.Compare(prev.item[:], cur.item[:])
		if c == 0 {
			c = bytes.Compare(prev.warehouse[:], cur.warehouse[:])
		}
		assert.Negative(t, c)
	}
}
