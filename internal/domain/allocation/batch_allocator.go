package allocation

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

// BatchStrategy defines how batches are picked for an outbound row
type BatchStrategy string

const (
	// BatchStrategyFEFO picks batches closest to expiry first
	BatchStrategyFEFO BatchStrategy = "FEFO"
	// BatchStrategyFIFO picks batches by first receipt date
	BatchStrategyFIFO BatchStrategy = "FIFO"
)

// IsValid checks if the strategy is valid
func (s BatchStrategy) IsValid() bool {
	return s == BatchStrategyFEFO || s == BatchStrategyFIFO
}

// String returns the string representation
func (s BatchStrategy) String() string {
	return string(s)
}

// BatchAvailability pairs a batch with its live quantity in the source
// warehouse and the open quantity reserved against sales orders.
type BatchAvailability struct {
	Batch        *catalog.Batch
	AvailableQty decimal.Decimal
	// ReservedForOrder is the sales order holding a reservation on this
	// batch, nil when unreserved.
	ReservedForOrder *uuid.UUID
}

// Pick is one allocated slice: a quantity drawn from one batch. A nil
// BatchID marks the unfulfilled remainder row written when the policy
// tolerates a shortfall.
type Pick struct {
	BatchID  *uuid.UUID
	BatchNo  string
	Qty      decimal.Decimal
	// Idx renumbers the document rows after a row split.
	Idx int
}

// Result is the outcome of allocating one requested quantity
type Result struct {
	Picks          []Pick
	TotalPicked    decimal.Decimal
	ShortfallQty   decimal.Decimal
	FullyAllocated bool
}

// Policy configures the allocator per item and company settings
type Policy struct {
	Strategy BatchStrategy
	// QtyPrecision rounds every pick down so a row never claims more than
	// the stored precision can represent.
	QtyPrecision int32
	// AllowShortfall appends an open remainder row instead of failing when
	// the batches cannot cover the request.
	AllowShortfall bool
	// PostingDate excludes batches already expired at the posting date.
	PostingDate time.Time
}

// Allocator picks batches for outbound rows. It is stateless; callers pass
// the availability snapshot read under the submitting transaction.
type Allocator struct {
	policy Policy
}

// NewAllocator creates an allocator with the policy
func NewAllocator(policy Policy) (*Allocator, error) {
	if policy.Strategy == "" {
		policy.Strategy = BatchStrategyFEFO
	}
	if !policy.Strategy.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_STRATEGY", "Unknown batch strategy %s", policy.Strategy)
	}
	return &Allocator{policy: policy}, nil
}

// Allocate distributes the requested quantity over the available batches.
// Batches reserved for preferredOrder are drained first, then the remainder
// follows the configured strategy. Expired and disabled batches never
// participate. The request itself is rounded down to the quantity precision
// before allocation.
func (a *Allocator) Allocate(requested decimal.Decimal, pools []BatchAvailability, preferredOrder *uuid.UUID) (*Result, error) {
	requested = requested.RoundDown(a.policy.QtyPrecision)
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	usable := a.usablePools(pools)
	preferred, rest := splitPreferred(usable, preferredOrder)
	a.sortPools(preferred)
	a.sortPools(rest)

	result := &Result{Picks: make([]Pick, 0, 2)}
	remaining := requested
	remaining = a.drain(result, preferred, remaining)
	remaining = a.drain(result, rest, remaining)

	if remaining.GreaterThan(decimal.Zero) {
		if !a.policy.AllowShortfall {
			return nil, shared.NewDomainErrorf(shared.ErrInsufficientBatchStock.Code,
				"Batches cover only %s of the requested %s",
				requested.Sub(remaining).String(), requested.String())
		}
		result.Picks = append(result.Picks, Pick{Qty: remaining})
		result.ShortfallQty = remaining
	}

	result.FullyAllocated = result.ShortfallQty.IsZero()
	for i := range result.Picks {
		result.Picks[i].Idx = i + 1
	}
	return result, nil
}

func (a *Allocator) usablePools(pools []BatchAvailability) []BatchAvailability {
	out := make([]BatchAvailability, 0, len(pools))
	for _, p := range pools {
		if p.Batch == nil || p.Batch.Disabled {
			continue
		}
		if !a.policy.PostingDate.IsZero() && p.Batch.IsExpiredAt(a.policy.PostingDate) {
			continue
		}
		if p.AvailableQty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a *Allocator) sortPools(pools []BatchAvailability) {
	if a.policy.Strategy == BatchStrategyFIFO {
		sort.SliceStable(pools, func(i, j int) bool {
			return fifoBefore(pools[i].Batch, pools[j].Batch)
		})
		return
	}
	sort.SliceStable(pools, func(i, j int) bool {
		return pools[i].Batch.FEFOBefore(pools[j].Batch)
	})
}

// drain consumes pools in order until the remaining quantity is zero
func (a *Allocator) drain(result *Result, pools []BatchAvailability, remaining decimal.Decimal) decimal.Decimal {
	for i := range pools {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := decimal.Min(remaining, pools[i].AvailableQty).RoundDown(a.policy.QtyPrecision)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		batchID := pools[i].Batch.ID
		result.Picks = append(result.Picks, Pick{
			BatchID: &batchID,
			BatchNo: pools[i].Batch.BatchID,
			Qty:     take,
		})
		result.TotalPicked = result.TotalPicked.Add(take)
		remaining = remaining.Sub(take)
	}
	return remaining
}

// fifoBefore orders batches by first receipt date with nil dates last, then
// by batch id for a total order.
func fifoBefore(a, b *catalog.Batch) bool {
	switch {
	case a.FirstReceiptDate != nil && b.FirstReceiptDate != nil:
		if !a.FirstReceiptDate.Equal(*b.FirstReceiptDate) {
			return a.FirstReceiptDate.Before(*b.FirstReceiptDate)
		}
	case a.FirstReceiptDate != nil:
		return true
	case b.FirstReceiptDate != nil:
		return false
	}
	return a.BatchID < b.BatchID
}

// splitPreferred partitions pools into those reserved for the order and the
// rest. With no preferred order everything lands in rest.
func splitPreferred(pools []BatchAvailability, preferredOrder *uuid.UUID) (preferred, rest []BatchAvailability) {
	if preferredOrder == nil {
		return nil, pools
	}
	for _, p := range pools {
		if p.ReservedForOrder != nil && *p.ReservedForOrder == *preferredOrder {
			preferred = append(preferred, p)
		} else {
			rest = append(rest, p)
		}
	}
	return preferred, rest
}
