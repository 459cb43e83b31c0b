package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/shared"
)

// PostingOptions carries the per-item policy the write path needs: the
// costing method, whether valuation is batch-scoped, and the negative stock
// and frozen period rules in force.
type PostingOptions struct {
	Method        ValuationKind
	BatchWise     bool
	AllowNegative bool
	Frozen        FrozenPolicy
	Roles         []string
	// RateResolver recomputes the incoming rate of entries whose rate
	// derives from another entry. Nil means rates are taken as written.
	RateResolver RateResolver
}

// RateResolver re-derives an entry's incoming rate during reposting. The
// second return value reports whether the entry has a derived rate at all.
type RateResolver func(ctx context.Context, entry *StockLedgerEntry) (decimal.Decimal, bool, error)

// Service is the stock ledger write path. It validates entries, folds them
// into the running valuation state, persists the projections and keeps the
// bin in step. All methods expect to run inside the caller's transaction.
type Service struct {
	entries StockLedgerRepository
	bins    BinRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates the ledger service
func NewService(entries StockLedgerRepository, bins BinRepository, logger *zap.Logger) *Service {
	return &Service{
		entries: entries,
		bins:    bins,
		logger:  logger,
		now:     time.Now,
	}
}

// PostEntry validates and writes one ledger entry, computing its projected
// columns from the previous state of the (item, warehouse) pair. When the
// entry is back-dated, every later entry of the pair is reposted.
func (s *Service) PostEntry(ctx context.Context, entry *StockLedgerEntry, opts PostingOptions) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := opts.Frozen.Check(entry.PostingDate, s.now(), opts.Roles); err != nil {
		return err
	}
	if entry.WrittenRate.IsZero() {
		entry.WrittenRate = entry.IncomingRate
	}

	// LookupKey, not Key: the entry's sequence is still unassigned, and a
	// sibling row of the same voucher at the same posting instant must be
	// seen as the predecessor.
	prev, err := s.entries.PreviousEntry(ctx, entry.ItemID, entry.WarehouseID, entry.LookupKey())
	if err != nil {
		return err
	}
	state, err := stateOrZero(prev)
	if err != nil {
		return err
	}

	folder := newFolder(s.entries, state, opts)
	if err := folder.apply(ctx, entry); err != nil {
		return err
	}

	if err := s.entries.Insert(ctx, entry); err != nil {
		return err
	}

	// A back-dated entry invalidates every later projection of the pair.
	later, err := s.entries.EntriesAfter(ctx, entry.ItemID, entry.WarehouseID, entry.Key())
	if err != nil {
		return err
	}
	if hasOtherEntries(later, entry.ID) {
		s.logger.Info("reposting ledger after back-dated entry",
			zap.String("item_id", entry.ItemID.String()),
			zap.String("warehouse_id", entry.WarehouseID.String()),
			zap.String("voucher_no", entry.VoucherNo))
		if err := s.repostFrom(ctx, folder, later, entry.ID); err != nil {
			return err
		}
	}

	return s.syncBin(ctx, entry.ItemID, entry.WarehouseID, folder.state)
}

// CancelVoucher flags a voucher's entries cancelled and reposts every
// affected (item, warehouse) pair from the earliest cancelled entry.
func (s *Service) CancelVoucher(ctx context.Context, voucherType VoucherType, voucherNo string, opts PostingOptions) error {
	cancelled, err := s.entries.CancelVoucherEntries(ctx, voucherType, voucherNo)
	if err != nil {
		return err
	}
	return s.RepostPairs(ctx, earliestPerPair(cancelled), opts)
}

// RepostPairs refolds the valuation of each (item, warehouse) pair forward
// from the given checkpoint entry.
func (s *Service) RepostPairs(ctx context.Context, checkpoints []*StockLedgerEntry, opts PostingOptions) error {
	for _, cp := range checkpoints {
		prev, err := s.entries.PreviousEntry(ctx, cp.ItemID, cp.WarehouseID, cp.Key())
		if err != nil {
			return err
		}
		state, err := stateOrZero(prev)
		if err != nil {
			return err
		}
		folder := newFolder(s.entries, state, opts)

		later, err := s.entries.EntriesAfter(ctx, cp.ItemID, cp.WarehouseID, cp.Key())
		if err != nil {
			return err
		}
		if err := s.repostFrom(ctx, folder, later, uuid.Nil); err != nil {
			return err
		}
		if err := s.syncBin(ctx, cp.ItemID, cp.WarehouseID, folder.state); err != nil {
			return err
		}
	}
	return nil
}

// repostFrom refolds the given entries in ledger order, rewriting the
// projections that changed. skipID marks an entry already folded by the
// caller.
func (s *Service) repostFrom(ctx context.Context, folder *folder,
	entries []*StockLedgerEntry, skipID uuid.UUID) error {
	for _, e := range entries {
		if e.ID == skipID || e.IsCancelled {
			continue
		}
		before := projections(e)
		if err := folder.apply(ctx, e); err != nil {
			return err
		}
		if before != projections(e) {
			if err := s.entries.UpdateProjections(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) syncBin(ctx context.Context, itemID, warehouseID uuid.UUID, state *StockState) error {
	bin, err := s.bins.GetOrCreate(ctx, itemID, warehouseID)
	if err != nil {
		return err
	}
	bin.ApplyLedgerState(state)
	return s.bins.Save(ctx, bin)
}

// folder advances the valuation state entry by entry. For batch-wise items
// it also carries per-batch moving average states, loaded lazily from the
// batch's previous entry.
type folder struct {
	entries StockLedgerRepository
	state   *StockState
	opts    PostingOptions
	batches map[uuid.UUID]*StockState
}

func newFolder(entries StockLedgerRepository, state *StockState, opts PostingOptions) *folder {
	return &folder{
		entries: entries,
		state:   state,
		opts:    opts,
		batches: make(map[uuid.UUID]*StockState),
	}
}

// apply computes and sets the projected columns of one entry
func (f *folder) apply(ctx context.Context, e *StockLedgerEntry) error {
	if f.opts.RateResolver != nil {
		rate, derived, err := f.opts.RateResolver(ctx, e)
		if err != nil {
			return err
		}
		if derived {
			// Outbound entries leave at the derived rate; both folds
			// read their explicit rate from the matching field.
			e.IncomingRate = rate
			if e.IsOutbound() {
				e.OutgoingRate = rate
			}
		}
	}

	newQty := f.state.Qty.Add(e.ActualQty)
	if newQty.LessThan(decimal.Zero) && !f.opts.AllowNegative {
		return shared.NewDomainErrorf(shared.ErrNegativeStock.Code,
			"Insufficient stock: balance would become %s for voucher %s",
			newQty.String(), e.VoucherNo)
	}

	var diff decimal.Decimal
	if f.opts.BatchWise && e.BatchID != nil {
		batchDiff, err := f.applyBatch(ctx, e)
		if err != nil {
			return err
		}
		// The pair's value moves exactly by the batch's value change.
		f.state.Qty = newQty
		f.state.StockValue = roundValue(f.state.StockValue.Add(batchDiff))
		if f.state.Qty.GreaterThan(decimal.Zero) {
			f.state.ValuationRate = roundValue(f.state.StockValue.Div(f.state.Qty))
		}
		diff = batchDiff
	} else {
		diff = f.state.Apply(f.opts.Method, e)
	}

	e.QtyAfterTransaction = f.state.Qty
	e.ValuationRate = f.state.ValuationRate
	e.StockValue = f.state.StockValue
	e.StockValueDifference = diff
	if f.opts.Method == ValuationKindFIFO && !f.opts.BatchWise {
		e.StockQueue = f.state.Queue.Snapshot()
	}
	return nil
}

// applyBatch advances the batch-scoped moving average and returns the value
// change.
func (f *folder) applyBatch(ctx context.Context, e *StockLedgerEntry) (decimal.Decimal, error) {
	bs, err := f.batchState(ctx, e)
	if err != nil {
		return decimal.Zero, err
	}

	newBatchQty := bs.Qty.Add(e.ActualQty)
	if newBatchQty.LessThan(decimal.Zero) && !f.opts.AllowNegative {
		return decimal.Zero, shared.NewDomainErrorf(shared.ErrInsufficientBatchStock.Code,
			"Insufficient batch stock: balance would become %s for voucher %s",
			newBatchQty.String(), e.VoucherNo)
	}

	before := bs.StockValue
	bs.applyMovingAverage(e.ActualQty, e.IncomingRate)
	diff := bs.StockValue.Sub(before)

	e.BatchQtyAfterTransaction = bs.Qty
	e.BatchValuationRate = bs.ValuationRate
	if e.IsOutbound() {
		e.OutgoingRate = bs.ValuationRate
	}
	return diff, nil
}

func (f *folder) batchState(ctx context.Context, e *StockLedgerEntry) (*StockState, error) {
	if bs, ok := f.batches[*e.BatchID]; ok {
		return bs, nil
	}
	prev, err := f.entries.PreviousBatchEntry(ctx, e.ItemID, e.WarehouseID, *e.BatchID, e.LookupKey())
	if err != nil {
		return nil, err
	}
	bs := NewStockState()
	if prev != nil {
		bs.Qty = prev.BatchQtyAfterTransaction
		bs.ValuationRate = prev.BatchValuationRate
		bs.StockValue = roundValue(bs.Qty.Mul(bs.ValuationRate))
	}
	f.batches[*e.BatchID] = bs
	return bs, nil
}

// projectionKey is the comparable set of projected columns, used to detect
// whether a repost actually changed an entry.
type projectionKey struct {
	qtyAfter  string
	rate      string
	value     string
	diff      string
	queue     string
	outRate   string
	batchQty  string
	batchRate string
}

func projections(e *StockLedgerEntry) projectionKey {
	return projectionKey{
		qtyAfter:  e.QtyAfterTransaction.String(),
		rate:      e.ValuationRate.String(),
		value:     e.StockValue.String(),
		diff:      e.StockValueDifference.String(),
		queue:     e.StockQueue,
		outRate:   e.OutgoingRate.String(),
		batchQty:  e.BatchQtyAfterTransaction.String(),
		batchRate: e.BatchValuationRate.String(),
	}
}

func stateOrZero(prev *StockLedgerEntry) (*StockState, error) {
	if prev == nil {
		return NewStockState(), nil
	}
	return StateFromEntry(prev)
}

func hasOtherEntries(entries []*StockLedgerEntry, selfID uuid.UUID) bool {
	for _, e := range entries {
		if e.ID != selfID && !e.IsCancelled {
			return true
		}
	}
	return false
}

// earliestPerPair reduces a set of entries to the earliest entry of each
// (item, warehouse) pair, the checkpoints reposting starts from.
func earliestPerPair(entries []*StockLedgerEntry) []*StockLedgerEntry {
	type pair struct{ item, warehouse uuid.UUID }
	earliest := make(map[pair]*StockLedgerEntry)
	order := make([]pair, 0, len(entries))
	for _, e := range entries {
		p := pair{item: e.ItemID, warehouse: e.WarehouseID}
		cur, ok := earliest[p]
		if !ok {
			earliest[p] = e
			order = append(order, p)
			continue
		}
		if e.Key().Before(cur.Key()) {
			earliest[p] = e
		}
	}
	out := make([]*StockLedgerEntry, 0, len(order))
	for _, p := range order {
		out = append(out, earliest[p])
	}
	return out
}
